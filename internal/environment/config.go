package environment

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// Environment variables read by the codecheck command.
const (
	RemoteURL      = "CODECHECK_REMOTE_URL"
	ScriptCommand  = "CODECHECK_SCRIPT_CMD"
	Debug          = "CODECHECK_DEBUG"
	LocalTimeout   = "CODECHECK_LOCAL_TIMEOUT"
	RemoteTimeout  = "CODECHECK_REMOTE_TIMEOUT"
	Attempts       = "CODECHECK_ATTEMPTS"
	LogLevel       = "CODECHECK_LOG_LEVEL"
	Languages      = "CODECHECK_LANGUAGES"
	NatsURL        = "CODECHECK_NATS_URL"
	NatsSubject    = "CODECHECK_NATS_SUBJECT"
	SqsURL         = "CODECHECK_SQS_URL"
	AwsRegion      = "AWS_REGION"
	DefaultSubject = "codecheck.feedback"
)

// Load reads the given .env files (".env" when none are named) into the process
// environment. Missing files are skipped and variables that are already set win.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}
