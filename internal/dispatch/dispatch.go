package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/programme-lv/codecheck/internal/filemap"
)

const (
	// DefaultLocalTimeout bounds the local script runner subprocess.
	DefaultLocalTimeout = 30 * time.Second

	// DefaultRemoteTimeout bounds one HTTP round trip to the execution service.
	DefaultRemoteTimeout = 60 * time.Second

	// DefaultAttempts is the total number of remote upload attempts.
	DefaultAttempts = 2

	// Grace is added on top of a plan budget when deriving the outer ceiling.
	Grace = 5 * time.Second
)

// Job is a sealed plan ready to be executed.
type Job struct {
	PlanID  string
	Archive []byte
	Debug   bool

	// Budget is the sum of the per-action timeouts encoded in the script.
	Budget time.Duration
}

// Executor runs a job and returns the contents of the response archive.
type Executor interface {
	Execute(ctx context.Context, job *Job) (*filemap.Map, error)
}

type Config struct {
	// RemoteURL selects the remote strategy when set.
	RemoteURL string
	// ScriptCommand is the local runner command line; the archive path is appended.
	ScriptCommand string

	LocalTimeout  time.Duration
	RemoteTimeout time.Duration
	Attempts      int

	// TempDir holds request, response and debug archives. Empty means os.TempDir().
	TempDir string

	HTTPClient *http.Client
}

// New returns the remote executor when a remote URL is configured and the local one otherwise.
func New(cfg Config, logger *slog.Logger) Executor {
	if cfg.RemoteURL != "" {
		return NewRemote(cfg, logger)
	}
	return NewLocal(cfg, logger)
}

// ceiling is the outer wall clock limit for a job: never below the plan budget plus Grace.
func ceiling(configured time.Duration, budget time.Duration) time.Duration {
	if floor := budget + Grace; configured < floor {
		return floor
	}
	return configured
}
