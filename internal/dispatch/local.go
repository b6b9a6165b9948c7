package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/programme-lv/codecheck/internal/filemap"
)

// maxStderrBytes caps the runner stderr kept for error messages.
const maxStderrBytes = 16 * 1024

// Local runs jobs through a script runner subprocess on this machine.
type Local struct {
	command []string
	timeout time.Duration
	tempDir string
	logger  *slog.Logger
}

func NewLocal(cfg Config, logger *slog.Logger) *Local {
	timeout := cfg.LocalTimeout
	if timeout <= 0 {
		timeout = DefaultLocalTimeout
	}
	return &Local{
		command: strings.Fields(cfg.ScriptCommand),
		timeout: timeout,
		tempDir: cfg.TempDir,
		logger:  logger.With(slog.String("strategy", "local")),
	}
}

// Execute writes the request archive to a temp file, runs `<command> <archive>`
// and unpacks the archive named by the last non-blank stdout line.
// Both archives are removed afterwards unless the job is in debug mode.
func (l *Local) Execute(ctx context.Context, job *Job) (*filemap.Map, error) {
	if len(l.command) == 0 {
		return nil, fmt.Errorf("no local script command configured")
	}
	logger := l.logger.With(slog.String("plan_id", job.PlanID))

	logger.Debug("Writing request archive...")
	requestZip, err := writeTemp(l.tempDir, "codecheck-request-*.zip", job.Archive)
	if err != nil {
		return nil, err
	}
	var responseZip string
	defer func() {
		if job.Debug {
			return
		}
		removeQuietly(logger, requestZip)
		if responseZip != "" {
			removeQuietly(logger, responseZip)
		}
	}()
	if job.Debug {
		logger.Info("Request files at " + requestZip)
	}

	limit := ceiling(l.timeout, job.Budget)
	runCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	args := append(append([]string{}, l.command[1:]...), requestZip)
	cmd := exec.CommandContext(runCtx, l.command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &limitedWriter{w: &stderr, n: maxStderrBytes}
	cmd.WaitDelay = time.Second

	logger.Info("Running script runner...", "command", l.command[0], "timeout", limit)
	runErr := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, fmt.Errorf("%w after %v", ErrLocalTimeout, limit)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, fmt.Errorf("failed to start script runner: %w", runErr)
	}
	if exitErr != nil {
		// exit status is not part of the contract, only stdout is
		logger.Warn("script runner exited with non-zero status", "exit_code", exitErr.ExitCode())
	}

	responseZip, err = ResponsePath(stdout.String())
	if err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	if job.Debug {
		logger.Info("Response files at " + responseZip)
	}

	data, err := os.ReadFile(responseZip)
	if err != nil {
		return nil, fmt.Errorf("failed to read response archive: %w", err)
	}
	outputs, err := filemap.Unzip(data)
	if err != nil {
		return nil, err
	}
	logger.Info("Unpacked response archive", "files", outputs.Len())
	return outputs, nil
}

// ResponsePath extracts the response archive path from runner stdout: the last
// non-blank line. Earlier lines are log noise.
func ResponsePath(stdout string) (string, error) {
	lines := strings.Split(stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: script runner printed no response archive path", ErrProtocol)
}

func writeTemp(dir string, pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	// readable by the runner, which may run as another user
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return name, nil
}

func removeQuietly(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove archive", "path", path, "error", err)
	}
}

// limitedWriter keeps at most n bytes and silently drops the rest.
type limitedWriter struct {
	w *bytes.Buffer
	n int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	if room := lw.n - lw.w.Len(); room > 0 {
		if len(p) > room {
			lw.w.Write(p[:room])
		} else {
			lw.w.Write(p)
		}
	}
	return len(p), nil
}
