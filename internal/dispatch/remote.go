package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/programme-lv/codecheck/internal/filemap"
)

const (
	uploadField    = "job"
	uploadFilename = "job.zip"

	// maxErrorBodyBytes caps how much of a non-2xx body ends up in StatusError.
	maxErrorBodyBytes = 4 * 1024
)

// Remote uploads jobs to an HTTP execution service.
type Remote struct {
	url      string
	timeout  time.Duration
	attempts int
	tempDir  string
	client   *http.Client
	logger   *slog.Logger
}

func NewRemote(cfg Config, logger *slog.Logger) *Remote {
	timeout := cfg.RemoteTimeout
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Remote{
		url:      cfg.RemoteURL,
		timeout:  timeout,
		attempts: attempts,
		tempDir:  cfg.TempDir,
		client:   client,
		logger:   logger.With(slog.String("strategy", "remote")),
	}
}

// Execute uploads the job archive and unpacks the response body. Transient
// failures (5xx, network timeouts) are retried until the attempt budget runs out;
// anything else is returned at once.
func (r *Remote) Execute(ctx context.Context, job *Job) (*filemap.Map, error) {
	logger := r.logger.With(slog.String("plan_id", job.PlanID))

	body, contentType, err := multipartBody(job.Archive)
	if err != nil {
		return nil, err
	}
	if job.Debug {
		r.persistDebug(logger, "codecheck-request-*.zip", "Remote request at ", job.Archive)
	}

	limit := ceiling(r.timeout, job.Budget)
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		logger.Info("Uploading job...", "url", r.url, "attempt", attempt, "timeout", limit)
		responseZip, err := r.upload(ctx, body, contentType, limit)
		if job.Debug && responseZip != nil {
			r.persistDebug(logger, "codecheck-response-*.zip", "Remote result at ", responseZip)
		}
		if err == nil {
			outputs, err := filemap.Unzip(responseZip)
			if err != nil {
				return nil, err
			}
			logger.Info("Unpacked response archive", "files", outputs.Len())
			return outputs, nil
		}

		lastErr = err
		if !IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}
		logger.Warn("transient remote failure", "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("remote executor failed after %d attempts: %w", r.attempts, lastErr)
}

// upload performs one POST. For non-2xx responses it returns the (capped) body
// along with a *StatusError so debug mode can still persist it.
func (r *Remote) upload(ctx context.Context, body []byte, contentType string, limit time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return data, &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

func multipartBody(archive []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(uploadField, uploadFilename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(archive); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (r *Remote) persistDebug(logger *slog.Logger, pattern string, msg string, data []byte) {
	path, err := writeTemp(r.tempDir, pattern, data)
	if err != nil {
		logger.Warn("failed to persist debug archive", "error", err)
		return
	}
	logger.Info(msg + path)
}
