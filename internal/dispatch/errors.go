package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrProtocol is returned when the executor's output does not follow the plan/executor contract.
	ErrProtocol = errors.New("executor protocol violation")

	// ErrLocalTimeout is returned when the local runner exceeds its wall clock ceiling.
	ErrLocalTimeout = errors.New("local runner timed out")
)

// StatusError is a non-2xx response from the remote execution service.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote executor returned status %s", e.Status)
	}
	return fmt.Sprintf("remote executor returned status %s: %s", e.Status, e.Body)
}

// IsTransient reports whether err is worth another remote attempt:
// a 5xx status or a network level timeout.
func IsTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 && statusErr.Code <= 599
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
