package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

var (
	mu     sync.Mutex
	logger *slog.Logger
)

// ParseLevel maps a level name to a slog level, defaulting to INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs a tint handler writing to w as the package and slog default logger.
func Setup(level string, w io.Writer) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	handler := tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.TimeOnly,
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Get returns the configured logger, setting up an INFO logger on stderr if needed.
func Get() *slog.Logger {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		return Setup("INFO", os.Stderr)
	}
	return l
}

func WithComponent(name string) *slog.Logger {
	return Get().With(slog.String("component", name))
}

func WithPlan(id string) *slog.Logger {
	return Get().With(slog.String("plan_id", id))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
