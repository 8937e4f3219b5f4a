// Package logging sets up the process-wide slog logger and derives scoped
// loggers from a context: per request (chi request ID), per import run and
// per card.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Service is attached to every record so card tracker logs can be told
// apart in a shared collector.
const Service = "biomed"

// New builds a logger writing to w. Format "json" selects the JSON handler;
// anything else is text. Unknown levels fall back to info.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", Service)
}

// Setup installs a stdout logger as the slog default.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger, tagged with request_id when ctx
// went through chi's RequestID middleware.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

// WithFields is FromContext plus extra attributes.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// ForImport tags a logger with a fresh import_id so every line of one
// spreadsheet import can be grouped, even across concurrent imports.
func ForImport(ctx context.Context) *slog.Logger {
	return WithFields(ctx, "import_id", uuid.NewString())
}

// ForCard tags a logger with the card an operation touches.
func ForCard(ctx context.Context, cardID int64) *slog.Logger {
	return WithFields(ctx, "card_id", cardID)
}
