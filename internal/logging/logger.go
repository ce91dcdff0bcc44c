package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: levelVar})
	case "console", "text":
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: levelVar})
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	return slog.New(handler), nil
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}
