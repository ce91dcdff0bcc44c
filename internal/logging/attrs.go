package logging

import (
	"context"
	"log/slog"
	"time"
)

// FieldComponent tags log lines with the owning subsystem.
const FieldComponent = "component"

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Time(key string, value time.Time) Attr { return slog.Time(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attrs to the variadic any form slog methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

// NoopHandler drops every record. Used by NewNop and in wiring that must not fail.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
