package logger

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

const formatPretty logFormat = "pretty"

// newPrettyHandler renders colored human-oriented lines for local runs.
func newPrettyHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return contextHandler{next: tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})}
}

// contextHandler copies request metadata from ctx onto each record.
type contextHandler struct {
	next slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := map[string]any{}
	fillFromContext(ctx, fields)
	if rid, ok := fields["rid"].(string); ok {
		fields["rid"] = CompactRID(rid)
	}
	for _, k := range []string{"rid", "update_id", "user_id", "chat_id", "handler"} {
		if v, ok := fields[k]; ok {
			r.AddAttrs(slog.Any(k, v))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name)}
}
