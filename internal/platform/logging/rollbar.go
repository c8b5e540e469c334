package logging

import (
	"context"
	"log/slog"
	"slices"
)

// ReportFunc receives error-level records. fields holds every attribute
// attached to the logger and the record.
type ReportFunc func(msg string, fields map[string]any)

// RollbarHandler forwards error-level records to a ReportFunc and then
// delegates to the wrapped handler.
type RollbarHandler struct {
	next   slog.Handler
	report ReportFunc
	attrs  []slog.Attr
}

var _ slog.Handler = (*RollbarHandler)(nil)

func NewRollbarHandler(next slog.Handler, report ReportFunc) *RollbarHandler {
	return &RollbarHandler{next: next, report: report}
}

func (h *RollbarHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RollbarHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError && h.report != nil {
		fields := make(map[string]any, len(h.attrs)+r.NumAttrs())
		for _, a := range h.attrs {
			fields[a.Key] = a.Value.Resolve().Any()
		}
		r.Attrs(func(a slog.Attr) bool {
			fields[a.Key] = a.Value.Resolve().Any()
			return true
		})
		h.report(r.Message, fields)
	}
	return h.next.Handle(ctx, r)
}

func (h *RollbarHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RollbarHandler{
		next:   h.next.WithAttrs(attrs),
		report: h.report,
		attrs:  append(slices.Clip(h.attrs), attrs...),
	}
}

// WithGroup keeps reported fields flat; only the wrapped handler sees the group.
func (h *RollbarHandler) WithGroup(name string) slog.Handler {
	return &RollbarHandler{
		next:   h.next.WithGroup(name),
		report: h.report,
		attrs:  h.attrs,
	}
}
