package log

import (
	"context"
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// SecureHandler masks secrets in attributes before passing records to the
// wrapped handler.
type SecureHandler struct {
	next slog.Handler
}

// NewSecureHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{next: handler}
}

// Enabled reports whether the wrapped handler handles level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle copies r with masked attributes and hands it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(maskAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

// WithAttrs returns a handler with the masked attributes added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SecureHandler{next: h.next.WithAttrs(maskAttrs(attrs))}
}

// WithGroup returns a handler that nests attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{next: h.next.WithGroup(name)}
}

func maskAttrs(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = maskAttr(a)
	}
	return out
}

func maskAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		if isSecretName(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskAttrs(a.Value.Group())...)}
	case slog.KindString:
		return slog.String(a.Key, maskString(a.Key, a.Value.String()))
	case slog.KindAny:
		if isSecretName(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		if headers, ok := a.Value.Any().(map[string]string); ok {
			return slog.Any(a.Key, MaskHeaders(headers))
		}
		return a
	default:
		if isSecretName(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		return a
	}
}

// Options controls the logger built by New.
type Options struct {
	// Verbose lowers the level from Warn to Debug.
	Verbose bool

	// JSON writes one JSON object per record instead of styled text.
	JSON bool

	// ReportTimestamp adds the time to text output. JSON output always has it.
	ReportTimestamp bool
}

// level returns the minimum level for opts.
func (o Options) level() slog.Level {
	if o.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// New creates a *slog.Logger that masks secrets.
// Text output goes through charmbracelet/log, JSON output through slog's
// JSON handler.
func New(w io.Writer, opts Options) *slog.Logger {
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.level()})
	} else {
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(opts.level()),
			ReportTimestamp: opts.ReportTimestamp,
			Prefix:          "webconv",
		})
	}
	return slog.New(NewSecureHandler(handler))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
