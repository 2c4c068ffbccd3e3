package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// NewHCLog builds the command line tool's logger.
func NewHCLog(name string, cfg Config) hclog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(cfg.Level),
		JSONFormat: strings.EqualFold(cfg.Format, "json"),
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// FromHCLog returns a slog logger writing through l. Credentials are
// redacted as with New.
func FromHCLog(l hclog.Logger) *slog.Logger {
	return slog.New(&hclogHandler{l: l})
}

type hclogHandler struct {
	l     hclog.Logger
	group string
}

func (h *hclogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return hcLevel(level) >= h.l.GetLevel()
}

func (h *hclogHandler) Handle(_ context.Context, r slog.Record) error {
	args := make([]any, 0, 2*r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		args = h.appendAttr(args, a)
		return true
	})
	h.l.Log(hcLevel(r.Level), r.Message, args...)
	return nil
}

func (h *hclogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	args := make([]any, 0, 2*len(attrs))
	for _, a := range attrs {
		args = h.appendAttr(args, a)
	}
	return &hclogHandler{l: h.l.With(args...), group: h.group}
}

func (h *hclogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &hclogHandler{l: h.l, group: h.group + name + "."}
}

func (h *hclogHandler) appendAttr(args []any, a slog.Attr) []any {
	a = redactSensitive(a)
	if a.Value.Kind() == slog.KindGroup {
		sub := &hclogHandler{l: h.l, group: h.group + a.Key + "."}
		for _, ga := range a.Value.Group() {
			args = sub.appendAttr(args, ga)
		}
		return args
	}
	return append(args, h.group+a.Key, a.Value.Resolve().Any())
}

func hcLevel(level slog.Level) hclog.Level {
	switch {
	case level >= slog.LevelError:
		return hclog.Error
	case level >= slog.LevelWarn:
		return hclog.Warn
	case level >= slog.LevelInfo:
		return hclog.Info
	default:
		return hclog.Debug
	}
}
