package logger

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler writes slog records through a zerolog logger so that library warnings share
// the service log stream
type SlogHandler struct {
	l      zerolog.Logger
	prefix string
}

func NewSlogHandler(l zerolog.Logger) *SlogHandler {
	return &SlogHandler{l: l}
}

// SetSlogDefault makes l the destination of the slog default logger
func SetSlogDefault(l zerolog.Logger) {
	slog.SetDefault(slog.New(NewSlogHandler(l)))
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return zerologLevel(level) >= h.l.GetLevel()
}

func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	ev := h.l.WithLevel(zerologLevel(r.Level))
	r.Attrs(func(a slog.Attr) bool {
		ev = ev.Interface(h.prefix+a.Key, a.Value.Resolve().Any())
		return true
	})
	ev.Msg(r.Message)
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	ctx := h.l.With()
	for _, a := range attrs {
		ctx = ctx.Interface(h.prefix+a.Key, a.Value.Resolve().Any())
	}
	return &SlogHandler{l: ctx.Logger(), prefix: h.prefix}
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{l: h.l, prefix: h.prefix + name + "."}
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
