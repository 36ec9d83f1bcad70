package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Handler prints records as "[time] [attr]... message" with the attribute
// keys dropped, so logger.Info(msg, "module", "pipeline") reads
// "[2006/01/02 15:04:05] [pipeline] msg".
type Handler struct {
	level slog.Leveler
	attrs []string
	mu    *sync.Mutex
	out   io.Writer
}

func NewHandler(o io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{
		level: level,
		out:   o,
		mu:    &sync.Mutex{},
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bracketed := make([]string, 0, len(h.attrs)+len(attrs))
	bracketed = append(bracketed, h.attrs...)
	for _, a := range attrs {
		bracketed = append(bracketed, fmt.Sprintf("[%s]", a.Value.String()))
	}
	return &Handler{level: h.level, attrs: bracketed, out: h.out, mu: h.mu}
}

// WithGroup is a no-op, keys are never printed.
func (h *Handler) WithGroup(string) slog.Handler {
	return h
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	strs := []string{r.Time.Format("[2006/01/02 15:04:05]")}
	if r.Level != slog.LevelInfo {
		strs = append(strs, fmt.Sprintf("[%s]", r.Level))
	}
	strs = append(strs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		strs = append(strs, fmt.Sprintf("[%s]", a.Value.String()))
		return true
	})
	strs = append(strs, r.Message)

	line := strings.Join(strs, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}
