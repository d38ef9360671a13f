// Package logger builds slog loggers for lancong. Terminal output is
// colorized: errors red, warnings yellow and persistence messages green.
package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// persistenceMarkers select messages highlighted in green.
var persistenceMarkers = []string{"persist", "embedding written", "stored", "vector index created"}

// ColorHandler is a text handler that colors whole lines by level.
type ColorHandler struct {
	inner slog.Handler
	w     io.Writer
	buf   *bytes.Buffer
	mu    *sync.Mutex
	color bool
}

var _ slog.Handler = (*ColorHandler)(nil)

// NewColorHandler creates a ColorHandler writing to w. Color is enabled only
// when w is a terminal.
func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	buf := &bytes.Buffer{}
	return &ColorHandler{
		inner: slog.NewTextHandler(buf, opts),
		w:     w,
		buf:   buf,
		mu:    &sync.Mutex{},
		color: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Enabled implements slog.Handler.
func (h *ColorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ColorHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	line := h.buf.Bytes()
	code := colorFor(r)
	if !h.color || code == "" {
		_, err := h.w.Write(line)
		return err
	}

	out := make([]byte, 0, len(line)+len(code)+len(colorReset))
	out = append(out, code...)
	out = append(out, bytes.TrimRight(line, "\n")...)
	out = append(out, colorReset...)
	out = append(out, '\n')
	_, err := h.w.Write(out)
	return err
}

func colorFor(r slog.Record) string {
	switch {
	case r.Level >= slog.LevelError:
		return colorRed
	case r.Level >= slog.LevelWarn:
		return colorYellow
	}
	msg := strings.ToLower(r.Message)
	for _, marker := range persistenceMarkers {
		if strings.Contains(msg, marker) {
			return colorGreen
		}
	}
	return ""
}

// WithAttrs implements slog.Handler.
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	return &clone
}

// Config selects the logger output.
type Config struct {
	Level  slog.Level
	Format string // text or json
	Output io.Writer
}

// NewLogger creates a logger from cfg. Text output uses ColorHandler.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(NewColorHandler(out, opts))
}

// NewDefaultLogger creates a colored text logger on stderr.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return NewLogger(Config{Level: level})
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(level string) slog.Level {
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
