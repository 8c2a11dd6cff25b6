// Package logger builds the application's slog-based logger. Production
// deployments get machine-readable JSON lines; everything else gets a compact
// colored console format for local development.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Logger wraps slog.Logger so the DI container has a distinct type to provide.
type Logger struct {
	*slog.Logger
}

// Config controls output destination and verbosity.
type Config struct {
	Writer      io.Writer
	Format      string // "json" or "console"; empty picks by environment
	Environment string
	Level       slog.Level
	AddSource   bool
}

// New builds a logger from the configuration.
func New(cfg Config) *Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	format := cfg.Format
	if format == "" {
		if cfg.Environment == "production" {
			format = "json"
		} else {
			format = "console"
		}
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(cfg.Writer, &slog.HandlerOptions{
			Level:     cfg.Level,
			AddSource: cfg.AddSource,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.SourceKey {
					if src, ok := a.Value.Any().(*slog.Source); ok {
						src.File = filepath.Base(src.File)
					}
				}
				return a
			},
		})
	} else {
		handler = &consoleHandler{
			w:         cfg.Writer,
			mu:        &sync.Mutex{},
			level:     cfg.Level,
			addSource: cfg.AddSource,
		}
	}

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

const (
	ansiReset = "\033[0m"
	ansiDim   = "\033[2m"
	ansiBold  = "\033[1m"
	ansiCyan  = "\033[36m"
)

// consoleHandler renders one line per record:
//
//	14:05:33 INFO  Recipe created recipe_id=recipe-x7 owner=user-a2
type consoleHandler struct {
	w         io.Writer
	mu        *sync.Mutex
	level     slog.Level
	addSource bool
	preformat string // attrs accumulated via WithAttrs, already rendered
	group     string
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	if !r.Time.IsZero() {
		b.WriteString(ansiDim)
		b.WriteString(r.Time.Format("15:04:05"))
		b.WriteString(ansiReset)
		b.WriteByte(' ')
	}

	b.WriteString(levelColor(r.Level))
	b.WriteString(fmt.Sprintf("%-5s", r.Level.String()))
	b.WriteString(ansiReset)
	b.WriteByte(' ')

	if h.addSource && r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		frame, _ := frames.Next()
		fmt.Fprintf(&b, "%s%s:%d%s ", ansiDim, filepath.Base(frame.File), frame.Line, ansiReset)
	}

	b.WriteString(ansiBold)
	b.WriteString(r.Message)
	b.WriteString(ansiReset)
	b.WriteString(h.preformat)

	r.Attrs(func(a slog.Attr) bool {
		b.WriteString(h.renderAttr(a))
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	var b strings.Builder
	b.WriteString(h.preformat)
	for _, a := range attrs {
		b.WriteString(h.renderAttr(a))
	}
	clone.preformat = b.String()
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.group != "" {
		clone.group = h.group + "." + name
	} else {
		clone.group = name
	}
	return &clone
}

func (h *consoleHandler) renderAttr(a slog.Attr) string {
	if a.Equal(slog.Attr{}) {
		return ""
	}
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	return fmt.Sprintf(" %s%s=%v%s", ansiCyan, key, a.Value.Resolve(), ansiReset)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m" // red
	case level >= slog.LevelWarn:
		return "\033[33m" // yellow
	case level >= slog.LevelInfo:
		return "\033[32m" // green
	default:
		return "\033[35m" // magenta
	}
}
