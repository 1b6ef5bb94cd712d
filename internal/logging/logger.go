// Package logging formats free-form call metadata into flat, redacted
// records and dispatches them to one sink chosen at process start.
//
// Callers build one *Logger with New and pass it to every component that
// logs. The sink is either a console text handler or a size-bounded,
// count-bounded rotating JSON file.
package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultFilePath is the file sink location, relative to $HOME.
	DefaultFilePath = "~/.server_logs/logger.logs"
	// DefaultMaxSizeMB is the rotation ceiling of one log file. lumberjack
	// sizes files in whole megabytes, so 1 is the smallest ceiling it accepts.
	DefaultMaxSizeMB = 1
	// DefaultMaxFiles is how many rotated files are retained.
	DefaultMaxFiles = 50
)

// Options select and configure the sink.
type Options struct {
	Console   bool
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
	Hostname  string
	Timezone  string
	Stdout    io.Writer
}

// Logger is the process-wide logging handle. A nil *Logger discards.
type Logger struct {
	slog      *slog.Logger
	formatter *Formatter
	closer    io.Closer
}

// New builds the console sink when opts.Console is set, the rotating file
// sink otherwise.
func New(opts Options) (*Logger, error) {
	formatter := NewFormatter(opts.Hostname, opts.Timezone)

	if opts.Console {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
		return NewWithHandler(handler, formatter), nil
	}

	path, err := expandPath(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("resolve log file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    positiveOr(opts.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: positiveOr(opts.MaxFiles, DefaultMaxFiles),
	}
	handler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := NewWithHandler(handler, formatter)
	logger.closer = rotator
	return logger, nil
}

// NewWithHandler wires an arbitrary sink, e.g. a buffer in tests.
func NewWithHandler(handler slog.Handler, formatter *Formatter) *Logger {
	if formatter == nil {
		formatter = NewFormatter("", "")
	}
	return &Logger{slog: slog.New(handler), formatter: formatter}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return NewWithHandler(slog.DiscardHandler, nil)
}

// Buffer returns a JSON logger writing into a fresh buffer.
func Buffer() (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewWithHandler(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}), nil), buf
}

func (l *Logger) Info(msg string, meta map[string]any) { l.log(slog.LevelInfo, msg, meta) }

func (l *Logger) Warn(msg string, meta map[string]any) { l.log(slog.LevelWarn, msg, meta) }

func (l *Logger) Error(msg string, meta map[string]any) { l.log(slog.LevelError, msg, meta) }

func (l *Logger) Debug(msg string, meta map[string]any) { l.log(slog.LevelDebug, msg, meta) }

// Close releases the file sink, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) log(level slog.Level, msg string, meta map[string]any) {
	if l == nil || l.slog == nil {
		return
	}
	ctx := context.Background()
	if !l.slog.Enabled(ctx, level) {
		return
	}
	rec := l.formatter.Format(meta)

	keys := make([]string, 0, len(rec))
	for key := range rec {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, slog.Any(key, rec[key]))
	}
	l.slog.LogAttrs(ctx, level, msg, attrs...)
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = DefaultFilePath
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
