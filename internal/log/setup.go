package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Options configures Setup.
type Options struct {
	// Console receives human-readable text. Nil means os.Stderr.
	Console io.Writer

	// Verbose lowers the console level to Debug.
	Verbose bool

	// Level overrides the console level when set.
	Level *slog.Level

	// File, when set, receives every record at Info and above as JSON.
	File string

	// JSON switches the console output to JSON.
	JSON bool
}

// Logger is the process-wide logging handle. Close flushes and releases the
// log file; it must be called once at shutdown.
type Logger struct {
	*slog.Logger
	closers []io.Closer
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	var errs []error
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	l.closers = nil
	return errors.Join(errs...)
}

// Setup builds the process logger: masked text on the console and, when
// Options.File is set, masked JSON lines appended to that file.
func Setup(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	level := levelFor(opts.Verbose)
	if opts.Level != nil {
		level = *opts.Level
	}

	var consoleHandler slog.Handler
	if opts.JSON {
		consoleHandler = slog.NewJSONHandler(console, &slog.HandlerOptions{Level: level})
	} else {
		consoleHandler = slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	}

	l := &Logger{}
	handlers := []slog.Handler{consoleHandler}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		fileLevel := min(level, slog.LevelInfo)
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: fileLevel}))
		l.closers = append(l.closers, f)
	}

	var root slog.Handler = handlers[0]
	if len(handlers) > 1 {
		root = fanout(handlers)
	}
	l.Logger = slog.New(NewSecureHandler(root))
	return l, nil
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
