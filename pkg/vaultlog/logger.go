package vaultlog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
)

const bufferSize = 1000

// Logger wraps slog.Logger with an optional JSON log file sink.
type Logger struct {
	*slog.Logger
	sink *entrySink
	done chan struct{}
	file io.WriteCloser
	once sync.Once
}

// Config holds configuration for creating a new Logger.
type Config struct {
	Source   string
	FilePath string
	MinLevel slog.Level
	// Output receives text logs. Defaults to stderr so it never interleaves
	// with command output on stdout.
	Output io.Writer
}

// NewLogger creates a Logger that writes text to Output and, when FilePath
// is set, JSON entries to that file.
func NewLogger(cfg Config) (*Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	textHandler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.MinLevel})

	if cfg.FilePath == "" {
		return &Logger{Logger: slog.New(textHandler)}, nil
	}

	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return newWithSink(textHandler, cfg.Source, cfg.MinLevel, f), nil
}

func newWithSink(text slog.Handler, source string, minLevel slog.Level, sink io.WriteCloser) *Logger {
	entries := newEntrySink(bufferSize)
	logger := &Logger{
		Logger: slog.New(&multiHandler{
			handlers: []slog.Handler{text, newHandler(source, minLevel, entries)},
		}),
		sink: entries,
		done: make(chan struct{}),
		file: sink,
	}
	go logger.runWriter()
	return logger
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	if l.sink == nil {
		return nil
	}
	var err error
	l.once.Do(func() {
		l.sink.close()
		<-l.done
		err = l.file.Close()
	})
	return err
}

func (l *Logger) runWriter() {
	defer close(l.done)
	enc := json.NewEncoder(l.file)
	for entry := range l.sink.ch {
		// Ignore errors - file logging is best effort
		_ = enc.Encode(entry)
	}
}

// multiHandler sends log records to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			// Ignore errors - we want to send to all handlers
			h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
