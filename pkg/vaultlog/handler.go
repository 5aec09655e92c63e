package vaultlog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Entry is one JSON line of the log file.
type Entry struct {
	Source     string            `json:"source"`
	Level      string            `json:"level"`
	Message    string            `json:"message"`
	Timestamp  int64             `json:"timestamp"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Handler is a slog.Handler that turns records into Entries for the log
// file writer.
type Handler struct {
	source   string
	sink     *entrySink
	minLevel slog.Level
	attrs    []slog.Attr
	groups   []string
}

func newHandler(source string, minLevel slog.Level, sink *entrySink) *Handler {
	return &Handler{
		source:   source,
		sink:     sink,
		minLevel: minLevel,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel
}

// Handle queues the record without blocking.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	h.sink.send(h.recordToEntry(r))
	return nil
}

// WithAttrs returns a new Handler with the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := *h
	newH.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)
	return &newH
}

// WithGroup returns a new Handler with the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	newH := *h
	newH.groups = append(append([]string{}, h.groups...), name)
	return &newH
}

// entrySink is the buffered queue between handlers and the file writer.
// Sends after close are dropped.
type entrySink struct {
	mu     sync.RWMutex
	ch     chan *Entry
	closed bool
}

func newEntrySink(size int) *entrySink {
	return &entrySink{ch: make(chan *Entry, size)}
}

func (s *entrySink) send(e *Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
	default:
		// Drop if buffer full - don't block
	}
}

func (s *entrySink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (h *Handler) qualify(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}
	prefix := strings.Join(h.groups, ".") + "."
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

func (h *Handler) recordToEntry(r slog.Record) *Entry {
	entry := &Entry{
		Source:     h.source,
		Level:      levelName(r.Level),
		Message:    r.Message,
		Timestamp:  r.Time.Unix(),
		Attributes: make(map[string]string),
	}

	for _, attr := range h.attrs {
		entry.Attributes[attr.Key] = attr.Value.String()
	}

	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		entry.Attributes[key] = a.Value.String()
		return true
	})

	return entry
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// ParseLevel maps a level name to a slog.Level, defaulting to warn.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning", "":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelWarn, false
	}
}
