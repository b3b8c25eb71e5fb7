package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Record is a log record delivered to stream subscribers.
type Record struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Stream fans log records out to subscribers. Slow subscribers drop records
// rather than blocking the logging path.
type Stream struct {
	mu   sync.RWMutex
	subs map[chan Record]struct{}
}

// NewStream creates an empty Stream.
func NewStream() *Stream {
	return &Stream{subs: make(map[chan Record]struct{})}
}

// Subscribe registers a new subscriber and returns its channel.
func (s *Stream) Subscribe() chan Record {
	ch := make(chan Record, 64)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Stream) Unsubscribe(ch chan Record) {
	s.mu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()
}

// publish delivers a record to every subscriber, dropping on full buffers.
func (s *Stream) publish(rec Record) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs {
		select {
		case ch <- rec:
		default:
		}
	}
}

// streamHandler wraps a slog.Handler and mirrors every handled record to the
// Stream. Level filtering is delegated to the wrapped handler so subscribers
// see exactly what the configured outputs see.
type streamHandler struct {
	inner  slog.Handler
	stream *Stream
}

func newStreamHandler(inner slog.Handler, stream *Stream) *streamHandler {
	return &streamHandler{inner: inner, stream: stream}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := make(map[string]any, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})
	h.stream.publish(Record{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
		Fields:  fields,
	})
	return h.inner.Handle(ctx, r)
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &streamHandler{inner: h.inner.WithAttrs(attrs), stream: h.stream}
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	return &streamHandler{inner: h.inner.WithGroup(name), stream: h.stream}
}
