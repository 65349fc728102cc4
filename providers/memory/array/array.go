// Package array provides a concurrency-safe, slice-backed implementation of
// [memory.Provider]. It suits the common case of one transcript per request,
// built up and discarded within a single tool loop run.
package array

import (
	"context"
	"sync"

	"github.com/leofalp/webagent/providers/ai"
	"github.com/leofalp/webagent/providers/memory"
)

// ArrayMemory is a simple, concurrency-safe in-memory message store.
type ArrayMemory struct {
	mu       sync.RWMutex
	messages []ai.Message
}

// New returns a new, empty [ArrayMemory] ready for immediate use.
func New() *ArrayMemory {
	return &ArrayMemory{
		messages: []ai.Message{},
	}
}

var _ memory.Provider = (*ArrayMemory)(nil)

// AppendMessage stores a copy of message at the end of the transcript.
// It is a no-op when message is nil.
func (m *ArrayMemory) AppendMessage(_ context.Context, message *ai.Message) {
	if message == nil {
		return
	}
	m.mu.Lock()
	m.messages = append(m.messages, *message)
	m.mu.Unlock()
}

// AllMessages returns a copy of the transcript to avoid external mutation
// of internal state. The returned error is always nil.
func (m *ArrayMemory) AllMessages(_ context.Context) ([]ai.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ai.Message, len(m.messages))
	copy(out, m.messages)
	return out, nil
}

// Count returns the number of stored messages. The returned error is
// always nil.
func (m *ArrayMemory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	n := len(m.messages)
	m.mu.RUnlock()
	return n, nil
}

// Clear discards all stored messages. The returned error is always nil.
func (m *ArrayMemory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.messages = m.messages[:0]
	m.mu.Unlock()
	return nil
}
