package events

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus delivering events synchronously to every
// subscriber in subscription order. Handlers run on the publisher's
// goroutine; a slow handler slows publication, matching at-least-once
// in-memory semantics.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers []func(Event)
}

// NewMemoryBus returns an empty in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Subscribe registers a handler for every subsequently published event.
func (b *MemoryBus) Subscribe(handler func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish delivers the event to all current subscribers.
func (b *MemoryBus) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	handlers := make([]func(Event), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
	return nil
}
