// Package events dispatches record mutation events in-process.
//
// Publish runs every handler on the caller's goroutine, in subscription order,
// and returns only after all of them have finished. A mutation that publishes
// an event therefore cannot be acknowledged before its handlers have run.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Kind identifies a mutation event.
type Kind string

const (
	// RecordWritten covers both create and update.
	RecordWritten Kind = "record_written"
	// RecordDeleted is emitted after a delete commits.
	RecordDeleted Kind = "record_deleted"
)

// Event describes a committed mutation.
type Event struct {
	Kind     Kind
	RecordID string
	At       time.Time
}

// Handler reacts to an event. A returned error fails the publishing mutation.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Bus is a synchronous, ordered event bus. The zero value is ready to use.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe appends h; handlers run in the order they were subscribed.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers e to every handler, even if an earlier one fails, and
// returns the joined handler errors.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if b == nil {
		return nil
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish %s %s: %w", e.Kind, e.RecordID, errors.Join(errs...))
	}
	return nil
}
