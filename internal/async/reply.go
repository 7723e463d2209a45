// Package async provides the single-shot reply used by bid sources and
// choosers to hand one answer back to a waiting engine.
package async

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCancelled is returned by Await when the reply was cancelled before it
// was resolved.
var ErrCancelled = errors.New("reply cancelled")

// Reply carries at most one value from a producer to a single waiting consumer.
// Resolve and Cancel may be called from any goroutine; whichever happens first
// wins and every later call is a no-op.
type Reply[T any] struct {
	mu   sync.Mutex
	ch   chan T
	done bool
}

// NewReply returns an unresolved reply.
func NewReply[T any]() *Reply[T] {
	return &Reply[T]{ch: make(chan T, 1)}
}

// Resolved returns a reply that already holds v.
func Resolved[T any](v T) *Reply[T] {
	r := NewReply[T]()
	r.Resolve(v)
	return r
}

// C yields the value once, or is closed empty if the reply was cancelled.
func (r *Reply[T]) C() <-chan T { return r.ch }

// Resolve delivers v. It reports false when the reply was already resolved or
// cancelled, in which case v is discarded.
func (r *Reply[T]) Resolve(v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return false
	}
	r.done = true
	r.ch <- v
	close(r.ch)
	return true
}

// Cancel closes the reply without a value. It reports false if the reply had
// already completed.
func (r *Reply[T]) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return false
	}
	r.done = true
	close(r.ch)
	return true
}

// Pending reports whether the reply is still waiting for a value.
func (r *Reply[T]) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.done
}

// Await blocks until ch yields a value, ch is closed, or ctx ends.
func Await[T any](ctx context.Context, ch <-chan T) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case v, ok := <-ch:
		if !ok {
			return zero, ErrCancelled
		}
		return v, nil
	}
}

// Slot holds the single outstanding reply of a seat. Begin replaces any
// earlier request, cancelling it first.
type Slot[T any] struct {
	mu      sync.Mutex
	current *Reply[T]
}

// Begin cancels any outstanding reply and installs a fresh one.
func (s *Slot[T]) Begin() *Reply[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Cancel()
	}
	s.current = NewReply[T]()
	return s.current
}

// Resolve hands v to the outstanding reply. It reports false when nothing is
// pending, so late answers are dropped.
func (s *Slot[T]) Resolve(v T) bool {
	s.mu.Lock()
	r := s.current
	s.current = nil
	s.mu.Unlock()
	if r == nil {
		return false
	}
	return r.Resolve(v)
}

// Cancel discards the outstanding reply, if any.
func (s *Slot[T]) Cancel() {
	s.mu.Lock()
	r := s.current
	s.current = nil
	s.mu.Unlock()
	if r != nil {
		r.Cancel()
	}
}

// Pending reports whether a reply is outstanding.
func (s *Slot[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.Pending()
}

// Sleep waits for d or until ctx ends. A non-positive d only checks ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
