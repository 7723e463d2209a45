// Package play drives the eight tricks of a round under an injected rules
// profile.
package play

import (
	"context"
	"sync"

	"belote/internal/domain"
	"belote/internal/rules"
)

// ChooseRequest is what a seat is asked to answer.
type ChooseRequest struct {
	Seat    domain.Seat
	State   rules.State
	Hand    []domain.Card
	Legal   []domain.Card
	Attempt int
}

// Chooser picks a seat's card. BeginChoose must deliver at most one card on
// the returned channel; a channel closed without a value means the request
// was cancelled. Cancel discards any outstanding request.
type Chooser interface {
	BeginChoose(ctx context.Context, req ChooseRequest) <-chan domain.Card
	Cancel()
	IsHuman() bool
}

// Registry maps seats to choosers.
type Registry struct {
	mu       sync.RWMutex
	choosers map[domain.Seat]Chooser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{choosers: make(map[domain.Seat]Chooser, domain.NumSeats)}
}

// Register installs c for seat.
func (r *Registry) Register(seat domain.Seat, c Chooser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.choosers[seat] = c
}

// Unregister removes seat's chooser.
func (r *Registry) Unregister(seat domain.Seat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.choosers, seat)
}

// Get returns seat's chooser.
func (r *Registry) Get(seat domain.Seat) (Chooser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.choosers[seat]
	return c, ok
}

// CancelAll tells every chooser to drop pending requests.
func (r *Registry) CancelAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.choosers {
		c.Cancel()
	}
}
