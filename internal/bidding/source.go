package bidding

import (
	"context"
	"sync"

	"belote/internal/domain"
)

// BidRequest is what a seat is asked to answer.
type BidRequest struct {
	Seat    domain.Seat
	High    domain.Bid
	Allowed []domain.Bid
	Auction Auction
}

// BidSource produces a seat's announcements. BeginBid must deliver at most one
// bid on the returned channel; a channel closed without a value means the
// request was cancelled. Cancel discards any outstanding request.
type BidSource interface {
	BeginBid(ctx context.Context, req BidRequest) <-chan domain.Bid
	Cancel()
	IsHuman() bool
}

// Registry maps seats to their bid sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.Seat]BidSource
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[domain.Seat]BidSource, domain.NumSeats)}
}

// Register installs src for seat, replacing any earlier source.
func (r *Registry) Register(seat domain.Seat, src BidSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[seat] = src
}

// Unregister removes the source of seat.
func (r *Registry) Unregister(seat domain.Seat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sources, seat)
}

// Get returns the source of seat.
func (r *Registry) Get(seat domain.Seat) (BidSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[seat]
	return src, ok
}

// CancelAll tells every registered source to drop pending requests.
func (r *Registry) CancelAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, src := range r.sources {
		src.Cancel()
	}
}
