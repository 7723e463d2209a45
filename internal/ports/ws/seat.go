package ws

import (
	"context"
	"errors"
	"slices"
	"sync"

	"belote/internal/async"
	"belote/internal/bidding"
	"belote/internal/domain"
	"belote/internal/play"
)

var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrBidNotAllowed = errors.New("bid not allowed")
	ErrIllegalCard   = errors.New("card not legal")
)

// Seat is a human seat answered over a websocket connection. It serves as
// both bid source and chooser.
type Seat struct {
	seat domain.Seat
	send func(ServerMessage) error

	bids  async.Slot[domain.Bid]
	cards async.Slot[domain.Card]

	mu      sync.Mutex
	bidReq  *bidding.BidRequest
	cardReq *play.ChooseRequest
}

// NewSeat returns a seat that prompts through send.
func NewSeat(seat domain.Seat, send func(ServerMessage) error) *Seat {
	return &Seat{seat: seat, send: send}
}

func (s *Seat) IsHuman() bool { return true }

func (s *Seat) BeginBid(_ context.Context, req bidding.BidRequest) <-chan domain.Bid {
	s.mu.Lock()
	s.bidReq = &req
	r := s.bids.Begin()
	s.mu.Unlock()

	if err := s.send(ServerMessage{Type: MsgBidRequest, Data: bidRequestView{High: req.High, Allowed: req.Allowed}}); err != nil {
		// Nobody can answer; let the engine fall back.
		s.Cancel()
	}
	return r.C()
}

func (s *Seat) BeginChoose(_ context.Context, req play.ChooseRequest) <-chan domain.Card {
	s.mu.Lock()
	s.cardReq = &req
	r := s.cards.Begin()
	s.mu.Unlock()

	view := cardRequestView{TrickIndex: req.State.TrickIndex, Hand: req.Hand, Legal: req.Legal, Attempt: req.Attempt}
	if err := s.send(ServerMessage{Type: MsgCardRequest, Data: view}); err != nil {
		s.Cancel()
	}
	return r.C()
}

func (s *Seat) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bidReq, s.cardReq = nil, nil
	s.bids.Cancel()
	s.cards.Cancel()
}

// ResolveBid answers the pending bid request.
func (s *Seat) ResolveBid(b domain.Bid) error {
	b = normalizeBid(b)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bidReq == nil {
		return ErrNotYourTurn
	}
	if !b.IsPass() && !slices.Contains(s.bidReq.Allowed, b) {
		return ErrBidNotAllowed
	}
	s.bidReq = nil
	if !s.bids.Resolve(b) {
		return ErrNotYourTurn
	}
	return nil
}

// ResolveCard answers the pending card request.
func (s *Seat) ResolveCard(c domain.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cardReq == nil {
		return ErrNotYourTurn
	}
	if !domain.ContainsCard(s.cardReq.Legal, c) {
		return ErrIllegalCard
	}
	s.cardReq = nil
	if !s.cards.Resolve(c) {
		return ErrNotYourTurn
	}
	return nil
}
