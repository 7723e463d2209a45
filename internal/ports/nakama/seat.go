package nakama

import (
	"context"
	"errors"
	"slices"
	"sync"

	"belote/internal/app"
	"belote/internal/async"
	"belote/internal/bidding"
	"belote/internal/bot"
	"belote/internal/domain"
	"belote/internal/play"
)

var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrBidNotAllowed = errors.New("bid not allowed")
	ErrIllegalCard   = errors.New("card not legal")
)

// outMsg is a server message queued by the match goroutine for MatchLoop.
type outMsg struct {
	op         int64
	fields     map[string]any
	recipients []string // nil means broadcast
}

// outbox hands messages from the match goroutine to the Nakama loop, which
// owns the dispatcher.
type outbox struct {
	ch   chan outMsg
	stop chan struct{}
	once sync.Once
}

func newOutbox(size int) *outbox {
	return &outbox{ch: make(chan outMsg, size), stop: make(chan struct{})}
}

// Publish implements app.EventSink.
func (o *outbox) Publish(ev app.Event) {
	op, fields, ok := eventMessage(ev)
	if !ok {
		return
	}
	o.send(outMsg{op: op, fields: fields, recipients: ev.Recipients})
}

func (o *outbox) send(m outMsg) {
	select {
	case o.ch <- m:
	case <-o.stop:
	}
}

// drain hands every queued message to fn without blocking.
func (o *outbox) drain(fn func(outMsg)) {
	for {
		select {
		case m := <-o.ch:
			fn(m)
		default:
			return
		}
	}
}

func (o *outbox) close() { o.once.Do(func() { close(o.stop) }) }

// netSeat serves a human seat. Requests wait for a client message; while the
// player is away a shadow agent answers instead.
type netSeat struct {
	seat   domain.Seat
	userID string
	shadow *bot.Agent
	out    *outbox

	bids  async.Slot[domain.Bid]
	cards async.Slot[domain.Card]

	mu        sync.Mutex
	autopilot bool
	bidReq    *bidding.BidRequest
	cardReq   *play.ChooseRequest
}

func newNetSeat(seat domain.Seat, userID string, shadow *bot.Agent, out *outbox) *netSeat {
	return &netSeat{seat: seat, userID: userID, shadow: shadow, out: out}
}

func (s *netSeat) ReceiveHand(hand []domain.Card) { s.shadow.ReceiveHand(hand) }

func (s *netSeat) ObserveTrick(t domain.Trick) { s.shadow.ObserveTrick(t) }

func (s *netSeat) IsHuman() bool { return true }

// BeginBid implements bidding.BidSource and prompts the client with its
// allowed bids.
func (s *netSeat) BeginBid(ctx context.Context, req bidding.BidRequest) <-chan domain.Bid {
	s.mu.Lock()
	if s.autopilot {
		s.mu.Unlock()
		return s.shadow.BeginBid(ctx, req)
	}
	s.bidReq = &req
	r := s.bids.Begin()
	s.mu.Unlock()

	s.out.send(outMsg{
		op: OpBidRequest,
		fields: map[string]any{
			"seat":    s.seat.String(),
			"high":    bidValue(req.High),
			"allowed": bidsValue(req.Allowed),
		},
		recipients: []string{s.userID},
	})
	return r.C()
}

// BeginChoose implements play.Chooser and prompts the client with its legal
// cards.
func (s *netSeat) BeginChoose(ctx context.Context, req play.ChooseRequest) <-chan domain.Card {
	s.mu.Lock()
	if s.autopilot {
		s.mu.Unlock()
		return s.shadow.BeginChoose(ctx, req)
	}
	s.cardReq = &req
	r := s.cards.Begin()
	s.mu.Unlock()

	// Sent unlocked: the loop may be blocked on mu while the outbox is full.
	s.out.send(outMsg{
		op: OpCardRequest,
		fields: map[string]any{
			"seat":        s.seat.String(),
			"trick_index": req.State.TrickIndex,
			"legal":       cardsValue(req.Legal),
			"attempt":     req.Attempt,
		},
		recipients: []string{s.userID},
	})
	return r.C()
}

// Cancel implements both source interfaces.
func (s *netSeat) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bidReq, s.cardReq = nil, nil
	s.bids.Cancel()
	s.cards.Cancel()
}

// ResolveBid answers the pending bid request with b.
func (s *netSeat) ResolveBid(b domain.Bid) error {
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

// ResolveCard answers the pending card request with c.
func (s *netSeat) ResolveCard(c domain.Card) error {
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

// SetAutopilot hands the seat to the shadow agent, answering any pending
// request on the player's behalf, or gives it back.
func (s *netSeat) SetAutopilot(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autopilot = on
	if !on {
		return
	}
	ctx := context.Background()
	if s.bidReq != nil {
		b := <-s.shadow.BeginBid(ctx, *s.bidReq)
		s.bidReq = nil
		s.bids.Resolve(b)
	}
	if s.cardReq != nil {
		c := <-s.shadow.BeginChoose(ctx, *s.cardReq)
		s.cardReq = nil
		s.cards.Resolve(c)
	}
}

// Autopilot reports whether the shadow agent is playing the seat.
func (s *netSeat) Autopilot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autopilot
}
