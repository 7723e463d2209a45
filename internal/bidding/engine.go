package bidding

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"belote/internal/async"
	"belote/internal/domain"
)

// EventKind identifies auction telemetry.
type EventKind string

const (
	EventShown    EventKind = "bidding_shown"
	EventTurn     EventKind = "bidding_turn"
	EventBid      EventKind = "bid_placed"
	EventFinished EventKind = "bidding_finished"
)

// Event is one auction telemetry record.
type Event struct {
	Kind     EventKind
	Seat     domain.Seat
	Bid      domain.Bid
	Accepted bool
	Allowed  []domain.Bid
	Auction  Auction
	Contract domain.Contract
}

// Pacing holds cosmetic delays between auction turns.
type Pacing struct {
	AIThinkDelay      time.Duration
	BetweenTurnsDelay time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPacing sets turn delays.
func WithPacing(p Pacing) Option { return func(e *Engine) { e.pacing = p } }

// WithObserver receives auction telemetry on the engine goroutine.
func WithObserver(fn func(Event)) Option { return func(e *Engine) { e.observer = fn } }

// Engine runs one auction at a time.
type Engine struct {
	rules    Rules
	sources  *Registry
	logger   *zap.Logger
	pacing   Pacing
	observer func(Event)

	mu   sync.RWMutex
	snap Auction
}

// NewEngine validates rules and returns an engine bound to sources.
func NewEngine(rules Rules, sources *Registry, opts ...Option) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if sources == nil {
		return nil, ErrNoSources
	}
	e := &Engine{rules: rules, sources: sources, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Snapshot returns a copy of the running (or last) auction.
func (e *Engine) Snapshot() Auction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Run conducts the auction for dealer and returns the contract. It returns
// ctx.Err() after cancelling all pending source requests if ctx ends first.
func (e *Engine) Run(ctx context.Context, dealer domain.Seat) (domain.Contract, error) {
	a := Auction{Dealer: dealer, High: domain.Pass(), Multiplier: 1}
	e.publish(a)

	for {
		seat := e.rules.Order.SeatAt(dealer, a.Turn)
		a.Seat = seat
		e.publish(a)

		allowed := e.rules.Evaluator.Allowed(seat, a)
		e.emit(Event{Kind: EventShown, Seat: seat, Allowed: allowed, Auction: a})
		e.emit(Event{Kind: EventTurn, Seat: seat, Auction: a})

		picked, err := e.ask(ctx, seat, a, allowed)
		if err != nil {
			return domain.Contract{}, err
		}

		valid := e.rules.Validator.IsValid(seat, picked, a)
		accepted := valid && (picked.IsPass() || picked.IsModifier() || a.High.IsPass() || e.rules.Comparator.IsBetter(picked, a.High))
		if !accepted {
			if !picked.IsPass() {
				e.logger.Debug("bid downgraded to pass", zap.Stringer("seat", seat), zap.Stringer("bid", picked), zap.Bool("valid", valid))
			}
			picked = domain.Pass()
		}
		a = apply(a, seat, picked, e.rules.Comparator)
		e.emit(Event{Kind: EventBid, Seat: seat, Bid: picked, Accepted: !picked.IsPass(), Auction: a})

		if c, done := finished(a); done {
			a.Done = true
			e.publish(a)
			e.emit(Event{Kind: EventFinished, Auction: a, Contract: c})
			e.logger.Info("auction finished", zap.Stringer("contract", c), zap.Int("turns", a.Turn))
			return c, nil
		}
		e.publish(a)

		if err := async.Sleep(ctx, e.pacing.BetweenTurnsDelay); err != nil {
			e.sources.CancelAll()
			return domain.Contract{}, err
		}
	}
}

func (e *Engine) ask(ctx context.Context, seat domain.Seat, a Auction, allowed []domain.Bid) (domain.Bid, error) {
	src, ok := e.sources.Get(seat)
	if !ok {
		e.logger.Warn("no bid source for seat, forcing pass", zap.Stringer("seat", seat))
		return domain.Pass(), nil
	}
	if !src.IsHuman() {
		if err := async.Sleep(ctx, e.pacing.AIThinkDelay); err != nil {
			e.sources.CancelAll()
			return domain.Bid{}, err
		}
	}

	req := BidRequest{Seat: seat, High: a.High, Allowed: allowed, Auction: a}
	bid, err := async.Await(ctx, src.BeginBid(ctx, req))
	switch {
	case err == nil:
		return bid, nil
	case errors.Is(err, async.ErrCancelled) && ctx.Err() == nil:
		e.logger.Warn("bid source dropped request, forcing pass", zap.Stringer("seat", seat))
		return domain.Pass(), nil
	default:
		e.sources.CancelAll()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Bid{}, ctxErr
		}
		return domain.Bid{}, err
	}
}

// apply folds an accepted (or downgraded) bid into the auction.
func apply(a Auction, seat domain.Seat, b domain.Bid, cmp ComparatorPolicy) Auction {
	a.Turn++
	switch {
	case b.IsPass():
		a.Passes++
	case b.IsModifier():
		if b.Kind == domain.BidDouble {
			a.Multiplier = 2
		} else {
			a.Multiplier = 4
		}
		a.Passes = 0
	default:
		if a.High.IsPass() || cmp.IsBetter(b, a.High) {
			a.High = b
			a.LastBidder = seat
			a.HasBidder = true
			a.Multiplier = 1
		}
		a.Passes = 0
	}
	return a
}

func finished(a Auction) (domain.Contract, bool) {
	if !a.HasBidder && a.Passes >= domain.NumSeats {
		return domain.Contract{Declarer: a.Dealer, Trump: domain.NoTrump, Level: 0, Multiplier: 1}, true
	}
	if a.HasBidder && a.Passes >= domain.NumSeats-1 {
		return domain.Contract{Declarer: a.LastBidder, Trump: a.High.Suit, Level: a.High.Level, Multiplier: a.Multiplier}, true
	}
	return domain.Contract{}, false
}

func (e *Engine) publish(a Auction) {
	e.mu.Lock()
	e.snap = a
	e.mu.Unlock()
}

func (e *Engine) emit(ev Event) {
	if e.observer != nil {
		e.observer(ev)
	}
}
