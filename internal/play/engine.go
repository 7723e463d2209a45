package play

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"belote/internal/async"
	"belote/internal/domain"
	"belote/internal/rules"
)

var (
	// ErrMissingHand is returned when a seat has no hand or a short one.
	ErrMissingHand = errors.New("round is missing a seat hand")
	// ErrNoLegalMove signals a legal-move policy that returned nothing for a
	// non-empty hand.
	ErrNoLegalMove = errors.New("no legal move for non-empty hand")
	// ErrNoScorer is returned by NewEngine without a scorer.
	ErrNoScorer = errors.New("play engine needs a scorer")
)

// Phase is the round state machine position.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseRoundStart      Phase = "round_start"
	PhaseTrickInProgress Phase = "trick_in_progress"
	PhaseTrickResolved   Phase = "trick_resolved"
	PhaseRoundComplete   Phase = "round_complete"
)

// TricksPerRound is the number of tricks in a full round.
const TricksPerRound = domain.HandSize

// Scorer receives resolved tricks. scoring.RoundScorer implements it.
type Scorer interface {
	Reset()
	AddTrick(team domain.Team, points int)
	SetLastTrickWinner(team domain.Team)
	Finalize() domain.RoundScore
}

// Round is the input of one round of play.
type Round struct {
	Dealer   domain.Seat
	Contract domain.Contract
	Hands    map[domain.Seat][]domain.Card
}

// TrickOutcome is one resolved trick.
type TrickOutcome struct {
	Index  int
	Trick  domain.Trick
	Winner domain.Seat
	Points int
}

// Result is the outcome of a completed round.
type Result struct {
	Contract domain.Contract
	Tricks   []TrickOutcome
	Score    domain.RoundScore
}

// Snapshot is a read-only view of the round for diagnostics.
type Snapshot struct {
	Phase      Phase
	TrickIndex int
	SeatIndex  int
	Seat       domain.Seat
	Trump      domain.Suit
	Contract   domain.Contract
	Trick      domain.Trick
}

// EventKind identifies play telemetry.
type EventKind string

const (
	EventCardPlayed    EventKind = "card_played"
	EventTrickResolved EventKind = "trick_resolved"
	EventRoundComplete EventKind = "round_complete"
)

// Event is one play telemetry record.
type Event struct {
	Kind    EventKind
	Seat    domain.Seat
	Card    domain.Card
	Outcome TrickOutcome
	Score   domain.RoundScore
}

// Pacing holds cosmetic delays.
type Pacing struct {
	AIThinkDelay    time.Duration
	AfterPlayDelay  time.Duration
	AfterTrickDelay time.Duration
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

// WithPacing sets delays.
func WithPacing(p Pacing) Option { return func(e *Engine) { e.pacing = p } }

// WithObserver receives play telemetry on the engine goroutine.
func WithObserver(fn func(Event)) Option { return func(e *Engine) { e.observer = fn } }

// WithMaxIllegalAttempts bounds how often a seat is re-asked after answering
// with a card outside the legal set.
func WithMaxIllegalAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// Engine plays rounds one at a time.
type Engine struct {
	profile     rules.Profile
	choosers    *Registry
	scorer      Scorer
	logger      *zap.Logger
	pacing      Pacing
	observer    func(Event)
	maxAttempts int

	mu   sync.RWMutex
	snap Snapshot
}

// NewEngine validates the profile and returns an engine.
func NewEngine(profile rules.Profile, choosers *Registry, scorer Scorer, opts ...Option) (*Engine, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if scorer == nil {
		return nil, ErrNoScorer
	}
	if choosers == nil {
		choosers = NewRegistry()
	}
	e := &Engine{
		profile:     profile,
		choosers:    choosers,
		scorer:      scorer,
		logger:      zap.NewNop(),
		maxAttempts: 3,
		snap:        Snapshot{Phase: PhaseIdle, Trump: domain.NoTrump},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Snapshot returns a copy of the current round position.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.snap
	s.Trick = s.Trick.Clone()
	return s
}

// CurrentTrump returns the trump of the running round.
func (e *Engine) CurrentTrump() domain.Suit { return e.Snapshot().Trump }

// TrickIndex returns the zero-based index of the current trick.
func (e *Engine) TrickIndex() int { return e.Snapshot().TrickIndex }

// PlayRound runs the eight tricks of r. Configuration problems are returned
// before any card is requested.
func (e *Engine) PlayRound(ctx context.Context, r Round) (Result, error) {
	hands, err := copyHands(r.Hands)
	if err != nil {
		e.logger.Error("refusing to start round", zap.Error(err))
		return Result{}, err
	}

	e.profile.Trump.Reset()
	if err := e.profile.Trump.Set(r.Contract.Trump); err != nil {
		return Result{}, err
	}
	trump := e.profile.Trump.Current()
	e.scorer.Reset()

	leader := r.Dealer.Next()
	e.update(func(s *Snapshot) {
		*s = Snapshot{Phase: PhaseRoundStart, Seat: leader, Trump: trump, Contract: r.Contract, Trick: domain.NewTrick(leader)}
	})

	res := Result{Contract: r.Contract, Tricks: make([]TrickOutcome, 0, TricksPerRound)}
	for idx := 0; idx < TricksPerRound; idx++ {
		trick := domain.NewTrick(leader)
		for i, seat := range domain.Order(leader) {
			e.update(func(s *Snapshot) {
				s.Phase, s.TrickIndex, s.SeatIndex, s.Seat, s.Trick = PhaseTrickInProgress, idx, i, seat, trick.Clone()
			})

			st := rules.State{Trump: trump, Contract: r.Contract, Trick: trick.Clone(), TrickIndex: idx, Seat: seat}
			c, err := e.turn(ctx, st, hands[seat])
			if err != nil {
				return Result{}, err
			}
			if err := trick.Add(seat, c); err != nil {
				return Result{}, fmt.Errorf("commit %v for %v: %w", c, seat, err)
			}
			hands[seat] = domain.RemoveCard(hands[seat], c)
			e.emit(Event{Kind: EventCardPlayed, Seat: seat, Card: c})

			if err := async.Sleep(ctx, e.pacing.AfterPlayDelay); err != nil {
				e.choosers.CancelAll()
				return Result{}, err
			}
		}

		winner, points, err := e.profile.Resolver.Resolve(trick, trump)
		if err != nil {
			return Result{}, fmt.Errorf("resolve trick %d: %w", idx, err)
		}
		e.scorer.AddTrick(winner.Team(), points)
		if idx == TricksPerRound-1 {
			e.scorer.SetLastTrickWinner(winner.Team())
		}
		out := TrickOutcome{Index: idx, Trick: trick, Winner: winner, Points: points}
		res.Tricks = append(res.Tricks, out)
		e.update(func(s *Snapshot) { s.Phase, s.Trick = PhaseTrickResolved, trick.Clone() })
		e.emit(Event{Kind: EventTrickResolved, Seat: winner, Outcome: out})
		e.logger.Debug("trick resolved", zap.Int("trick", idx), zap.Stringer("winner", winner), zap.Int("points", points))

		if err := async.Sleep(ctx, e.pacing.AfterTrickDelay); err != nil {
			e.choosers.CancelAll()
			return Result{}, err
		}
		leader = winner
	}

	res.Score = e.scorer.Finalize()
	e.update(func(s *Snapshot) { s.Phase, s.Trick = PhaseRoundComplete, domain.NewTrick(leader) })
	e.emit(Event{Kind: EventRoundComplete, Score: res.Score})
	return res, nil
}

// turn obtains one legal card for st.Seat.
func (e *Engine) turn(ctx context.Context, st rules.State, hand []domain.Card) (domain.Card, error) {
	seat := st.Seat
	legal := e.profile.LegalMoves.GetLegalMoves(st, hand, seat)
	if len(legal) == 0 {
		e.logger.Error("legal move policy returned nothing", zap.Stringer("seat", seat), zap.Int("hand", len(hand)))
		return domain.Card{}, fmt.Errorf("%w: seat %v trick %d", ErrNoLegalMove, seat, st.TrickIndex)
	}

	ch, ok := e.choosers.Get(seat)
	if !ok {
		e.logger.Warn("no chooser for seat, playing first legal card", zap.Stringer("seat", seat))
		return legal[0], nil
	}
	if !ch.IsHuman() {
		if err := async.Sleep(ctx, e.pacing.AIThinkDelay); err != nil {
			e.choosers.CancelAll()
			return domain.Card{}, err
		}
	}

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		req := ChooseRequest{
			Seat:    seat,
			State:   st,
			Hand:    append([]domain.Card(nil), hand...),
			Legal:   append([]domain.Card(nil), legal...),
			Attempt: attempt,
		}
		c, err := async.Await(ctx, ch.BeginChoose(ctx, req))
		if err != nil {
			if ctx.Err() != nil {
				e.choosers.CancelAll()
				return domain.Card{}, ctx.Err()
			}
			e.logger.Warn("chooser dropped request, playing first legal card", zap.Stringer("seat", seat))
			return legal[0], nil
		}
		if domain.ContainsCard(legal, c) {
			return c, nil
		}
		e.logger.Warn("rejected illegal card", zap.Stringer("seat", seat), zap.Stringer("card", c), zap.Int("attempt", attempt))
	}
	e.logger.Warn("too many illegal cards, playing first legal card", zap.Stringer("seat", seat))
	return legal[0], nil
}

func copyHands(in map[domain.Seat][]domain.Card) (map[domain.Seat][]domain.Card, error) {
	out := make(map[domain.Seat][]domain.Card, domain.NumSeats)
	for _, s := range domain.Seats {
		h, ok := in[s]
		if !ok || len(h) != domain.HandSize {
			return nil, fmt.Errorf("%w: %v has %d cards", ErrMissingHand, s, len(h))
		}
		out[s] = append([]domain.Card(nil), h...)
	}
	return out, nil
}

func (e *Engine) update(fn func(*Snapshot)) {
	e.mu.Lock()
	fn(&e.snap)
	e.mu.Unlock()
}

func (e *Engine) emit(ev Event) {
	if e.observer != nil {
		e.observer(ev)
	}
}
