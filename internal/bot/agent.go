package bot

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"belote/internal/async"
	"belote/internal/bidding"
	"belote/internal/bot/brain"
	"belote/internal/domain"
	"belote/internal/play"
	"belote/internal/rules"
)

// Agent represents an autonomous bot player. It serves a seat as both bid
// source and chooser and answers every request immediately.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain

	ordering rules.OrderingPolicy
	scoring  rules.ScoringPolicy
	logger   *zap.Logger

	mu     sync.Mutex
	hand   []domain.Card
	memory *brain.GameMemory
}

// NewAgent binds a brain to the ordering and point tables of profile.
func NewAgent(id, name string, strategy Brain, profile rules.Profile, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		ID:       id,
		Name:     name,
		Strategy: strategy,
		ordering: profile.Ordering,
		scoring:  profile.Scoring,
		logger:   logger.With(zap.String("bot", id)),
		memory:   brain.NewMemory(),
	}
}

// ReceiveHand starts a new round with the dealt hand.
func (a *Agent) ReceiveHand(hand []domain.Card) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hand = slices.Clone(hand)
	a.memory.Reset()
	a.memory.UpdateHand(hand)
}

// ObserveTrick records a resolved trick in the card memory.
func (a *Agent) ObserveTrick(t domain.Trick) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.memory.RecordTrick(t)
}

func (a *Agent) view() View {
	return View{Hand: slices.Clone(a.hand), Memory: a.memory, Ordering: a.ordering, Scoring: a.scoring}
}

// BeginBid implements bidding.BidSource. A brain answer outside the allowed
// set becomes a pass.
func (a *Agent) BeginBid(_ context.Context, req bidding.BidRequest) <-chan domain.Bid {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.Strategy.ChooseBid(a.view(), req)
	if !b.IsPass() && !slices.Contains(req.Allowed, b) {
		a.logger.Debug("brain bid not allowed, passing", zap.Stringer("bid", b))
		b = domain.Pass()
	}
	return async.Resolved(b).C()
}

// BeginChoose implements play.Chooser. A brain answer outside the legal set
// becomes the first legal card.
func (a *Agent) BeginChoose(_ context.Context, req play.ChooseRequest) <-chan domain.Card {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.memory.UpdateHand(req.Hand)
	a.memory.RecordTrick(req.State.Trick)
	c := a.Strategy.ChooseCard(a.view(), req)
	if !domain.ContainsCard(req.Legal, c) && len(req.Legal) > 0 {
		a.logger.Debug("brain card not legal, using first legal", zap.Stringer("card", c))
		c = req.Legal[0]
	}
	return async.Resolved(c).C()
}

func (a *Agent) Cancel() {}

func (a *Agent) IsHuman() bool { return false }
