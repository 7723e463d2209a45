package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"belote/internal/bidding"
	"belote/internal/config"
	"belote/internal/domain"
	"belote/internal/play"
	"belote/internal/rules"
	"belote/internal/scoring"
)

// RoundOutcome describes one dealt round.
type RoundOutcome struct {
	RoundID  string
	Dealer   domain.Seat
	Contract domain.Contract
	Redealt  bool
	Result   play.Result
	Score    domain.MatchScore
}

// Match sequences rounds until a team reaches the target.
type Match struct {
	id          string
	cfg         config.GameConfig
	svc         *Service
	seats       Seats
	profile     rules.Profile
	bidder      *bidding.Engine
	player      *play.Engine
	scorer      *scoring.RoundScorer
	dealers     DealerPolicy
	sink        EventSink
	trumpSource rules.TrumpSource
	logger      *zap.Logger

	// round-local, touched only by the running goroutine
	roundIndex int
	trickIndex int

	mu      sync.Mutex
	score   domain.MatchScore
	dealer  domain.Seat
	running bool
	stopped bool
	cancel  context.CancelFunc
}

func newMatch(s *Service, cfg config.GameConfig, profile rules.Profile, bidRules bidding.Rules, seats Seats, opts ...MatchOption) (*Match, error) {
	m := &Match{
		id:      uuid.NewString(),
		cfg:     cfg,
		svc:     s,
		seats:   seats,
		profile: profile,
		scorer:  scoring.NewRoundScorer(profile.Scoring.LastTrickBonus()),
		dealers: dealerPolicyFor(cfg.DealerDirection),
		logger:  s.logger,
		score:   domain.MatchScore{Target: cfg.TargetPoints},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("match_id", m.id))

	var err error
	m.bidder, err = bidding.NewEngine(bidRules, seats.Bidders,
		bidding.WithLogger(m.logger),
		bidding.WithPacing(bidding.Pacing{
			AIThinkDelay:      config.Millis(cfg.AIThinkDelayMs),
			BetweenTurnsDelay: config.Millis(cfg.BetweenTurnsDelayMs),
		}),
		bidding.WithObserver(m.onBidding),
	)
	if err != nil {
		return nil, fmt.Errorf("bidding engine: %w", err)
	}
	m.player, err = play.NewEngine(profile, seats.Choosers, m.scorer,
		play.WithLogger(m.logger),
		play.WithPacing(play.Pacing{
			AIThinkDelay:    config.Millis(cfg.AIThinkDelayMs),
			AfterPlayDelay:  config.Millis(cfg.AfterPlayDelayMs),
			AfterTrickDelay: config.Millis(cfg.AfterTrickDelayMs),
		}),
		play.WithMaxIllegalAttempts(cfg.MaxIllegalAttempts),
		play.WithObserver(m.onPlay),
	)
	if err != nil {
		return nil, fmt.Errorf("play engine: %w", err)
	}
	return m, nil
}

// ID returns the match identifier.
func (m *Match) ID() string { return m.id }

// Score returns the cumulative match score.
func (m *Match) Score() domain.MatchScore {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

// Dealer returns the dealer of the current or next round.
func (m *Match) Dealer() domain.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dealer
}

// Winner reports the winning team once the match is over.
func (m *Match) Winner() (domain.Team, bool) {
	return Winner(m.Score(), m.cfg.WinByTwo)
}

// Auction returns the bidding engine's snapshot.
func (m *Match) Auction() bidding.Auction { return m.bidder.Snapshot() }

// Play returns the play engine's snapshot.
func (m *Match) Play() play.Snapshot { return m.player.Snapshot() }

// Stop cancels the running match. Pending bid and card requests are
// cancelled and Run returns ErrMatchStopped.
func (m *Match) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.cancel != nil {
		m.cancel()
	}
}

// Run plays rounds starting with firstDealer until a team wins, ctx ends or
// Stop is called.
func (m *Match) Run(ctx context.Context, firstDealer domain.Seat) (domain.Team, error) {
	ctx, err := m.begin(ctx, firstDealer)
	if err != nil {
		return domain.Us, err
	}
	defer m.end()

	m.publish(EventMatchStarted, MatchStartedPayload{Variant: m.cfg.Variant, Target: m.cfg.TargetPoints, Dealer: firstDealer}, nil)
	m.logger.Info("match started", zap.String("variant", m.cfg.Variant), zap.Int("target", m.cfg.TargetPoints))

	redeals := 0
	for {
		if team, over := m.Winner(); over {
			m.publish(EventMatchEnded, MatchEndedPayload{Winner: team, Score: m.Score()}, nil)
			m.logger.Info("match ended", zap.Stringer("winner", team))
			return team, nil
		}

		out, err := m.playRound(ctx, m.Dealer())
		if err != nil {
			return domain.Us, m.abort(err)
		}
		if out.Redealt {
			redeals++
			if redeals >= MaxConsecutiveRedeals {
				return domain.Us, m.abort(ErrTooManyRedeals)
			}
		} else {
			redeals = 0
		}

		m.mu.Lock()
		m.dealer = m.dealers.Next(m.dealer)
		m.mu.Unlock()
	}
}

// PlayRound deals and plays a single round with the current dealer, then
// advances the dealer. It is the building block of Run for callers that
// sequence rounds themselves.
func (m *Match) PlayRound(ctx context.Context) (RoundOutcome, error) {
	if _, over := m.Winner(); over {
		return RoundOutcome{}, ErrMatchOver
	}
	ctx, err := m.begin(ctx, m.Dealer())
	if err != nil {
		return RoundOutcome{}, err
	}
	defer m.end()

	out, err := m.playRound(ctx, m.Dealer())
	if err != nil {
		return RoundOutcome{}, m.abort(err)
	}
	m.mu.Lock()
	m.dealer = m.dealers.Next(m.dealer)
	m.mu.Unlock()
	return out, nil
}

func (m *Match) begin(ctx context.Context, dealer domain.Seat) (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil, ErrMatchRunning
	}
	if m.stopped {
		return nil, ErrMatchStopped
	}
	ctx, cancel := context.WithCancel(ctx)
	m.running, m.cancel, m.dealer = true, cancel, dealer
	return ctx, nil
}

func (m *Match) end() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	m.running, m.cancel = false, nil
}

func (m *Match) abort(err error) error {
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped && errors.Is(err, context.Canceled) {
		err = ErrMatchStopped
	}
	m.publish(EventMatchStopped, MatchStoppedPayload{Reason: err.Error(), Score: m.Score()}, nil)
	if errors.Is(err, ErrMatchStopped) || errors.Is(err, context.Canceled) {
		m.logger.Info("match stopped", zap.Error(err))
	} else {
		m.logger.Error("match halted", zap.Error(err))
	}
	return err
}

func (m *Match) playRound(ctx context.Context, dealer domain.Seat) (RoundOutcome, error) {
	m.roundIndex++
	out := RoundOutcome{RoundID: uuid.NewString(), Dealer: dealer}
	m.publish(EventRoundStarted, RoundStartedPayload{RoundID: out.RoundID, Round: m.roundIndex, Dealer: dealer}, nil)

	hands := m.svc.Deal(dealer)
	for _, seat := range domain.Seats {
		m.private(seat, EventHandDealt, HandDealtPayload{Seat: seat, Hand: hands[seat]})
		if src, ok := m.seats.Bidders.Get(seat); ok {
			if hr, ok := src.(HandReceiver); ok {
				hr.ReceiveHand(append([]domain.Card(nil), hands[seat]...))
			}
		}
	}

	contract, err := m.contract(ctx, dealer)
	if err != nil {
		return out, err
	}
	out.Contract = contract

	if contract.AllPassed() && m.cfg.AllPass == config.AllPassRedeal {
		out.Redealt = true
		out.Score = m.Score()
		m.publish(EventRedeal, RedealPayload{Dealer: dealer, NextDealer: m.dealers.Next(dealer)}, nil)
		m.logger.Info("all passed, redealing", zap.Stringer("dealer", dealer))
		return out, nil
	}
	m.publish(EventContractSet, ContractSetPayload{Contract: contract}, nil)

	m.trickIndex = 0
	res, err := m.player.PlayRound(ctx, play.Round{Dealer: dealer, Contract: contract, Hands: hands})
	if err != nil {
		return out, err
	}
	out.Result = res

	m.mu.Lock()
	m.score = m.score.Add(res.Score, contract.Factor())
	out.Score = m.score
	m.mu.Unlock()

	m.publish(EventRoundEnded, RoundEndedPayload{RoundID: out.RoundID, Contract: contract, Round: res.Score, Match: out.Score}, nil)
	m.logger.Info("round ended",
		zap.Int("round", m.roundIndex),
		zap.Int("us", res.Score.Us),
		zap.Int("them", res.Score.Them),
		zap.Int("match_us", out.Score.Us),
		zap.Int("match_them", out.Score.Them),
	)
	return out, nil
}

func (m *Match) contract(ctx context.Context, dealer domain.Seat) (domain.Contract, error) {
	if m.trumpSource != nil {
		return domain.Contract{Declarer: dealer.Next(), Trump: m.trumpSource.Pick(), Level: 1, Multiplier: 1}, nil
	}
	return m.bidder.Run(ctx, dealer)
}

func (m *Match) onBidding(ev bidding.Event) {
	switch ev.Kind {
	case bidding.EventTurn:
		m.publish(EventBiddingTurn, BiddingTurnPayload{Seat: ev.Seat, High: ev.Auction.High}, nil)
	case bidding.EventShown:
		m.private(ev.Seat, EventBiddingTurn, BiddingTurnPayload{Seat: ev.Seat, High: ev.Auction.High, Allowed: ev.Allowed})
	case bidding.EventBid:
		m.publish(EventBidPlaced, BidPlacedPayload{Seat: ev.Seat, Bid: ev.Bid, Accepted: ev.Accepted}, nil)
	}
}

func (m *Match) onPlay(ev play.Event) {
	switch ev.Kind {
	case play.EventCardPlayed:
		m.publish(EventCardPlayed, CardPlayedPayload{Seat: ev.Seat, Card: ev.Card, TrickIndex: m.trickIndex}, nil)
	case play.EventTrickResolved:
		o := ev.Outcome
		m.publish(EventTrickResolved, TrickResolvedPayload{TrickIndex: o.Index, Winner: o.Winner, Points: o.Points, Trick: o.Trick}, nil)
		m.trickIndex = o.Index + 1
		for _, seat := range domain.Seats {
			if c, ok := m.seats.Choosers.Get(seat); ok {
				if obs, ok := c.(TrickObserver); ok {
					obs.ObserveTrick(o.Trick)
				}
			}
		}
	}
}

func (m *Match) publish(kind EventKind, payload any, recipients []string) {
	if m.sink == nil {
		return
	}
	m.sink.Publish(Event{Kind: kind, MatchID: m.id, Payload: payload, Recipients: recipients})
}

// private publishes to the user seated at seat only. Unaddressed seats get
// nothing; hands are never broadcast.
func (m *Match) private(seat domain.Seat, kind EventKind, payload any) {
	if uid := m.seats.UserIDs[seat]; uid != "" {
		m.publish(kind, payload, []string{uid})
	}
}
