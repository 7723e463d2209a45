package app

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"belote/internal/bidding"
	"belote/internal/config"
	"belote/internal/domain"
	"belote/internal/play"
	"belote/internal/rules"
)

var (
	ErrMatchOver      = errors.New("match already over")
	ErrMatchRunning   = errors.New("match already running")
	ErrMatchStopped   = errors.New("match stopped")
	ErrTooManyRedeals = errors.New("too many consecutive all-pass redeals")
)

// Service creates matches and deals cards.
type Service struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand, logger *zap.Logger) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{rng: rng, logger: logger}
}

// Deal shuffles a fresh deck and distributes it 3-2-3 starting at the
// dealer's left.
func (s *Service) Deal(dealer domain.Seat) map[domain.Seat][]domain.Card {
	s.mu.Lock()
	deck := domain.ShuffleDeck(domain.NewDeck(), s.rng)
	s.mu.Unlock()

	hands := make(map[domain.Seat][]domain.Card, domain.NumSeats)
	idx := 0
	for _, n := range dealPackets {
		for _, seat := range domain.Order(dealer.Next()) {
			hands[seat] = append(hands[seat], deck[idx:idx+n]...)
			idx += n
		}
	}
	for _, h := range hands {
		domain.SortHand(h)
	}
	return hands
}

// Int63 draws from the service rng; used to seed per-match randomness.
func (s *Service) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int63()
}

// Seats wires the four seats of a match.
type Seats struct {
	Bidders  *bidding.Registry
	Choosers *play.Registry
	// UserIDs addresses private events; empty entries receive nothing.
	UserIDs [domain.NumSeats]string
}

// HandReceiver is implemented by bid sources that need their hand before the
// auction, such as bots.
type HandReceiver interface {
	ReceiveHand(hand []domain.Card)
}

// TrickObserver is implemented by choosers that track resolved tricks, such
// as bots counting cards.
type TrickObserver interface {
	ObserveTrick(t domain.Trick)
}

// MatchOption configures a Match.
type MatchOption func(*Match)

// WithSink routes match events to sink.
func WithSink(sink EventSink) MatchOption { return func(m *Match) { m.sink = sink } }

// WithMatchID overrides the generated match ID.
func WithMatchID(id string) MatchOption { return func(m *Match) { m.id = id } }

// WithTrumpSource skips the auction and fixes each round's trump from src.
func WithTrumpSource(src rules.TrumpSource) MatchOption { return func(m *Match) { m.trumpSource = src } }

// WithMatchLogger overrides the service logger for this match.
func WithMatchLogger(l *zap.Logger) MatchOption {
	return func(m *Match) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMatch builds a match for cfg. Bad configuration is reported here and no
// match is created.
func (s *Service) NewMatch(cfg config.GameConfig, seats Seats, opts ...MatchOption) (*Match, error) {
	profile, bidRules, err := BuildRules(cfg)
	if err != nil {
		s.logger.Error("NewMatch: invalid rules", zap.Error(err))
		return nil, err
	}
	if seats.Bidders == nil {
		seats.Bidders = bidding.NewRegistry()
	}
	if seats.Choosers == nil {
		seats.Choosers = play.NewRegistry()
	}
	return newMatch(s, cfg, profile, bidRules, seats, opts...)
}
