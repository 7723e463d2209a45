package play

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"belote/internal/async"
	"belote/internal/domain"
	"belote/internal/rules"
	"belote/internal/scoring"
)

// pickChooser answers with pick(legal).
type pickChooser struct {
	mu       sync.Mutex
	pick     func(req ChooseRequest) domain.Card
	requests int
}

func (c *pickChooser) BeginChoose(_ context.Context, req ChooseRequest) <-chan domain.Card {
	c.mu.Lock()
	c.requests++
	c.mu.Unlock()
	return async.Resolved(c.pick(req)).C()
}
func (c *pickChooser) Cancel()       {}
func (c *pickChooser) IsHuman() bool { return false }

func firstLegal() *pickChooser {
	return &pickChooser{pick: func(req ChooseRequest) domain.Card { return req.Legal[0] }}
}

func randomLegal(rng *rand.Rand) *pickChooser {
	return &pickChooser{pick: func(req ChooseRequest) domain.Card { return req.Legal[rng.Intn(len(req.Legal))] }}
}

type stalledChooser struct {
	slot      async.Slot[domain.Card]
	cancelled chan struct{}
	once      sync.Once
}

func (c *stalledChooser) BeginChoose(context.Context, ChooseRequest) <-chan domain.Card {
	return c.slot.Begin().C()
}
func (c *stalledChooser) Cancel() {
	c.slot.Cancel()
	c.once.Do(func() { close(c.cancelled) })
}
func (c *stalledChooser) IsHuman() bool { return true }

type emptyLegalMoves struct{}

func (emptyLegalMoves) GetLegalMoves(rules.State, []domain.Card, domain.Seat) []domain.Card { return nil }

func deal(rng *rand.Rand) map[domain.Seat][]domain.Card {
	deck := domain.ShuffleDeck(domain.NewDeck(), rng)
	hands := make(map[domain.Seat][]domain.Card)
	for i, s := range domain.Seats {
		hands[s] = append([]domain.Card(nil), deck[i*domain.HandSize:(i+1)*domain.HandSize]...)
	}
	return hands
}

func newEngine(t *testing.T, profile rules.Profile, reg *Registry, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(profile, reg, scoring.NewRoundScorer(profile.Scoring.LastTrickBonus()), opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestClassicRoundDistributes162(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		reg := NewRegistry()
		for _, s := range domain.Seats {
			reg.Register(s, randomLegal(rng))
		}
		e := newEngine(t, rules.NewClassicProfile(rules.ClassicFlags(), 10), reg)
		contract := domain.Contract{Declarer: domain.West, Trump: domain.Suits[seed%4], Level: 1, Multiplier: 1}
		res, err := e.PlayRound(context.Background(), Round{Dealer: domain.Seat(seed % 4), Contract: contract, Hands: deal(rng)})
		if err != nil {
			t.Fatalf("seed %d: PlayRound: %v", seed, err)
		}
		if res.Score.Total() != domain.ClassicRoundTotal {
			t.Fatalf("seed %d: round total = %d", seed, res.Score.Total())
		}
		if len(res.Tricks) != TricksPerRound {
			t.Fatalf("seed %d: %d tricks", seed, len(res.Tricks))
		}
		seen := make(map[domain.Card]bool)
		for i, tr := range res.Tricks {
			if i > 0 && tr.Trick.Leader != res.Tricks[i-1].Winner {
				t.Fatalf("seed %d: trick %d led by %v, previous winner %v", seed, i, tr.Trick.Leader, res.Tricks[i-1].Winner)
			}
			for _, p := range tr.Trick.Plays {
				if seen[p.Card] {
					t.Fatalf("seed %d: %v played twice", seed, p.Card)
				}
				seen[p.Card] = true
			}
		}
		if len(seen) != domain.DeckSize {
			t.Fatalf("seed %d: %d cards played", seed, len(seen))
		}
	}
}

func TestFirstTrickLedByDealersLeft(t *testing.T) {
	reg := NewRegistry()
	for _, s := range domain.Seats {
		reg.Register(s, firstLegal())
	}
	e := newEngine(t, rules.NewClassicProfile(rules.ClassicFlags(), 10), reg)
	res, err := e.PlayRound(context.Background(), Round{
		Dealer:   domain.North,
		Contract: domain.Contract{Declarer: domain.North, Trump: domain.Hearts, Level: 1},
		Hands:    deal(rand.New(rand.NewSource(3))),
	})
	if err != nil {
		t.Fatalf("PlayRound: %v", err)
	}
	if res.Tricks[0].Trick.Leader != domain.East {
		t.Fatalf("first leader = %v, want east", res.Tricks[0].Trick.Leader)
	}
	snap := e.Snapshot()
	if snap.Phase != PhaseRoundComplete || e.CurrentTrump() != domain.Hearts || e.TrickIndex() != TricksPerRound-1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestIllegalCardsFallBackToFirstLegal(t *testing.T) {
	reg := NewRegistry()
	cheat := &pickChooser{pick: func(req ChooseRequest) domain.Card {
		for _, c := range domain.NewDeck() {
			if !domain.ContainsCard(req.Legal, c) {
				return c
			}
		}
		return req.Legal[0]
	}}
	reg.Register(domain.South, cheat)
	for _, s := range []domain.Seat{domain.West, domain.North, domain.East} {
		reg.Register(s, firstLegal())
	}
	e := newEngine(t, rules.NewClassicProfile(rules.ClassicFlags(), 10), reg, WithMaxIllegalAttempts(2))
	res, err := e.PlayRound(context.Background(), Round{
		Dealer:   domain.East,
		Contract: domain.Contract{Declarer: domain.South, Trump: domain.Spades, Level: 1},
		Hands:    deal(rand.New(rand.NewSource(9))),
	})
	if err != nil {
		t.Fatalf("PlayRound: %v", err)
	}
	if res.Score.Total() != domain.ClassicRoundTotal {
		t.Fatalf("round total = %d", res.Score.Total())
	}
	// Every south turn is rejected twice before the engine falls back.
	if cheat.requests != 2*TricksPerRound {
		t.Fatalf("unexpected request count %d", cheat.requests)
	}
}

func TestMissingChooserPlaysFirstLegal(t *testing.T) {
	reg := NewRegistry()
	reg.Register(domain.South, firstLegal())
	e := newEngine(t, rules.NewClassicProfile(rules.ClassicFlags(), 10), reg)
	var played int
	e.observer = func(ev Event) {
		if ev.Kind == EventCardPlayed {
			played++
		}
	}
	if _, err := e.PlayRound(context.Background(), Round{
		Dealer:   domain.East,
		Contract: domain.Contract{Declarer: domain.South, Trump: domain.Clubs, Level: 1},
		Hands:    deal(rand.New(rand.NewSource(1))),
	}); err != nil {
		t.Fatalf("PlayRound: %v", err)
	}
	if played != domain.DeckSize {
		t.Fatalf("played %d cards", played)
	}
}

func TestMissingHandRefusesToStart(t *testing.T) {
	chooser := firstLegal()
	reg := NewRegistry()
	reg.Register(domain.South, chooser)
	e := newEngine(t, rules.NewClassicProfile(rules.ClassicFlags(), 10), reg)
	hands := deal(rand.New(rand.NewSource(1)))
	delete(hands, domain.West)
	_, err := e.PlayRound(context.Background(), Round{Dealer: domain.East, Contract: domain.Contract{Trump: domain.Clubs, Level: 1}, Hands: hands})
	if !errors.Is(err, ErrMissingHand) {
		t.Fatalf("expected ErrMissingHand, got %v", err)
	}
	if chooser.requests != 0 {
		t.Fatalf("chooser asked before the round started")
	}
}

func TestEmptyLegalSetIsFatal(t *testing.T) {
	profile := rules.NewClassicProfile(rules.ClassicFlags(), 10)
	profile.LegalMoves = emptyLegalMoves{}
	e := newEngine(t, profile, NewRegistry())
	_, err := e.PlayRound(context.Background(), Round{Dealer: domain.East, Contract: domain.Contract{Trump: domain.Clubs, Level: 1}, Hands: deal(rand.New(rand.NewSource(1)))})
	if !errors.Is(err, ErrNoLegalMove) {
		t.Fatalf("expected ErrNoLegalMove, got %v", err)
	}
}

func TestCancelDuringChoice(t *testing.T) {
	stalled := &stalledChooser{cancelled: make(chan struct{})}
	reg := NewRegistry()
	for _, s := range domain.Seats {
		reg.Register(s, stalled)
	}
	e := newEngine(t, rules.NewClassicProfile(rules.ClassicFlags(), 10), reg)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := e.PlayRound(ctx, Round{Dealer: domain.East, Contract: domain.Contract{Trump: domain.Clubs, Level: 1}, Hands: deal(rand.New(rand.NewSource(2)))})
		errc <- err
	}()

	deadline := time.After(2 * time.Second)
	for !stalled.slot.Pending() {
		select {
		case <-deadline:
			t.Fatalf("engine never asked for a card")
		case <-time.After(time.Millisecond):
		}
	}
	if snap := e.Snapshot(); snap.Phase != PhaseTrickInProgress || snap.Seat != domain.South {
		t.Fatalf("unexpected snapshot while waiting: %+v", snap)
	}
	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("PlayRound() err = %v", err)
		}
	case <-deadline:
		t.Fatalf("PlayRound did not return")
	}
	<-stalled.cancelled
	if stalled.slot.Resolve(domain.Card{}) {
		t.Fatalf("late card should be discarded")
	}
}

func TestNewEngineRejectsBadProfile(t *testing.T) {
	profile := rules.NewClassicProfile(rules.ClassicFlags(), 10)
	profile.Scoring = nil
	if _, err := NewEngine(profile, nil, scoring.NewRoundScorer(10)); !errors.Is(err, rules.ErrMissingPolicy) {
		t.Fatalf("expected ErrMissingPolicy, got %v", err)
	}
	if _, err := NewEngine(rules.NewClassicProfile(rules.ClassicFlags(), 10), nil, nil); !errors.Is(err, ErrNoScorer) {
		t.Fatalf("expected ErrNoScorer, got %v", err)
	}
}

func FuzzRoundInvariants(f *testing.F) {
	for _, seed := range []int64{0, 1, 42, 1337} {
		f.Add(seed, uint8(0))
	}
	f.Fuzz(func(t *testing.T, seed int64, variant uint8) {
		rng := rand.New(rand.NewSource(seed))
		profile := rules.NewClassicProfile(rules.ClassicFlags(), 10)
		trump := domain.Suits[rng.Intn(4)]
		if variant%2 == 1 {
			profile = rules.NewSunHokomProfile(rules.SunHokomFlags(), 10, 1, 1)
			trump = domain.Suit(rng.Intn(5))
		}
		reg := NewRegistry()
		for _, s := range domain.Seats {
			reg.Register(s, randomLegal(rng))
		}
		e := newEngine(t, profile, reg)
		res, err := e.PlayRound(context.Background(), Round{Dealer: domain.Seat(rng.Intn(4)), Contract: domain.Contract{Trump: trump, Level: 1}, Hands: deal(rng)})
		if err != nil {
			t.Fatalf("PlayRound: %v", err)
		}
		want := domain.ClassicRoundTotal
		if trump == domain.NoTrump {
			want = 130
		}
		if res.Score.Total() != want {
			t.Fatalf("total = %d, want %d", res.Score.Total(), want)
		}
	})
}
