package bot

import (
	"math/rand"
	"sync"

	"belote/internal/bidding"
	"belote/internal/domain"
	"belote/internal/play"
)

// EasyBot takes with a fixed probability and plays the standard heuristic.
type EasyBot struct {
	TakeChance float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEasyBot returns an EasyBot drawing from rng.
func NewEasyBot(takeChance float64, rng *rand.Rand) *EasyBot {
	return &EasyBot{TakeChance: takeChance, rng: rng}
}

func (b *EasyBot) roll() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Float64()
}

// ChooseBid picks the first allowed take when the roll succeeds. It never
// doubles.
func (b *EasyBot) ChooseBid(_ View, req bidding.BidRequest) domain.Bid {
	take, ok := firstTake(req.Allowed)
	if !ok || b.roll() >= b.TakeChance {
		return domain.Pass()
	}
	return take
}

func (b *EasyBot) ChooseCard(v View, req play.ChooseRequest) domain.Card {
	return standardCard(v, req)
}

func firstTake(allowed []domain.Bid) (domain.Bid, bool) {
	for _, b := range allowed {
		if b.IsTake() {
			return b, true
		}
	}
	return domain.Pass(), false
}
