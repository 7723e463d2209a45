package rules

import (
	"math/rand"
	"sync"

	"belote/internal/domain"
)

// RoundTrump holds the trump of the running round. It is set once per round
// and reset between rounds.
type RoundTrump struct {
	mu    sync.RWMutex
	suit  domain.Suit
	isSet bool
}

// Current returns the trump, or NoTrump before it is set.
func (t *RoundTrump) Current() domain.Suit {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.isSet {
		return domain.NoTrump
	}
	return t.suit
}

// IsSet reports whether the round's trump has been fixed.
func (t *RoundTrump) IsSet() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isSet
}

// Set fixes the trump for the round.
func (t *RoundTrump) Set(s domain.Suit) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isSet {
		return ErrTrumpAlreadySet
	}
	t.suit, t.isSet = s, true
	return nil
}

// Reset clears the trump ahead of a new round.
func (t *RoundTrump) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suit, t.isSet = domain.NoTrump, false
}

// TrumpSource picks a trump without an auction, for drills and self-play.
type TrumpSource interface {
	Pick() domain.Suit
}

// PresetTrump always yields the same suit.
type PresetTrump domain.Suit

func (p PresetTrump) Pick() domain.Suit { return domain.Suit(p) }

// RandomTrump picks one of the four suits, or NoTrump when AllowSun is set.
type RandomTrump struct {
	Rng      *rand.Rand
	AllowSun bool
}

func (r RandomTrump) Pick() domain.Suit {
	n := len(domain.Suits)
	if r.AllowSun {
		n++
	}
	return domain.Suit(r.Rng.Intn(n))
}
