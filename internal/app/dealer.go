package app

import (
	"belote/internal/config"
	"belote/internal/domain"
)

// DealerPolicy chooses the next dealer.
type DealerPolicy interface {
	Next(dealer domain.Seat) domain.Seat
}

// Clockwise passes the deal to the left.
type Clockwise struct{}

func (Clockwise) Next(d domain.Seat) domain.Seat { return d.Next() }

// CounterClockwise passes the deal to the right.
type CounterClockwise struct{}

func (CounterClockwise) Next(d domain.Seat) domain.Seat { return d.Prev() }

func dealerPolicyFor(direction string) DealerPolicy {
	if direction == config.DealerCounterClockwise {
		return CounterClockwise{}
	}
	return Clockwise{}
}

// dealPackets is the 3-2-3 distribution of a Belote deal.
var dealPackets = []int{3, 2, 3}

// Winner applies the win condition. The team at or above target with the
// higher total wins; with winByTwo it must also lead by at least two points.
func Winner(score domain.MatchScore, winByTwo bool) (domain.Team, bool) {
	if score.Us < score.Target && score.Them < score.Target {
		return domain.Us, false
	}
	diff := score.Us - score.Them
	if diff == 0 {
		return domain.Us, false
	}
	if winByTwo && (diff < 2 && diff > -2) {
		return domain.Us, false
	}
	if diff > 0 {
		return domain.Us, true
	}
	return domain.Them, true
}
