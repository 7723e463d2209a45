package rules

import "belote/internal/domain"

// PointTable holds card points by rank.
type PointTable map[domain.Rank]int

var (
	trumpPoints = PointTable{
		domain.Jack: 20, domain.Nine: 14, domain.Ace: 11, domain.Ten: 10,
		domain.King: 4, domain.Queen: 3, domain.Eight: 0, domain.Seven: 0,
	}
	plainPoints = PointTable{
		domain.Ace: 11, domain.Ten: 10, domain.King: 4, domain.Queen: 3,
		domain.Jack: 2, domain.Nine: 0, domain.Eight: 0, domain.Seven: 0,
	}
)

// ClassicScoring is the classic Belote point table.
type ClassicScoring struct {
	AtTrump  PointTable
	OffTrump PointTable
	Bonus    int
}

// NewClassicScoring returns the standard table with the given last-trick bonus.
func NewClassicScoring(lastTrickBonus int) *ClassicScoring {
	return &ClassicScoring{AtTrump: trumpPoints, OffTrump: plainPoints, Bonus: lastTrickBonus}
}

func (s *ClassicScoring) PointsFor(suit domain.Suit, r domain.Rank, trump domain.Suit) int {
	if suit == trump {
		return s.AtTrump[r]
	}
	return s.OffTrump[r]
}

func (s *ClassicScoring) LastTrickBonus() int { return s.Bonus }

// SunHokomScoring scales card points by the Sun multiplier when the contract
// has no trump and by the Hokom multiplier otherwise. The last-trick bonus is
// not scaled.
type SunHokomScoring struct {
	ClassicScoring
	SunMultiplier   int
	HokomMultiplier int
}

// NewSunHokomScoring returns the Baloot table. Multipliers below 1 become 1.
func NewSunHokomScoring(lastTrickBonus, sunMultiplier, hokomMultiplier int) *SunHokomScoring {
	return &SunHokomScoring{
		ClassicScoring:  *NewClassicScoring(lastTrickBonus),
		SunMultiplier:   max(1, sunMultiplier),
		HokomMultiplier: max(1, hokomMultiplier),
	}
}

func (s *SunHokomScoring) PointsFor(suit domain.Suit, r domain.Rank, trump domain.Suit) int {
	if trump == domain.NoTrump {
		return s.SunMultiplier * s.OffTrump[r]
	}
	return s.HokomMultiplier * s.ClassicScoring.PointsFor(suit, r, trump)
}
