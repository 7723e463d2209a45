package bot

import "belote/internal/domain"

// Tuning weighs hand features when the good bot evaluates a contract.
type Tuning struct {
	TrumpWeights      map[domain.Rank]float64
	TrumpLengthWeight float64
	SideAceWeight     float64
	SideTenWeight     float64
	SunWeights        map[domain.Rank]float64

	TakeThreshold     float64
	SunThreshold      float64
	DoubleThreshold   float64
	RedoubleThreshold float64
}

// DefaultTuning takes on roughly J+9 of trump with a side ace.
var DefaultTuning = Tuning{
	TrumpWeights: map[domain.Rank]float64{
		domain.Jack: 3.0, domain.Nine: 2.2, domain.Ace: 1.4, domain.Ten: 1.0,
		domain.King: 0.6, domain.Queen: 0.5, domain.Eight: 0.3, domain.Seven: 0.3,
	},
	TrumpLengthWeight: 0.5,
	SideAceWeight:     1.0,
	SideTenWeight:     0.4,
	SunWeights: map[domain.Rank]float64{
		domain.Ace: 2.0, domain.Ten: 1.2, domain.King: 0.5,
	},
	TakeThreshold:     6.0,
	SunThreshold:      9.0,
	DoubleThreshold:   6.5,
	RedoubleThreshold: 9.0,
}

// Strength scores hand for a contract in suit; NoTrump scores it for Sun.
func (t Tuning) Strength(hand []domain.Card, suit domain.Suit) float64 {
	var s float64
	if suit == domain.NoTrump {
		for _, c := range hand {
			s += t.SunWeights[c.Rank]
		}
		return s
	}
	trumps := 0
	for _, c := range hand {
		switch {
		case c.Suit == suit:
			trumps++
			s += t.TrumpWeights[c.Rank]
		case c.Rank == domain.Ace:
			s += t.SideAceWeight
		case c.Rank == domain.Ten:
			s += t.SideTenWeight
		}
	}
	return s + float64(trumps)*t.TrumpLengthWeight
}

func (t Tuning) threshold(suit domain.Suit) float64 {
	if suit == domain.NoTrump {
		return t.SunThreshold
	}
	return t.TakeThreshold
}
