package rules

import "belote/internal/domain"

// ClassicResolver picks the highest trump, or failing that the highest card of
// the lead suit, and sums trump-aware card points.
type ClassicResolver struct {
	Ordering OrderingPolicy
	Scoring  ScoringPolicy
}

func (r *ClassicResolver) Resolve(trick domain.Trick, trump domain.Suit) (domain.Seat, int, error) {
	if !trick.Complete() {
		return trick.Leader, 0, domain.ErrTrickNotReady
	}
	winner, points := resolve(r.Ordering, r.Scoring, trick, trump)
	return winner, points, nil
}

// SunHokomResolver behaves like the classic resolver in Hokom and compares the
// lead suit only in Sun.
type SunHokomResolver struct {
	Ordering OrderingPolicy
	Scoring  ScoringPolicy
}

func (r *SunHokomResolver) Resolve(trick domain.Trick, trump domain.Suit) (domain.Seat, int, error) {
	if !trick.Complete() {
		return trick.Leader, 0, domain.ErrTrickNotReady
	}
	if trump == domain.NoTrump {
		winner, points := resolveLeadSuit(r.Ordering, r.Scoring, trick)
		return winner, points, nil
	}
	winner, points := resolve(r.Ordering, r.Scoring, trick, trump)
	return winner, points, nil
}

func resolve(order OrderingPolicy, scoring ScoringPolicy, trick domain.Trick, trump domain.Suit) (domain.Seat, int) {
	lead := trick.LeadSuit()
	first := trick.Plays[0]
	winner, best := first.Seat, first.Card
	bestIsTrump := best.Suit == trump
	points := scoring.PointsFor(best.Suit, best.Rank, trump)

	for _, p := range trick.Plays[1:] {
		c := p.Card
		points += scoring.PointsFor(c.Suit, c.Rank, trump)
		isTrump := c.Suit == trump
		switch {
		case isTrump && !bestIsTrump:
			winner, best, bestIsTrump = p.Seat, c, true
		case isTrump && bestIsTrump:
			if order.OrderValue(c.Rank, true) > order.OrderValue(best.Rank, true) {
				winner, best = p.Seat, c
			}
		case !isTrump && !bestIsTrump:
			if c.Suit == lead && order.OrderValue(c.Rank, false) > order.OrderValue(best.Rank, false) {
				winner, best = p.Seat, c
			}
		}
	}
	return winner, points
}

func resolveLeadSuit(order OrderingPolicy, scoring ScoringPolicy, trick domain.Trick) (domain.Seat, int) {
	lead := trick.LeadSuit()
	winner, best := trick.Plays[0].Seat, trick.Plays[0].Card
	points := 0
	for i, p := range trick.Plays {
		c := p.Card
		points += scoring.PointsFor(c.Suit, c.Rank, domain.NoTrump)
		if i > 0 && c.Suit == lead && order.OrderValue(c.Rank, false) > order.OrderValue(best.Rank, false) {
			winner, best = p.Seat, c
		}
	}
	return winner, points
}

// CurrentWinner returns the seat winning a partial trick so far. It is used by
// bots to judge whether their partner holds the trick.
func CurrentWinner(order OrderingPolicy, trick domain.Trick, trump domain.Suit) (domain.Seat, domain.Card, bool) {
	if trick.IsLeading() {
		return trick.Leader, domain.Card{}, false
	}
	lead := trick.LeadSuit()
	winner, best := trick.Plays[0].Seat, trick.Plays[0].Card
	for _, p := range trick.Plays[1:] {
		if beats(order, p.Card, best, lead, trump) {
			winner, best = p.Seat, p.Card
		}
	}
	return winner, best, true
}

// Beats reports whether c would take the trick from the current best card.
func Beats(order OrderingPolicy, c, best domain.Card, lead, trump domain.Suit) bool {
	return beats(order, c, best, lead, trump)
}

func beats(order OrderingPolicy, c, best domain.Card, lead, trump domain.Suit) bool {
	cTrump := trump.IsReal() && c.Suit == trump
	bTrump := trump.IsReal() && best.Suit == trump
	switch {
	case cTrump && !bTrump:
		return true
	case cTrump && bTrump:
		return order.OrderValue(c.Rank, true) > order.OrderValue(best.Rank, true)
	case !cTrump && !bTrump:
		return c.Suit == lead && best.Suit == lead && order.OrderValue(c.Rank, false) > order.OrderValue(best.Rank, false)
	}
	return false
}
