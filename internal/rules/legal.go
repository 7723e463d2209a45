package rules

import "belote/internal/domain"

// ClassicLegalMoves implements follow-suit, must-trump and must-overtrump.
//
// Flags.CanDiscardIfPartnerWinning has no effect on the result: a seat that is
// void in the lead suit and holds trumps plays a trump whether or not its
// partner is winning.
type ClassicLegalMoves struct {
	Ordering OrderingPolicy
	Flags    LegalFlags
}

func (p *ClassicLegalMoves) GetLegalMoves(st State, hand []domain.Card, seat domain.Seat) []domain.Card {
	return legalMoves(p.Ordering, p.Flags, st, hand, st.Trump)
}

// SunHokomLegalMoves matches the classic rule in Hokom and drops every trump
// constraint in Sun.
type SunHokomLegalMoves struct {
	Ordering OrderingPolicy
	Flags    LegalFlags
}

func (p *SunHokomLegalMoves) GetLegalMoves(st State, hand []domain.Card, seat domain.Seat) []domain.Card {
	flags := p.Flags
	if st.Trump == domain.NoTrump {
		flags.MustTrumpIfVoid = false
	}
	return legalMoves(p.Ordering, flags, st, hand, st.Trump)
}

func legalMoves(order OrderingPolicy, flags LegalFlags, st State, hand []domain.Card, trump domain.Suit) []domain.Card {
	if st.Trick.IsLeading() {
		return append([]domain.Card(nil), hand...)
	}

	follow := domain.FilterBySuit(hand, st.Trick.LeadSuit())
	if flags.MustFollowSuit && len(follow) > 0 {
		return follow
	}

	if flags.MustTrumpIfVoid && trump.IsReal() {
		trumps := domain.FilterBySuit(hand, trump)
		if len(trumps) > 0 {
			best, found := highestTrump(order, st.Trick, trump)
			if flags.MustOvertrump && found {
				if over := higherTrumps(order, trumps, best); len(over) > 0 {
					return over
				}
			}
			return trumps
		}
	}

	return append([]domain.Card(nil), hand...)
}

func highestTrump(order OrderingPolicy, t domain.Trick, trump domain.Suit) (int, bool) {
	best, found := -1, false
	for _, p := range t.Plays {
		if p.Card.Suit != trump {
			continue
		}
		if v := order.OrderValue(p.Card.Rank, true); v > best {
			best, found = v, true
		}
	}
	return best, found
}

func higherTrumps(order OrderingPolicy, trumps []domain.Card, than int) []domain.Card {
	var out []domain.Card
	for _, c := range trumps {
		if order.OrderValue(c.Rank, true) > than {
			out = append(out, c)
		}
	}
	return out
}
