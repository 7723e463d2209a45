package bot

import (
	"belote/internal/domain"
	"belote/internal/play"
	"belote/internal/rules"
)

func (v View) isTrump(c domain.Card, trump domain.Suit) bool {
	return trump.IsReal() && c.Suit == trump
}

func (v View) strength(c domain.Card, trump domain.Suit) int {
	return v.Ordering.OrderValue(c.Rank, v.isTrump(c, trump))
}

func (v View) points(c domain.Card, trump domain.Suit) int {
	return v.Scoring.PointsFor(c.Suit, c.Rank, trump)
}

// lowest returns the card minimising key, breaking ties by strength.
func (v View) lowest(cards []domain.Card, trump domain.Suit, key func(domain.Card) int) domain.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		kc, kb := key(c), key(best)
		if kc < kb || (kc == kb && v.strength(c, trump) < v.strength(best, trump)) {
			best = c
		}
	}
	return best
}

// standardCard is the baseline card choice shared by every built-in brain:
// lead low from the longest plain suit, feed the partner cheap cards while
// it holds the trick, otherwise win as cheaply as possible or dump the
// cheapest card.
func standardCard(v View, req play.ChooseRequest) domain.Card {
	legal := req.Legal
	st := req.State
	trump := st.Trump
	if len(legal) == 1 {
		return legal[0]
	}
	if st.Trick.IsLeading() {
		return leadLow(v, legal, trump)
	}

	winner, best, _ := rules.CurrentWinner(v.Ordering, st.Trick, trump)
	if winner == req.Seat.Partner() {
		return discard(v, legal, trump, true)
	}

	lead := st.Trick.LeadSuit()
	var winning []domain.Card
	for _, c := range legal {
		if rules.Beats(v.Ordering, c, best, lead, trump) {
			winning = append(winning, c)
		}
	}
	if len(winning) > 0 {
		return v.lowest(winning, trump, func(c domain.Card) int { return v.strength(c, trump) })
	}
	return discard(v, legal, trump, false)
}

// leadLow leads the lowest card of the longest non-trump suit held.
func leadLow(v View, legal []domain.Card, trump domain.Suit) domain.Card {
	counts := domain.CountBySuit(legal)
	suit, longest := domain.NoTrump, 0
	for _, s := range domain.Suits {
		if s == trump {
			continue
		}
		if counts[s] > longest {
			suit, longest = s, counts[s]
		}
	}
	pool := legal
	if longest > 0 {
		pool = domain.FilterBySuit(legal, suit)
	}
	return v.lowest(pool, trump, func(c domain.Card) int { return v.strength(c, trump) })
}

// discard gives away the fewest points. With protect set, tens and aces are
// kept back while anything else is playable.
func discard(v View, legal []domain.Card, trump domain.Suit, protect bool) domain.Card {
	return v.lowest(legal, trump, func(c domain.Card) int {
		k := v.points(c, trump)
		if protect && !v.isTrump(c, trump) && (c.Rank == domain.Ten || c.Rank == domain.Ace) {
			k += 100
		}
		if v.isTrump(c, trump) {
			k += 50
		}
		return k
	})
}
