package domain

// ContainsCard reports whether the hand holds c.
func ContainsCard(hand []Card, c Card) bool {
	for _, h := range hand {
		if h == c {
			return true
		}
	}
	return false
}

// RemoveCard returns a copy of hand without the first occurrence of c.
func RemoveCard(hand []Card, c Card) []Card {
	updated := make([]Card, 0, len(hand))
	removed := false
	for _, h := range hand {
		if !removed && h == c {
			removed = true
			continue
		}
		updated = append(updated, h)
	}
	return updated
}

// FilterBySuit returns the cards of the given suit.
func FilterBySuit(hand []Card, s Suit) []Card {
	var out []Card
	for _, c := range hand {
		if c.Suit == s {
			out = append(out, c)
		}
	}
	return out
}

// HasSuit reports whether any card in hand is of suit s.
func HasSuit(hand []Card, s Suit) bool {
	for _, c := range hand {
		if c.Suit == s {
			return true
		}
	}
	return false
}

// CountBySuit returns how many cards of each real suit the hand holds.
func CountBySuit(hand []Card) map[Suit]int {
	out := make(map[Suit]int, 4)
	for _, c := range hand {
		out[c.Suit]++
	}
	return out
}
