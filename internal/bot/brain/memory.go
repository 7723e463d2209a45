package brain

import (
	"belote/internal/domain"
	"belote/internal/rules"
)

// CardStatus represents what the bot knows about a specific card.
type CardStatus int

const (
	StatusUnknown CardStatus = iota // We don't know who has it
	StatusMine                      // In the bot's hand
	StatusPlayed                    // Already taken in a trick
)

// GameMemory stores the bot's private view of the round.
type GameMemory struct {
	// DeckStatus tracks all 32 cards. Index = Suit*8 + Rank.
	DeckStatus [domain.DeckSize]CardStatus
	// Seats tracks what each other seat has revealed.
	Seats map[domain.Seat]*SeatProfile
}

// NewMemory initializes a fresh memory state.
func NewMemory() *GameMemory {
	return &GameMemory{Seats: make(map[domain.Seat]*SeatProfile)}
}

// Reset clears the memory for a new round.
func (m *GameMemory) Reset() {
	for i := range m.DeckStatus {
		m.DeckStatus[i] = StatusUnknown
	}
	for seat := range m.Seats {
		m.Seats[seat] = NewSeatProfile(seat)
	}
}

// MarkMine records the cards currently in the bot's hand.
func (m *GameMemory) MarkMine(cards []domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusMine
	}
}

// MarkPlayed records cards that have been played on the table.
func (m *GameMemory) MarkPlayed(cards []domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusPlayed
	}
}

// UpdateHand marks hand as Mine and reverts stale Mine cards to Unknown.
func (m *GameMemory) UpdateHand(hand []domain.Card) {
	for i, status := range m.DeckStatus {
		if status == StatusMine {
			m.DeckStatus[i] = StatusUnknown
		}
	}
	m.MarkMine(hand)
}

// RecordTrick logs every play of a (possibly partial) trick. A seat that did
// not follow the lead suit is recorded as void in it.
func (m *GameMemory) RecordTrick(t domain.Trick) {
	if t.IsLeading() {
		return
	}
	lead := t.LeadSuit()
	for _, p := range t.Plays {
		if m.DeckStatus[cardToIndex(p.Card)] == StatusPlayed {
			continue
		}
		m.DeckStatus[cardToIndex(p.Card)] = StatusPlayed
		prof := m.profile(p.Seat)
		prof.RecordPlay()
		if p.Card.Suit != lead {
			prof.RecordVoid(lead)
		}
	}
}

func (m *GameMemory) profile(seat domain.Seat) *SeatProfile {
	p, ok := m.Seats[seat]
	if !ok {
		p = NewSeatProfile(seat)
		m.Seats[seat] = p
	}
	return p
}

// IsVoid reports whether seat is known to hold no card of suit.
func (m *GameMemory) IsVoid(seat domain.Seat, suit domain.Suit) bool {
	p, ok := m.Seats[seat]
	return ok && p.IsVoid(suit)
}

// IsPlayed returns true if the card is already out of the round.
func (m *GameMemory) IsPlayed(c domain.Card) bool {
	return m.DeckStatus[cardToIndex(c)] == StatusPlayed
}

// Unseen returns the cards of suit that are neither ours nor played.
func (m *GameMemory) Unseen(suit domain.Suit) []domain.Card {
	var out []domain.Card
	for _, r := range domain.Ranks {
		c := domain.Card{Suit: suit, Rank: r}
		if m.DeckStatus[cardToIndex(c)] == StatusUnknown {
			out = append(out, c)
		}
	}
	return out
}

// IsMaster returns true if no unseen card of the same suit outranks c.
func (m *GameMemory) IsMaster(c domain.Card, order rules.OrderingPolicy, trump domain.Suit) bool {
	isTrump := trump.IsReal() && c.Suit == trump
	v := order.OrderValue(c.Rank, isTrump)
	for _, u := range m.Unseen(c.Suit) {
		if order.OrderValue(u.Rank, isTrump) > v {
			return false
		}
	}
	return true
}

func cardToIndex(c domain.Card) int {
	return int(c.Suit)*len(domain.Ranks) + int(c.Rank)
}
