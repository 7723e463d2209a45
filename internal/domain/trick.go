package domain

import "errors"

var (
	ErrTrickFull     = errors.New("trick already has four plays")
	ErrOutOfTurn     = errors.New("seat played out of turn")
	ErrTrickNotReady = errors.New("trick is not complete")
)

// Play is one seat's card in a trick.
type Play struct {
	Seat Seat `json:"seat"`
	Card Card `json:"card"`
}

// Trick is one exchange of up to four cards.
type Trick struct {
	Leader Seat   `json:"leader"`
	Plays  []Play `json:"plays"`
}

// NewTrick starts an empty trick led by leader.
func NewTrick(leader Seat) Trick {
	return Trick{Leader: leader, Plays: make([]Play, 0, NumSeats)}
}

// Add appends a play. Seats must follow clockwise from the leader.
func (t *Trick) Add(seat Seat, c Card) error {
	if len(t.Plays) >= NumSeats {
		return ErrTrickFull
	}
	if seat != t.NextSeat() {
		return ErrOutOfTurn
	}
	t.Plays = append(t.Plays, Play{Seat: seat, Card: c})
	return nil
}

// NextSeat is the seat due to play next.
func (t Trick) NextSeat() Seat {
	return (t.Leader + Seat(len(t.Plays))) % NumSeats
}

// IsLeading reports whether no card has been played yet.
func (t Trick) IsLeading() bool { return len(t.Plays) == 0 }

// Complete reports whether all four seats have played.
func (t Trick) Complete() bool { return len(t.Plays) == NumSeats }

// LeadSuit returns the suit of the first card, or NoTrump for an empty trick.
func (t Trick) LeadSuit() Suit {
	if len(t.Plays) == 0 {
		return NoTrump
	}
	return t.Plays[0].Card.Suit
}

// Cards returns the played cards in order.
func (t Trick) Cards() []Card {
	out := make([]Card, len(t.Plays))
	for i, p := range t.Plays {
		out[i] = p.Card
	}
	return out
}

// Clone returns a copy that shares no storage with t.
func (t Trick) Clone() Trick {
	plays := make([]Play, len(t.Plays), NumSeats)
	copy(plays, t.Plays)
	return Trick{Leader: t.Leader, Plays: plays}
}
