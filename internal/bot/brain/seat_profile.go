package brain

import (
	"belote/internal/domain"
)

// SeatProfile tracks what a specific seat has revealed during the round.
type SeatProfile struct {
	Seat           domain.Seat
	CardsRemaining int
	Voids          [len(domain.Suits)]bool
}

// NewSeatProfile initializes a profile for a specific seat.
func NewSeatProfile(seat domain.Seat) *SeatProfile {
	return &SeatProfile{Seat: seat, CardsRemaining: domain.HandSize}
}

// RecordPlay notes one card leaving the seat's hand.
func (p *SeatProfile) RecordPlay() {
	if p.CardsRemaining > 0 {
		p.CardsRemaining--
	}
}

// RecordVoid notes that the seat failed to follow suit.
func (p *SeatProfile) RecordVoid(s domain.Suit) {
	if s.IsReal() {
		p.Voids[s] = true
	}
}

// IsVoid reports whether the seat has shown it holds no card of s.
func (p *SeatProfile) IsVoid(s domain.Suit) bool {
	return s.IsReal() && p.Voids[s]
}
