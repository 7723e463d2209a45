// Package rules holds the play-time policy set: trump state, card ordering,
// card points, legal moves and trick resolution. Engines depend only on the
// interfaces here; a Profile picks the concrete variant.
package rules

import (
	"errors"
	"fmt"

	"belote/internal/domain"
)

var (
	// ErrMissingPolicy is returned when a profile is wired without one of its policies.
	ErrMissingPolicy = errors.New("rules profile is missing a policy")
	// ErrTrumpAlreadySet is returned when trump is set twice in one round.
	ErrTrumpAlreadySet = errors.New("trump already set for this round")
)

// State is the read-only view of the round handed to policies and choosers.
// Trick is a clone; mutating it does not affect the engine.
type State struct {
	Trump      domain.Suit
	Contract   domain.Contract
	Trick      domain.Trick
	TrickIndex int
	Seat       domain.Seat
}

// TrumpPolicy exposes the trump suit of the current round.
type TrumpPolicy interface {
	Current() domain.Suit
}

// OrderingPolicy ranks cards within a trick. Higher values win.
type OrderingPolicy interface {
	OrderValue(r domain.Rank, isTrump bool) int
}

// ScoringPolicy maps a card to its point value under a given trump.
type ScoringPolicy interface {
	PointsFor(s domain.Suit, r domain.Rank, trump domain.Suit) int
	LastTrickBonus() int
}

// LegalMovePolicy returns the subset of hand that seat may play.
type LegalMovePolicy interface {
	GetLegalMoves(st State, hand []domain.Card, seat domain.Seat) []domain.Card
}

// TrickResolver determines the winner and point total of a complete trick.
type TrickResolver interface {
	Resolve(trick domain.Trick, trump domain.Suit) (domain.Seat, int, error)
}

// Profile bundles one variant's play policies.
type Profile struct {
	Name       string
	Trump      *RoundTrump
	Ordering   OrderingPolicy
	Scoring    ScoringPolicy
	LegalMoves LegalMovePolicy
	Resolver   TrickResolver
}

// Validate reports the first missing policy.
func (p Profile) Validate() error {
	switch {
	case p.Trump == nil:
		return fmt.Errorf("%w: trump", ErrMissingPolicy)
	case p.Ordering == nil:
		return fmt.Errorf("%w: ordering", ErrMissingPolicy)
	case p.Scoring == nil:
		return fmt.Errorf("%w: scoring", ErrMissingPolicy)
	case p.LegalMoves == nil:
		return fmt.Errorf("%w: legal moves", ErrMissingPolicy)
	case p.Resolver == nil:
		return fmt.Errorf("%w: trick resolver", ErrMissingPolicy)
	}
	return nil
}

// LegalFlags are the configurable legal-move constraints.
type LegalFlags struct {
	MustFollowSuit             bool
	MustTrumpIfVoid            bool
	MustOvertrump              bool
	CanDiscardIfPartnerWinning bool
}

// ClassicFlags are the classic Belote defaults.
func ClassicFlags() LegalFlags {
	return LegalFlags{MustFollowSuit: true, MustTrumpIfVoid: true, MustOvertrump: true, CanDiscardIfPartnerWinning: true}
}

// SunHokomFlags are the Baloot defaults.
func SunHokomFlags() LegalFlags {
	return LegalFlags{MustFollowSuit: true, MustTrumpIfVoid: true, MustOvertrump: true}
}

// NewClassicProfile wires the classic Belote policies.
func NewClassicProfile(flags LegalFlags, lastTrickBonus int) Profile {
	ordering := NewClassicOrdering()
	scoring := NewClassicScoring(lastTrickBonus)
	return Profile{
		Name:       "classic",
		Trump:      &RoundTrump{},
		Ordering:   ordering,
		Scoring:    scoring,
		LegalMoves: &ClassicLegalMoves{Ordering: ordering, Flags: flags},
		Resolver:   &ClassicResolver{Ordering: ordering, Scoring: scoring},
	}
}

// NewSunHokomProfile wires the Baloot policies with the given multipliers.
func NewSunHokomProfile(flags LegalFlags, lastTrickBonus, sunMultiplier, hokomMultiplier int) Profile {
	ordering := NewSunHokomOrdering()
	scoring := NewSunHokomScoring(lastTrickBonus, sunMultiplier, hokomMultiplier)
	return Profile{
		Name:       "sun_hokom",
		Trump:      &RoundTrump{},
		Ordering:   ordering,
		Scoring:    scoring,
		LegalMoves: &SunHokomLegalMoves{Ordering: ordering, Flags: flags},
		Resolver:   &SunHokomResolver{Ordering: ordering, Scoring: scoring},
	}
}
