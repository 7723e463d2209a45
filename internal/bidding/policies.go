// Package bidding runs the auction that turns four seats' announcements into
// a contract. Variant rules are injected as Order, Comparator, Validator and
// Evaluator policies.
package bidding

import (
	"errors"
	"fmt"
	"slices"

	"belote/internal/domain"
)

var (
	// ErrMissingPolicy is returned by NewEngine when Rules is incomplete.
	ErrMissingPolicy = errors.New("bidding rules are missing a policy")
	// ErrNoSources is returned by NewEngine without a source registry.
	ErrNoSources = errors.New("bidding engine needs a source registry")
)

// Auction is the read-only state of a running auction.
type Auction struct {
	Dealer     domain.Seat
	High       domain.Bid
	LastBidder domain.Seat
	HasBidder  bool
	Multiplier int
	Passes     int
	Turn       int
	Seat       domain.Seat
	Done       bool
}

// DeclarerTeam returns the team of the current high bidder.
func (a Auction) DeclarerTeam() (domain.Team, bool) {
	if !a.HasBidder {
		return domain.Us, false
	}
	return a.LastBidder.Team(), true
}

// OrderPolicy yields the seat that acts on a given turn.
type OrderPolicy interface {
	SeatAt(dealer domain.Seat, turn int) domain.Seat
}

// ComparatorPolicy orders Take bids.
type ComparatorPolicy interface {
	// IsBetter reports whether candidate strictly beats current. A Pass never
	// beats anything and every Take beats a Pass.
	IsBetter(candidate, current domain.Bid) bool
}

// ValidatorPolicy decides whether seat may announce candidate now.
type ValidatorPolicy interface {
	IsValid(seat domain.Seat, candidate domain.Bid, a Auction) bool
}

// EvaluatorPolicy lists the bids offered to seat.
type EvaluatorPolicy interface {
	Allowed(seat domain.Seat, a Auction) []domain.Bid
}

// Rules bundles one variant's bid policies.
type Rules struct {
	Name       string
	Order      OrderPolicy
	Comparator ComparatorPolicy
	Validator  ValidatorPolicy
	Evaluator  EvaluatorPolicy
}

// Validate reports the first missing policy.
func (r Rules) Validate() error {
	switch {
	case r.Order == nil:
		return fmt.Errorf("%w: order", ErrMissingPolicy)
	case r.Comparator == nil:
		return fmt.Errorf("%w: comparator", ErrMissingPolicy)
	case r.Validator == nil:
		return fmt.Errorf("%w: validator", ErrMissingPolicy)
	case r.Evaluator == nil:
		return fmt.Errorf("%w: evaluator", ErrMissingPolicy)
	}
	return nil
}

// RotatingOrder starts at the dealer's left and moves clockwise.
type RotatingOrder struct{}

func (RotatingOrder) SeatAt(dealer domain.Seat, turn int) domain.Seat {
	return (dealer.Next() + domain.Seat(turn%domain.NumSeats)) % domain.NumSeats
}

// SuitPriorityComparator prefers the higher level, then the suit listed first
// in Priority. Suits missing from Priority rank below every listed suit.
type SuitPriorityComparator struct {
	Priority []domain.Suit
}

// DefaultClassicPriority is hearts, diamonds, clubs, spades.
var DefaultClassicPriority = []domain.Suit{domain.Hearts, domain.Diamonds, domain.Clubs, domain.Spades}

// DefaultSunHokomPriority puts Sun above every Hokom suit.
var DefaultSunHokomPriority = []domain.Suit{domain.NoTrump, domain.Hearts, domain.Diamonds, domain.Clubs, domain.Spades}

func (c SuitPriorityComparator) IsBetter(candidate, current domain.Bid) bool {
	if !candidate.IsTake() {
		return false
	}
	if !current.IsTake() {
		return current.IsPass()
	}
	if candidate.Level != current.Level {
		return candidate.Level > current.Level
	}
	return c.rank(candidate.Suit) < c.rank(current.Suit)
}

func (c SuitPriorityComparator) rank(s domain.Suit) int {
	if i := slices.Index(c.Priority, s); i >= 0 {
		return i
	}
	return len(c.Priority)
}

// LevelValidator enforces the level/suit progression of Take bids and the
// team rules of Double and Redouble.
type LevelValidator struct {
	MaxLevel     int
	AllowSun     bool
	AllowDoubles bool
}

func (v LevelValidator) maxLevel() int {
	if v.MaxLevel < 1 {
		return 1
	}
	return v.MaxLevel
}

func (v LevelValidator) IsValid(seat domain.Seat, b domain.Bid, a Auction) bool {
	switch b.Kind {
	case domain.BidPass:
		return true
	case domain.BidTake:
		if !b.Suit.IsReal() && !(v.AllowSun && b.Suit == domain.NoTrump) {
			return false
		}
		if b.Level < 1 || b.Level > v.maxLevel() {
			return false
		}
		if !a.High.IsTake() {
			return true
		}
		if b.Level != a.High.Level {
			return b.Level > a.High.Level
		}
		return b.Suit != a.High.Suit
	case domain.BidDouble:
		team, ok := a.DeclarerTeam()
		return v.AllowDoubles && ok && a.High.IsTake() && a.Multiplier <= 1 && seat.Team() != team
	case domain.BidRedouble:
		team, ok := a.DeclarerTeam()
		return v.AllowDoubles && ok && a.High.IsTake() && a.Multiplier == 2 && seat.Team() == team
	}
	return false
}

// LadderEvaluator offers Pass, the cheapest acceptable Take in each of Suits,
// and Double or Redouble when the validator allows them.
type LadderEvaluator struct {
	Suits      []domain.Suit
	MaxLevel   int
	Comparator ComparatorPolicy
	Validator  ValidatorPolicy
}

func (e LadderEvaluator) Allowed(seat domain.Seat, a Auction) []domain.Bid {
	out := []domain.Bid{domain.Pass()}
	start := max(1, a.High.Level)
	for _, s := range e.Suits {
		for level := start; level <= max(1, e.MaxLevel); level++ {
			b := domain.Take(s, level)
			if e.Validator.IsValid(seat, b, a) && (!a.High.IsTake() || e.Comparator.IsBetter(b, a.High)) {
				out = append(out, b)
				break
			}
		}
	}
	for _, m := range []domain.Bid{domain.Double(), domain.Redouble()} {
		if e.Validator.IsValid(seat, m, a) {
			out = append(out, m)
		}
	}
	return out
}

// Options tunes the stock rule sets.
type Options struct {
	MaxLevel     int
	Priority     []domain.Suit
	AllowDoubles bool
}

// NewClassicRules returns the classic Belote auction.
func NewClassicRules(opt Options) Rules {
	priority := opt.Priority
	if len(priority) == 0 {
		priority = DefaultClassicPriority
	}
	cmp := SuitPriorityComparator{Priority: priority}
	val := LevelValidator{MaxLevel: opt.MaxLevel, AllowDoubles: opt.AllowDoubles}
	return Rules{
		Name:       "classic",
		Order:      RotatingOrder{},
		Comparator: cmp,
		Validator:  val,
		Evaluator:  LadderEvaluator{Suits: domain.Suits[:], MaxLevel: opt.MaxLevel, Comparator: cmp, Validator: val},
	}
}

// NewSunHokomRules returns the Baloot auction, where a Take in NoTrump is Sun.
func NewSunHokomRules(opt Options) Rules {
	priority := opt.Priority
	if len(priority) == 0 {
		priority = DefaultSunHokomPriority
	}
	cmp := SuitPriorityComparator{Priority: priority}
	val := LevelValidator{MaxLevel: opt.MaxLevel, AllowSun: true, AllowDoubles: opt.AllowDoubles}
	suits := append([]domain.Suit{domain.NoTrump}, domain.Suits[:]...)
	return Rules{
		Name:       "sun_hokom",
		Order:      RotatingOrder{},
		Comparator: cmp,
		Validator:  val,
		Evaluator:  LadderEvaluator{Suits: suits, MaxLevel: opt.MaxLevel, Comparator: cmp, Validator: val},
	}
}
