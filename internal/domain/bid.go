package domain

import "fmt"

// BidKind enumerates the announcement types.
type BidKind int

const (
	BidPass BidKind = iota
	BidTake
	BidDouble
	BidRedouble
)

func (k BidKind) String() string {
	switch k {
	case BidPass:
		return "pass"
	case BidTake:
		return "take"
	case BidDouble:
		return "double"
	case BidRedouble:
		return "redouble"
	}
	return fmt.Sprintf("bidkind(%d)", int(k))
}

// Bid is a single announcement. Suit and Level are only meaningful for a Take.
type Bid struct {
	Kind  BidKind `json:"kind"`
	Suit  Suit    `json:"suit"`
	Level int     `json:"level"`
}

// Pass returns the pass announcement.
func Pass() Bid { return Bid{Kind: BidPass, Suit: NoTrump} }

// Take returns a contract offer in suit at level. In Sun/Hokom play a Take
// in NoTrump is the Sun announcement.
func Take(s Suit, level int) Bid { return Bid{Kind: BidTake, Suit: s, Level: level} }

// Double returns the double announcement.
func Double() Bid { return Bid{Kind: BidDouble, Suit: NoTrump} }

// Redouble returns the redouble announcement.
func Redouble() Bid { return Bid{Kind: BidRedouble, Suit: NoTrump} }

func (b Bid) IsPass() bool { return b.Kind == BidPass }
func (b Bid) IsTake() bool { return b.Kind == BidTake }

// IsModifier reports whether the bid is a Double or Redouble.
func (b Bid) IsModifier() bool { return b.Kind == BidDouble || b.Kind == BidRedouble }

func (b Bid) String() string {
	if b.Kind == BidTake {
		return fmt.Sprintf("take(%s,%d)", b.Suit, b.Level)
	}
	return b.Kind.String()
}

// Contract is the binding outcome of the auction.
type Contract struct {
	Declarer   Seat `json:"declarer"`
	Trump      Suit `json:"trump"`
	Level      int  `json:"level"`
	Multiplier int  `json:"multiplier"`
}

// AllPassed reports whether the contract came from four passes.
func (c Contract) AllPassed() bool { return c.Level == 0 }

// Factor returns the score multiplier, treating zero as one.
func (c Contract) Factor() int {
	if c.Multiplier <= 0 {
		return 1
	}
	return c.Multiplier
}

func (c Contract) String() string {
	return fmt.Sprintf("%s %s level %d x%d", c.Declarer, c.Trump, c.Level, c.Factor())
}
