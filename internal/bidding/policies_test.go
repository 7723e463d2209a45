package bidding

import (
	"testing"

	"belote/internal/domain"
)

func allBids(maxLevel int, suits []domain.Suit) []domain.Bid {
	out := []domain.Bid{domain.Pass()}
	for level := 1; level <= maxLevel; level++ {
		for _, s := range suits {
			out = append(out, domain.Take(s, level))
		}
	}
	return out
}

func TestComparatorIsStrictPartialOrder(t *testing.T) {
	comparators := []struct {
		name  string
		cmp   SuitPriorityComparator
		suits []domain.Suit
	}{
		{name: "classic", cmp: SuitPriorityComparator{Priority: DefaultClassicPriority}, suits: domain.Suits[:]},
		{name: "sun hokom", cmp: SuitPriorityComparator{Priority: DefaultSunHokomPriority}, suits: DefaultSunHokomPriority},
		{name: "partial priority", cmp: SuitPriorityComparator{Priority: []domain.Suit{domain.Spades}}, suits: domain.Suits[:]},
	}
	for _, tt := range comparators {
		t.Run(tt.name, func(t *testing.T) {
			bids := allBids(3, tt.suits)
			for _, a := range bids {
				if tt.cmp.IsBetter(a, a) {
					t.Fatalf("IsBetter(%v, %v) must be false", a, a)
				}
				if tt.cmp.IsBetter(domain.Pass(), a) {
					t.Fatalf("Pass must never be better than %v", a)
				}
				for _, b := range bids {
					if tt.cmp.IsBetter(a, b) && tt.cmp.IsBetter(b, a) {
						t.Fatalf("asymmetry broken for %v, %v", a, b)
					}
					for _, c := range bids {
						if tt.cmp.IsBetter(a, b) && tt.cmp.IsBetter(b, c) && !tt.cmp.IsBetter(a, c) {
							t.Fatalf("transitivity broken for %v > %v > %v", a, b, c)
						}
					}
				}
			}
		})
	}
}

func TestValidator(t *testing.T) {
	v := LevelValidator{MaxLevel: 2, AllowDoubles: true}
	taken := Auction{High: domain.Take(domain.Diamonds, 1), LastBidder: domain.South, HasBidder: true, Multiplier: 1}
	doubled := taken
	doubled.Multiplier = 2
	open := Auction{High: domain.Pass(), Multiplier: 1}

	tests := []struct {
		name string
		seat domain.Seat
		bid  domain.Bid
		a    Auction
		want bool
	}{
		{"pass always valid", domain.West, domain.Pass(), taken, true},
		{"opening take", domain.West, domain.Take(domain.Spades, 1), open, true},
		{"take needs a suit", domain.West, domain.Take(domain.NoTrump, 1), open, false},
		{"zero level", domain.West, domain.Take(domain.Spades, 0), open, false},
		{"above max", domain.West, domain.Take(domain.Spades, 3), open, false},
		{"same suit same level", domain.West, domain.Take(domain.Diamonds, 1), taken, false},
		{"other suit same level", domain.West, domain.Take(domain.Clubs, 1), taken, true},
		{"lower level", domain.West, domain.Take(domain.Clubs, 1), Auction{High: domain.Take(domain.Clubs, 2), HasBidder: true, Multiplier: 1}, false},
		{"higher level", domain.West, domain.Take(domain.Diamonds, 2), taken, true},
		{"double by opponent", domain.West, domain.Double(), taken, true},
		{"double by partner", domain.North, domain.Double(), taken, false},
		{"double over pass", domain.West, domain.Double(), open, false},
		{"double twice", domain.East, domain.Double(), doubled, false},
		{"redouble by declarer team", domain.North, domain.Redouble(), doubled, true},
		{"redouble by opponent", domain.East, domain.Redouble(), doubled, false},
		{"redouble undoubled", domain.North, domain.Redouble(), taken, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.IsValid(tt.seat, tt.bid, tt.a); got != tt.want {
				t.Fatalf("IsValid(%v, %v) = %v, want %v", tt.seat, tt.bid, got, tt.want)
			}
		})
	}
}

func TestEvaluatorOffersAcceptableBids(t *testing.T) {
	rules := NewClassicRules(Options{MaxLevel: 2, AllowDoubles: true})
	a := Auction{High: domain.Take(domain.Diamonds, 1), LastBidder: domain.South, HasBidder: true, Multiplier: 1}
	got := rules.Evaluator.Allowed(domain.West, a)
	want := []domain.Bid{
		domain.Pass(),
		domain.Take(domain.Hearts, 1),
		domain.Take(domain.Diamonds, 2),
		domain.Take(domain.Clubs, 2),
		domain.Take(domain.Spades, 2),
		domain.Double(),
	}
	if len(got) != len(want) {
		t.Fatalf("Allowed() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Allowed()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRotatingOrder(t *testing.T) {
	var o RotatingOrder
	want := []domain.Seat{domain.South, domain.West, domain.North, domain.East, domain.South}
	for turn, seat := range want {
		if got := o.SeatAt(domain.East, turn); got != seat {
			t.Fatalf("SeatAt(east, %d) = %v, want %v", turn, got, seat)
		}
	}
}
