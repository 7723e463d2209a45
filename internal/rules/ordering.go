package rules

import "belote/internal/domain"

// RankOrdering ranks cards by their position in a strongest-first list.
type RankOrdering struct {
	AtTrump  []domain.Rank
	OffTrump []domain.Rank
}

var (
	trumpOrder = []domain.Rank{domain.Jack, domain.Nine, domain.Ace, domain.Ten, domain.King, domain.Queen, domain.Eight, domain.Seven}
	plainOrder = []domain.Rank{domain.Ace, domain.Ten, domain.King, domain.Queen, domain.Jack, domain.Nine, domain.Eight, domain.Seven}
)

// NewClassicOrdering returns J,9,A,10,K,Q,8,7 at trump and A,10,K,Q,J,9,8,7 otherwise.
func NewClassicOrdering() *RankOrdering {
	return &RankOrdering{AtTrump: trumpOrder, OffTrump: plainOrder}
}

// NewSunHokomOrdering returns the Baloot order. Hokom trump follows the
// classic trump order; Sun uses the plain order throughout.
func NewSunHokomOrdering() *RankOrdering {
	return &RankOrdering{AtTrump: trumpOrder, OffTrump: plainOrder}
}

// OrderValue returns len(order)-index, or 0 for an unknown rank.
func (o *RankOrdering) OrderValue(r domain.Rank, isTrump bool) int {
	order := o.OffTrump
	if isTrump {
		order = o.AtTrump
	}
	for i, rank := range order {
		if rank == r {
			return len(order) - i
		}
	}
	return 0
}
