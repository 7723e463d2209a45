package bot

import (
	"belote/internal/bidding"
	"belote/internal/domain"
	"belote/internal/play"
)

// GoodBot bids from hand strength and leads cards it knows are masters.
type GoodBot struct {
	Tuning Tuning
}

func (b *GoodBot) ChooseBid(v View, req bidding.BidRequest) domain.Bid {
	a := req.Auction
	var best domain.Bid
	bestMargin := 0.0
	found := false
	for _, bid := range req.Allowed {
		switch bid.Kind {
		case domain.BidTake:
			margin := b.Tuning.Strength(v.Hand, bid.Suit) - b.Tuning.threshold(bid.Suit)
			if margin >= 0 && (!found || margin > bestMargin) {
				best, bestMargin, found = bid, margin, true
			}
		case domain.BidDouble:
			// Defending: trump strength in the declared suit hurts the declarer.
			if b.Tuning.Strength(v.Hand, a.High.Suit) >= b.Tuning.DoubleThreshold {
				return bid
			}
		case domain.BidRedouble:
			if b.Tuning.Strength(v.Hand, a.High.Suit) >= b.Tuning.RedoubleThreshold {
				return bid
			}
		}
	}
	if !found {
		return domain.Pass()
	}
	return best
}

func (b *GoodBot) ChooseCard(v View, req play.ChooseRequest) domain.Card {
	st := req.State
	if st.Trick.IsLeading() && len(req.Legal) > 1 {
		if c, ok := masterLead(v, req); ok {
			return c
		}
	}
	return standardCard(v, req)
}

// masterLead cashes a plain-suit master no opponent can ruff, or draws trump
// with a master trump when our side declared.
func masterLead(v View, req play.ChooseRequest) (domain.Card, bool) {
	trump := req.State.Trump
	me := req.Seat
	opps := [2]domain.Seat{me.Next(), me.Prev()}
	declaring := req.State.Contract.Declarer.Team() == me.Team() && !req.State.Contract.AllPassed()

	var pick domain.Card
	found := false
	for _, c := range req.Legal {
		if !v.Memory.IsMaster(c, v.Ordering, trump) {
			continue
		}
		if v.isTrump(c, trump) {
			if !declaring || len(v.Memory.Unseen(trump)) == 0 {
				continue
			}
		} else if trump.IsReal() && (v.Memory.IsVoid(opps[0], c.Suit) || v.Memory.IsVoid(opps[1], c.Suit)) {
			continue
		}
		if !found || v.points(c, trump) > v.points(pick, trump) {
			pick, found = c, true
		}
	}
	return pick, found
}
