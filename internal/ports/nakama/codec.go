package nakama

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"belote/internal/app"
	"belote/internal/domain"
)

// Match messages and labels travel as protobuf Struct values in their JSON
// form, which every Nakama client can read without generated code.

func encode(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return protojson.Marshal(s)
}

func decode(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(data) == 0 {
		return s, nil
	}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return s, nil
}

func encodeLabel(l domain.LabelPayload) (string, error) {
	b, err := encode(map[string]any{
		"open":    l.Open,
		"game":    l.Game,
		"phase":   l.Phase,
		"variant": l.Variant,
		"seated":  l.Seated,
	})
	return string(b), err
}

func cardsValue(cards []domain.Card) []any {
	out := make([]any, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

func bidsValue(bids []domain.Bid) []any {
	out := make([]any, len(bids))
	for i, b := range bids {
		out[i] = bidValue(b)
	}
	return out
}

func bidValue(b domain.Bid) map[string]any {
	m := map[string]any{"kind": b.Kind.String()}
	if b.IsTake() {
		m["suit"] = b.Suit.String()
		m["level"] = b.Level
	}
	return m
}

func contractValue(c domain.Contract) map[string]any {
	return map[string]any{
		"declarer":   c.Declarer.String(),
		"trump":      c.Trump.String(),
		"level":      c.Level,
		"multiplier": c.Multiplier,
	}
}

func scoreValue(us, them int) map[string]any {
	return map[string]any{"us": us, "them": them}
}

func trickValue(t domain.Trick) []any {
	out := make([]any, len(t.Plays))
	for i, p := range t.Plays {
		out[i] = map[string]any{"seat": p.Seat.String(), "card": p.Card.String()}
	}
	return out
}

// eventMessage maps an app event to its op code and fields.
func eventMessage(ev app.Event) (int64, map[string]any, bool) {
	switch p := ev.Payload.(type) {
	case app.MatchStartedPayload:
		return OpMatchStarted, map[string]any{"variant": p.Variant, "target": p.Target, "dealer": p.Dealer.String()}, true
	case app.RoundStartedPayload:
		return OpRoundStarted, map[string]any{"round_id": p.RoundID, "round": p.Round, "dealer": p.Dealer.String()}, true
	case app.HandDealtPayload:
		return OpHandDealt, map[string]any{"seat": p.Seat.String(), "hand": cardsValue(p.Hand)}, true
	case app.BiddingTurnPayload:
		m := map[string]any{"seat": p.Seat.String(), "high": bidValue(p.High)}
		if p.Allowed != nil {
			m["allowed"] = bidsValue(p.Allowed)
		}
		return OpBiddingTurn, m, true
	case app.BidPlacedPayload:
		return OpBidPlaced, map[string]any{"seat": p.Seat.String(), "bid": bidValue(p.Bid), "accepted": p.Accepted}, true
	case app.RedealPayload:
		return OpRedeal, map[string]any{"dealer": p.Dealer.String(), "next_dealer": p.NextDealer.String()}, true
	case app.ContractSetPayload:
		return OpContractSet, map[string]any{"contract": contractValue(p.Contract)}, true
	case app.CardPlayedPayload:
		return OpCardPlayed, map[string]any{"seat": p.Seat.String(), "card": p.Card.String(), "trick_index": p.TrickIndex}, true
	case app.TrickResolvedPayload:
		return OpTrickResolved, map[string]any{"trick_index": p.TrickIndex, "winner": p.Winner.String(), "points": p.Points, "trick": trickValue(p.Trick)}, true
	case app.RoundEndedPayload:
		return OpRoundEnded, map[string]any{
			"round_id": p.RoundID,
			"contract": contractValue(p.Contract),
			"round":    scoreValue(p.Round.Us, p.Round.Them),
			"match":    scoreValue(p.Match.Us, p.Match.Them),
		}, true
	case app.MatchEndedPayload:
		return OpMatchEnded, map[string]any{"winner": p.Winner.String(), "match": scoreValue(p.Score.Us, p.Score.Them)}, true
	case app.MatchStoppedPayload:
		return OpMatchStopped, map[string]any{"reason": p.Reason, "match": scoreValue(p.Score.Us, p.Score.Them)}, true
	}
	return 0, nil, false
}

// parseBid reads {"kind": "take", "suit": "hearts", "level": 1}.
func parseBid(s *structpb.Struct) (domain.Bid, error) {
	f := s.GetFields()
	switch kind := f["kind"].GetStringValue(); kind {
	case "pass":
		return domain.Pass(), nil
	case "double":
		return domain.Double(), nil
	case "redouble":
		return domain.Redouble(), nil
	case "take":
		suit, err := domain.ParseSuit(f["suit"].GetStringValue())
		if err != nil {
			return domain.Bid{}, err
		}
		level := int(f["level"].GetNumberValue())
		if level < 1 {
			level = 1
		}
		return domain.Take(suit, level), nil
	default:
		return domain.Bid{}, fmt.Errorf("unknown bid kind %q", kind)
	}
}

// parseCard reads {"card": "AH"}.
func parseCard(s *structpb.Struct) (domain.Card, error) {
	return domain.ParseCard(s.GetFields()["card"].GetStringValue())
}
