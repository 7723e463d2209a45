package app

import (
	"belote/internal/domain"
)

// EventKind identifies emitted match events for dispatch.
type EventKind string

const (
	EventMatchStarted  EventKind = "match_started"
	EventRoundStarted  EventKind = "round_started"
	EventHandDealt     EventKind = "hand_dealt"
	EventBiddingTurn   EventKind = "bidding_turn"
	EventBidPlaced     EventKind = "bid_placed"
	EventRedeal        EventKind = "redeal"
	EventContractSet   EventKind = "contract_set"
	EventCardPlayed    EventKind = "card_played"
	EventTrickResolved EventKind = "trick_resolved"
	EventRoundEnded    EventKind = "round_ended"
	EventMatchEnded    EventKind = "match_ended"
	EventMatchStopped  EventKind = "match_stopped"
)

// Event is a match event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	MatchID    string
	Payload    any
	Recipients []string // user IDs; nil means broadcast
}

// EventSink receives events in order on the match goroutine.
type EventSink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

type MatchStartedPayload struct {
	Variant string      `json:"variant"`
	Target  int         `json:"target"`
	Dealer  domain.Seat `json:"dealer"`
}

type RoundStartedPayload struct {
	RoundID string      `json:"round_id"`
	Round   int         `json:"round"`
	Dealer  domain.Seat `json:"dealer"`
}

type HandDealtPayload struct {
	Seat domain.Seat   `json:"seat"`
	Hand []domain.Card `json:"hand"`
}

type BiddingTurnPayload struct {
	Seat    domain.Seat  `json:"seat"`
	High    domain.Bid   `json:"high"`
	Allowed []domain.Bid `json:"allowed,omitempty"`
}

type BidPlacedPayload struct {
	Seat     domain.Seat `json:"seat"`
	Bid      domain.Bid  `json:"bid"`
	Accepted bool        `json:"accepted"`
}

type RedealPayload struct {
	Dealer     domain.Seat `json:"dealer"`
	NextDealer domain.Seat `json:"next_dealer"`
}

type ContractSetPayload struct {
	Contract domain.Contract `json:"contract"`
}

type CardPlayedPayload struct {
	Seat       domain.Seat `json:"seat"`
	Card       domain.Card `json:"card"`
	TrickIndex int         `json:"trick_index"`
}

type TrickResolvedPayload struct {
	TrickIndex int          `json:"trick_index"`
	Winner     domain.Seat  `json:"winner"`
	Points     int          `json:"points"`
	Trick      domain.Trick `json:"trick"`
}

type RoundEndedPayload struct {
	RoundID  string            `json:"round_id"`
	Contract domain.Contract   `json:"contract"`
	Round    domain.RoundScore `json:"round"`
	Match    domain.MatchScore `json:"match"`
}

type MatchEndedPayload struct {
	Winner domain.Team       `json:"winner"`
	Score  domain.MatchScore `json:"score"`
}

type MatchStoppedPayload struct {
	Reason string            `json:"reason"`
	Score  domain.MatchScore `json:"score"`
}
