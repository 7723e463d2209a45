// Package ws serves a single human seat over a websocket, with bots in the
// other three seats.
package ws

import (
	"belote/internal/domain"
)

// Client message types.
const (
	MsgStart = "start"
	MsgBid   = "bid"
	MsgCard  = "card"
	MsgStop  = "stop"
)

// Server message types beyond the app event kinds.
const (
	MsgHello       = "hello"
	MsgBidRequest  = "bid_request"
	MsgCardRequest = "card_request"
	MsgError       = "error"
)

// ClientMessage is what the browser sends.
type ClientMessage struct {
	Type string       `json:"type"`
	Bid  *domain.Bid  `json:"bid,omitempty"`
	Card *domain.Card `json:"card,omitempty"`
}

// ServerMessage wraps every event and prompt.
type ServerMessage struct {
	Type  string     `json:"type"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorView `json:"error,omitempty"`
}

type ErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type helloView struct {
	Seat    domain.Seat `json:"seat"`
	Variant string      `json:"variant"`
	Target  int         `json:"target"`
}

type bidRequestView struct {
	High    domain.Bid   `json:"high"`
	Allowed []domain.Bid `json:"allowed"`
}

type cardRequestView struct {
	TrickIndex int           `json:"trick_index"`
	Hand       []domain.Card `json:"hand"`
	Legal      []domain.Card `json:"legal"`
	Attempt    int           `json:"attempt"`
}

// normalizeBid maps a decoded pass or modifier onto its canonical value so
// it compares equal to the engine's bids.
func normalizeBid(b domain.Bid) domain.Bid {
	switch b.Kind {
	case domain.BidPass:
		return domain.Pass()
	case domain.BidDouble:
		return domain.Double()
	case domain.BidRedouble:
		return domain.Redouble()
	}
	if b.Level < 1 {
		b.Level = 1
	}
	return b
}
