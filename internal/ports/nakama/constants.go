package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"
	// RpcSeatTicket issues a signed ticket that lets a player reclaim its seat.
	RpcSeatTicket = "seat_ticket"

	// MatchNameBelote is the authoritative match handler name registered with Nakama.
	MatchNameBelote = "belote_match"

	// TickRate is the number of MatchLoop calls per second.
	TickRate = 5

	// outboxSize bounds queued server messages between two ticks.
	outboxSize = 512
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartMatch int64 = 1
	OpPlaceBid   int64 = 2
	OpPlayCard   int64 = 3
	OpStopMatch  int64 = 4

	// Server -> Client events
	OpTableState    int64 = 101
	OpMatchStarted  int64 = 102
	OpRoundStarted  int64 = 103
	OpHandDealt     int64 = 104 // send privately
	OpBiddingTurn   int64 = 105
	OpBidPlaced     int64 = 106
	OpRedeal        int64 = 107
	OpContractSet   int64 = 108
	OpCardRequest   int64 = 109 // send privately
	OpCardPlayed    int64 = 110
	OpTrickResolved int64 = 111
	OpRoundEnded    int64 = 112
	OpMatchEnded    int64 = 113
	OpMatchStopped  int64 = 114
	OpError         int64 = 115
	OpBidRequest    int64 = 116 // send privately
)
