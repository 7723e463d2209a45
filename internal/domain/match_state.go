package domain

// Phase represents the lifecycle stage of a hosted table.
type Phase string

const (
	// PhaseLobby indicates the table is waiting for players.
	PhaseLobby Phase = "lobby"
	// PhasePlaying indicates a match is in progress.
	PhasePlaying Phase = "playing"
	// PhaseEnded indicates the match has finished.
	PhaseEnded Phase = "ended"
)

// Player holds the lobby state of a seated participant.
type Player struct {
	UserID    string
	Seat      Seat
	IsOwner   bool
	IsBot     bool
	Connected bool
}

// MatchState captures who sits where at a hosted table.
type MatchState struct {
	Phase       Phase
	Variant     string
	Players     map[string]*Player
	Seats       [NumSeats]string
	OwnerUserID string
}

// NewMatchState returns an empty lobby.
func NewMatchState(variant string) *MatchState {
	return &MatchState{
		Phase:   PhaseLobby,
		Variant: variant,
		Players: make(map[string]*Player),
	}
}

// LowestAvailableSeat returns the first free seat in clockwise order from South.
// ok is false when the table is full.
func LowestAvailableSeat(seats *[NumSeats]string) (Seat, bool) {
	for i, userID := range seats {
		if userID == "" {
			return Seat(i), true
		}
	}
	return South, false
}

// SeatOf returns the seat held by userID.
func (s *MatchState) SeatOf(userID string) (Seat, bool) {
	p, ok := s.Players[userID]
	if !ok {
		return South, false
	}
	return p.Seat, true
}

// HumanCount returns the number of non-bot players, connected or not.
func (s *MatchState) HumanCount() int {
	n := 0
	for _, p := range s.Players {
		if !p.IsBot {
			n++
		}
	}
	return n
}

// LabelPayload is the advertised match label.
type LabelPayload struct {
	Open    bool   `json:"open"`
	Game    string `json:"game"`
	Phase   string `json:"phase"`
	Variant string `json:"variant"`
	Seated  int    `json:"seated"`
}

// ComputeLabel derives the advertised label from match state.
func ComputeLabel(s *MatchState) LabelPayload {
	seated := 0
	for _, id := range s.Seats {
		if id != "" {
			seated++
		}
	}
	return LabelPayload{
		Open:    s.Phase == PhaseLobby && seated < NumSeats,
		Game:    "belote",
		Phase:   string(s.Phase),
		Variant: s.Variant,
		Seated:  seated,
	}
}
