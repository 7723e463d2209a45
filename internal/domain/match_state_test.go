package domain

import "testing"

func TestLowestAvailableSeat(t *testing.T) {
	tests := []struct {
		name   string
		seats  [NumSeats]string
		want   Seat
		wantOK bool
	}{
		{name: "all empty", seats: [NumSeats]string{}, want: South, wantOK: true},
		{name: "south taken", seats: [NumSeats]string{"u1", "", "", ""}, want: West, wantOK: true},
		{name: "gap at north", seats: [NumSeats]string{"u1", "u2", "", "u4"}, want: North, wantOK: true},
		{name: "full", seats: [NumSeats]string{"u1", "u2", "u3", "u4"}, want: South, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LowestAvailableSeat(&tt.seats)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("LowestAvailableSeat() = %v,%v want %v,%v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestComputeLabel(t *testing.T) {
	state := NewMatchState("classic")
	state.Seats[South] = "a"
	state.Seats[West] = "b"

	label := ComputeLabel(state)
	if !label.Open || label.Game != "belote" || label.Seated != 2 || label.Variant != "classic" {
		t.Fatalf("unexpected label: %+v", label)
	}

	state.Seats[North] = "c"
	state.Seats[East] = "d"
	if ComputeLabel(state).Open {
		t.Fatalf("expected full lobby to be closed")
	}

	state.Seats[East] = ""
	state.Phase = PhasePlaying
	if ComputeLabel(state).Open {
		t.Fatalf("expected playing table to be closed")
	}
}

func TestHumanCount(t *testing.T) {
	state := NewMatchState("classic")
	state.Players["a"] = &Player{UserID: "a"}
	state.Players["bot"] = &Player{UserID: "bot", IsBot: true}
	if got := state.HumanCount(); got != 1 {
		t.Fatalf("HumanCount() = %d, want 1", got)
	}
}
