package domain

import (
	"fmt"
	"strings"
)

// Seat is one of the four table positions. Seats advance clockwise.
type Seat int

const (
	South Seat = iota
	West
	North
	East
)

// NumSeats is the fixed table size.
const NumSeats = 4

// Seats lists every seat in clockwise order starting at South.
var Seats = [NumSeats]Seat{South, West, North, East}

var seatNames = [NumSeats]string{"south", "west", "north", "east"}

func (s Seat) String() string {
	if !s.Valid() {
		return fmt.Sprintf("seat(%d)", int(s))
	}
	return seatNames[s]
}

// Valid reports whether s names one of the four seats.
func (s Seat) Valid() bool { return s >= South && s <= East }

// Next returns the seat to the left (clockwise).
func (s Seat) Next() Seat { return (s + 1) % NumSeats }

// Prev returns the seat to the right (counter-clockwise).
func (s Seat) Prev() Seat { return (s + NumSeats - 1) % NumSeats }

// Partner returns the opposite seat.
func (s Seat) Partner() Seat { return (s + 2) % NumSeats }

// Team returns the partnership the seat belongs to.
func (s Seat) Team() Team {
	if s == South || s == North {
		return Us
	}
	return Them
}

// ParseSeat converts a seat name such as "west" into a Seat.
func ParseSeat(name string) (Seat, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range seatNames {
		if n == name {
			return Seat(i), nil
		}
	}
	return 0, fmt.Errorf("unknown seat %q", name)
}

// Team is one of the two partnerships.
type Team int

const (
	Us Team = iota
	Them
)

func (t Team) String() string {
	if t == Us {
		return "us"
	}
	return "them"
}

// Other returns the opposing team.
func (t Team) Other() Team { return 1 - t }

// SeatInfo describes who occupies a seat.
type SeatInfo struct {
	Seat  Seat
	Team  Team
	Local bool // driven by this process (human UI or bot) rather than a remote client
	Name  string
}

// Table is the fixed four-seat arrangement.
type Table struct {
	Seats [NumSeats]SeatInfo
}

// NewTable builds a table with the fixed partnership pairing and every seat local.
func NewTable() Table {
	var t Table
	for _, s := range Seats {
		t.Seats[s] = SeatInfo{Seat: s, Team: s.Team(), Local: true, Name: s.String()}
	}
	return t
}

// Order returns the four seats starting at first and moving clockwise.
func Order(first Seat) [NumSeats]Seat {
	var out [NumSeats]Seat
	for i := range out {
		out[i] = (first + Seat(i)) % NumSeats
	}
	return out
}
