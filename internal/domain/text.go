package domain

import "fmt"

// Text forms let seats, suits, cards and bids travel as readable JSON.

func (s Seat) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid seat %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Seat) UnmarshalText(b []byte) error {
	v, err := ParseSeat(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (t Team) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Team) UnmarshalText(b []byte) error {
	switch string(b) {
	case "us":
		*t = Us
	case "them":
		*t = Them
	default:
		return fmt.Errorf("unknown team %q", b)
	}
	return nil
}

func (s Suit) MarshalText() ([]byte, error) {
	if s < Hearts || s > NoTrump {
		return nil, fmt.Errorf("invalid suit %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Suit) UnmarshalText(b []byte) error {
	v, err := ParseSuit(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (c Card) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Card) UnmarshalText(b []byte) error {
	v, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (k BidKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *BidKind) UnmarshalText(b []byte) error {
	for _, kind := range []BidKind{BidPass, BidTake, BidDouble, BidRedouble} {
		if kind.String() == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown bid kind %q", b)
}
