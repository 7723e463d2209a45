package domain

import (
	"fmt"
	"strings"
)

// Suit is a card suit. NoTrump is only meaningful as a contract trump.
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
	NoTrump
)

// Suits lists the four real suits.
var Suits = [4]Suit{Hearts, Diamonds, Clubs, Spades}

var suitCodes = [...]string{"H", "D", "C", "S", "-"}
var suitNames = [...]string{"hearts", "diamonds", "clubs", "spades", "none"}

func (s Suit) String() string {
	if s < Hearts || s > NoTrump {
		return fmt.Sprintf("suit(%d)", int(s))
	}
	return suitNames[s]
}

// Code returns the single-letter suit code used in card notation.
func (s Suit) Code() string {
	if s < Hearts || s > NoTrump {
		return "?"
	}
	return suitCodes[s]
}

// IsReal reports whether s is one of the four card suits.
func (s Suit) IsReal() bool { return s >= Hearts && s <= Spades }

// ParseSuit accepts either a suit name ("hearts") or code ("H").
func ParseSuit(v string) (Suit, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i := range suitNames {
		if v == suitNames[i] || v == strings.ToLower(suitCodes[i]) {
			return Suit(i), nil
		}
	}
	switch v {
	case "sun", "notrump", "no_trump":
		return NoTrump, nil
	}
	return 0, fmt.Errorf("unknown suit %q", v)
}

// Rank is one of the eight Belote ranks, in natural order.
type Rank int

const (
	Seven Rank = iota
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Ranks lists the ranks in natural order.
var Ranks = [8]Rank{Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

var rankCodes = [...]string{"7", "8", "9", "T", "J", "Q", "K", "A"}

func (r Rank) String() string {
	if r < Seven || r > Ace {
		return fmt.Sprintf("rank(%d)", int(r))
	}
	return rankCodes[r]
}

// Card is an immutable rank and suit pair.
type Card struct {
	Suit Suit
	Rank Rank
}

// String renders the card in short notation, e.g. "AH" or "TS".
func (c Card) String() string { return c.Rank.String() + c.Suit.Code() }

// ParseCard reads short notation such as "AH", "TS" or "10S".
func ParseCard(v string) (Card, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if len(v) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", v)
	}
	rankPart, suitPart := v[:len(v)-1], v[len(v)-1:]
	if rankPart == "10" {
		rankPart = "T"
	}
	suit, err := ParseSuit(suitPart)
	if err != nil || !suit.IsReal() {
		return Card{}, fmt.Errorf("invalid card %q: bad suit", v)
	}
	for i, code := range rankCodes {
		if code == rankPart {
			return Card{Suit: suit, Rank: Rank(i)}, nil
		}
	}
	return Card{}, fmt.Errorf("invalid card %q: bad rank", v)
}

// MustParseCards parses a space separated card list and panics on error.
// Intended for fixtures.
func MustParseCards(v string) []Card {
	fields := strings.Fields(v)
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}
