package bot

import (
	"fmt"

	"belote/internal/bidding"
	"belote/internal/bot/brain"
	"belote/internal/domain"
	"belote/internal/play"
	"belote/internal/rules"
)

// View is what a brain may look at besides the request: the hand dealt to
// the seat, the card memory and the ordering and point tables in force.
type View struct {
	Hand     []domain.Card
	Memory   *brain.GameMemory
	Ordering rules.OrderingPolicy
	Scoring  rules.ScoringPolicy
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	ChooseBid(v View, req bidding.BidRequest) domain.Bid
	ChooseCard(v View, req play.ChooseRequest) domain.Card
}

// BotLevel selects a brain.
type BotLevel string

const (
	BotLevelEasy   BotLevel = "easy"
	BotLevelGood   BotLevel = "good"
	BotLevelScript BotLevel = "script"
)

// ParseBotLevel validates a configured level name.
func ParseBotLevel(v string) (BotLevel, error) {
	switch l := BotLevel(v); l {
	case BotLevelEasy, BotLevelGood, BotLevelScript:
		return l, nil
	}
	return "", fmt.Errorf("unknown bot level: %q", v)
}
