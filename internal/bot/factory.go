package bot

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"belote/internal/config"
	"belote/internal/rules"
)

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel, cfg config.GameConfig, rng *rand.Rand, logger *zap.Logger) (Brain, error) {
	switch level {
	case BotLevelEasy:
		return NewEasyBot(cfg.BotTakeChance, rng), nil
	case BotLevelGood:
		return &GoodBot{Tuning: DefaultTuning}, nil
	case BotLevelScript:
		if cfg.BotScript == "" {
			return nil, fmt.Errorf("bot level %q needs bot_script", level)
		}
		return LoadScriptBrain(cfg.BotScript, &GoodBot{Tuning: DefaultTuning}, logger)
	default:
		return nil, fmt.Errorf("unknown bot level: %q", level)
	}
}

// NewAgentFromConfig builds an agent of the configured bot level.
func NewAgentFromConfig(id, name string, cfg config.GameConfig, profile rules.Profile, rng *rand.Rand, logger *zap.Logger) (*Agent, error) {
	level, err := ParseBotLevel(cfg.BotLevel)
	if err != nil {
		return nil, err
	}
	b, err := NewBrain(level, cfg, rng, logger)
	if err != nil {
		return nil, err
	}
	return NewAgent(id, name, b, profile, logger), nil
}
