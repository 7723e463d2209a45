package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"belote/internal/domain"
)

// Variant names.
const (
	VariantClassic  = "classic"
	VariantSunHokom = "sun_hokom"
)

// All-pass handling.
const (
	AllPassRedeal = "redeal"
	AllPassPlay   = "play"
)

// Dealer rotation directions.
const (
	DealerClockwise        = "clockwise"
	DealerCounterClockwise = "counter_clockwise"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid game config")

// GameConfig is the tunable rule and flow configuration of a table.
type GameConfig struct {
	Variant      string   `json:"variant"`
	TargetPoints int      `json:"target_points"`
	WinByTwo     bool     `json:"win_by_two"`
	AllPass      string   `json:"all_pass"`
	SuitPriority []string `json:"suit_priority"`
	MaxBidLevel  int      `json:"max_bid_level"`
	AllowDoubles bool     `json:"allow_doubles"`

	MustFollowSuit             bool `json:"must_follow_suit"`
	MustTrumpIfVoid            bool `json:"must_trump_if_void"`
	MustOvertrump              bool `json:"must_overtrump"`
	CanDiscardIfPartnerWinning bool `json:"can_discard_if_partner_winning"`

	LastTrickBonus  int `json:"last_trick_bonus"`
	SunMultiplier   int `json:"sun_multiplier"`
	HokomMultiplier int `json:"hokom_multiplier"`

	DealerDirection string `json:"dealer_direction"`

	AIThinkDelayMs      int `json:"ai_think_delay_ms"`
	BetweenTurnsDelayMs int `json:"between_turns_delay_ms"`
	AfterPlayDelayMs    int `json:"after_play_delay_ms"`
	AfterTrickDelayMs   int `json:"after_trick_delay_ms"`
	// HumanTurnTimeoutMs is carried for clients; the engines never time out a seat.
	HumanTurnTimeoutMs int `json:"human_turn_timeout_ms"`
	MaxIllegalAttempts int `json:"max_illegal_attempts"`

	BotTakeChance float64 `json:"bot_take_chance"`
	BotLevel      string  `json:"bot_level"`
	BotScript     string  `json:"bot_script"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before filling empty seats with bots.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
}

// Default returns the classic configuration.
func Default() GameConfig {
	return GameConfig{
		Variant:                    VariantClassic,
		TargetPoints:               1000,
		AllPass:                    AllPassRedeal,
		SuitPriority:               []string{"hearts", "diamonds", "clubs", "spades"},
		MaxBidLevel:                1,
		MustFollowSuit:             true,
		MustTrumpIfVoid:            true,
		MustOvertrump:              true,
		CanDiscardIfPartnerWinning: true,
		LastTrickBonus:             10,
		SunMultiplier:              1,
		HokomMultiplier:            1,
		DealerDirection:            DealerClockwise,
		AfterPlayDelayMs:           200,
		AfterTrickDelayMs:          600,
		MaxIllegalAttempts:         3,
		BotTakeChance:              0.4,
		BotLevel:                   "easy",
		BotAutoFillDelaySeconds:    5,
	}
}

// DefaultSunHokom returns the Baloot configuration.
func DefaultSunHokom() GameConfig {
	c := Default()
	c.Variant = VariantSunHokom
	c.AllPass = AllPassPlay
	c.SuitPriority = []string{"sun", "hearts", "diamonds", "clubs", "spades"}
	c.CanDiscardIfPartnerWinning = false
	return c
}

// Validate checks enumerations and ranges.
func (c GameConfig) Validate() error {
	switch c.Variant {
	case VariantClassic, VariantSunHokom:
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidConfig, c.Variant)
	}
	switch c.AllPass {
	case AllPassRedeal, AllPassPlay:
	default:
		return fmt.Errorf("%w: unknown all_pass %q", ErrInvalidConfig, c.AllPass)
	}
	switch c.DealerDirection {
	case DealerClockwise, DealerCounterClockwise:
	default:
		return fmt.Errorf("%w: unknown dealer_direction %q", ErrInvalidConfig, c.DealerDirection)
	}
	if c.TargetPoints <= 0 {
		return fmt.Errorf("%w: target_points must be positive", ErrInvalidConfig)
	}
	if c.MaxBidLevel < 1 {
		return fmt.Errorf("%w: max_bid_level must be at least 1", ErrInvalidConfig)
	}
	if c.BotTakeChance < 0 || c.BotTakeChance > 1 {
		return fmt.Errorf("%w: bot_take_chance must be within [0,1]", ErrInvalidConfig)
	}
	if _, err := c.Priority(); err != nil {
		return err
	}
	return nil
}

// Priority parses SuitPriority.
func (c GameConfig) Priority() ([]domain.Suit, error) {
	out := make([]domain.Suit, 0, len(c.SuitPriority))
	for _, name := range c.SuitPriority {
		s, err := domain.ParseSuit(name)
		if err != nil {
			return nil, fmt.Errorf("%w: suit_priority: %v", ErrInvalidConfig, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Millis converts a millisecond setting to a duration.
func Millis(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// Load reads and validates a config file. Missing fields keep their defaults.
func Load(path string) (GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameConfig{}, fmt.Errorf("failed to read game config: %w", err)
	}
	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return GameConfig{}, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return GameConfig{}, err
	}
	return c, nil
}

// LoadGameConfig loads the process-wide configuration once. An empty path
// installs the defaults.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		if path == "" {
			d := Default()
			cfg = &d
			return
		}
		c, err := Load(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// DefaultPath is read by Get when BELOTE_CONFIG is unset.
const DefaultPath = "config/game.json"

// Get loads the process-wide configuration on first use from $BELOTE_CONFIG,
// else DefaultPath when it exists, else the defaults.
func Get() (GameConfig, error) {
	path := os.Getenv("BELOTE_CONFIG")
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if err := LoadGameConfig(path); err != nil {
		return GameConfig{}, err
	}
	return GetGameConfig(), nil
}

// GetGameConfig returns the process-wide configuration, or the defaults if
// nothing was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Default()
	}
	return *cfg
}

// ApplyEnv overrides fields from string settings such as the Nakama runtime
// env map. Keys are the JSON field names prefixed with prefix.
func (c *GameConfig) ApplyEnv(env map[string]string, prefix string) error {
	get := func(key string) (string, bool) {
		v, ok := env[prefix+key]
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	if v, ok := get("variant"); ok {
		c.Variant = v
	}
	if v, ok := get("all_pass"); ok {
		c.AllPass = v
	}
	if v, ok := get("bot_level"); ok {
		c.BotLevel = v
	}
	if v, ok := get("bot_script"); ok {
		c.BotScript = v
	}
	if v, ok := get("suit_priority"); ok {
		c.SuitPriority = strings.Split(v, ",")
	}
	ints := map[string]*int{
		"target_points":               &c.TargetPoints,
		"max_bid_level":               &c.MaxBidLevel,
		"ai_think_delay_ms":           &c.AIThinkDelayMs,
		"between_turns_delay_ms":      &c.BetweenTurnsDelayMs,
		"after_play_delay_ms":         &c.AfterPlayDelayMs,
		"after_trick_delay_ms":        &c.AfterTrickDelayMs,
		"bot_auto_fill_delay_seconds": &c.BotAutoFillDelaySeconds,
	}
	for key, dst := range ints {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
			}
			*dst = n
		}
	}
	bools := map[string]*bool{
		"win_by_two":    &c.WinByTwo,
		"allow_doubles": &c.AllowDoubles,
	}
	for key, dst := range bools {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
			}
			*dst = b
		}
	}
	return c.Validate()
}
