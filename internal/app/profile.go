package app

import (
	"fmt"

	"belote/internal/bidding"
	"belote/internal/config"
	"belote/internal/rules"
)

// BuildRules turns a config into the play profile and auction rules of its
// variant.
func BuildRules(cfg config.GameConfig) (rules.Profile, bidding.Rules, error) {
	if err := cfg.Validate(); err != nil {
		return rules.Profile{}, bidding.Rules{}, err
	}
	priority, err := cfg.Priority()
	if err != nil {
		return rules.Profile{}, bidding.Rules{}, err
	}
	flags := rules.LegalFlags{
		MustFollowSuit:             cfg.MustFollowSuit,
		MustTrumpIfVoid:            cfg.MustTrumpIfVoid,
		MustOvertrump:              cfg.MustOvertrump,
		CanDiscardIfPartnerWinning: cfg.CanDiscardIfPartnerWinning,
	}
	opts := bidding.Options{MaxLevel: cfg.MaxBidLevel, Priority: priority, AllowDoubles: cfg.AllowDoubles}

	switch cfg.Variant {
	case config.VariantClassic:
		return rules.NewClassicProfile(flags, cfg.LastTrickBonus), bidding.NewClassicRules(opts), nil
	case config.VariantSunHokom:
		return rules.NewSunHokomProfile(flags, cfg.LastTrickBonus, cfg.SunMultiplier, cfg.HokomMultiplier), bidding.NewSunHokomRules(opts), nil
	}
	return rules.Profile{}, bidding.Rules{}, fmt.Errorf("%w: unknown variant %q", config.ErrInvalidConfig, cfg.Variant)
}
