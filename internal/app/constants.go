package app

// EnvPrefix prefixes runtime environment overrides of the game config.
const EnvPrefix = "belote_"

// MaxConsecutiveRedeals bounds all-pass redeals before the match is stopped
// with ErrTooManyRedeals.
const MaxConsecutiveRedeals = 64
