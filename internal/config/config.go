package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type StakeTier struct {
	ID        string `json:"id"`
	PointRate int64  `json:"point_rate"`
}

type GameConfig struct {
	HandSize            int         `json:"hand_size"`
	OpeningThreshold    int32       `json:"opening_threshold"`
	TurnDurationSeconds int         `json:"turn_duration_seconds"`
	DefaultTier         string      `json:"default_tier"`
	Tiers               []StakeTier `json:"tiers"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a solo human lobby.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
	BotMinDelayMillis       int `json:"bot_min_delay_millis"`
	BotMaxDelayMillis       int `json:"bot_max_delay_millis"`
	SessionTokenTTLMinutes  int `json:"session_token_ttl_minutes"`
	// HoldBackNearWinChance overrides how often bots that are one card from
	// going out keep their melds in hand for an extra turn. Zero keeps each
	// difficulty tier's built-in rate.
	HoldBackNearWinChance float64 `json:"hold_back_near_win_chance"`
	SolverCacheResetTurns int     `json:"solver_cache_reset_turns"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetHandSize returns the configured deal size, or the standard 14 cards.
func GetHandSize() int {
	if cfg == nil || cfg.HandSize <= 0 {
		return 14
	}
	return cfg.HandSize
}

// GetOpeningThreshold returns the configured first-meld minimum, or 51.
func GetOpeningThreshold() int32 {
	if cfg == nil || cfg.OpeningThreshold <= 0 {
		return 51
	}
	return cfg.OpeningThreshold
}

// GetTurnDurationSeconds returns the per-turn clock, or a 30 second default.
func GetTurnDurationSeconds() int {
	if cfg == nil || cfg.TurnDurationSeconds <= 0 {
		return 30
	}
	return cfg.TurnDurationSeconds
}

// GetBotAutoFillDelaySeconds returns how long a solo lobby waits before a
// bot is seated, or a 10 second default.
func GetBotAutoFillDelaySeconds() int {
	if cfg == nil || cfg.BotAutoFillDelaySeconds <= 0 {
		return 10
	}
	return cfg.BotAutoFillDelaySeconds
}

// GetBotDelayMillis returns the min and max artificial thinking time for bot
// turns.
func GetBotDelayMillis() (int, int) {
	min, max := 800, 2500
	if cfg != nil && cfg.BotMinDelayMillis > 0 {
		min = cfg.BotMinDelayMillis
	}
	if cfg != nil && cfg.BotMaxDelayMillis > min {
		max = cfg.BotMaxDelayMillis
	}
	if max < min {
		max = min
	}
	return min, max
}

// GetSessionTokenTTLMinutes returns the reconnect token lifetime, or an hour.
func GetSessionTokenTTLMinutes() int {
	if cfg == nil || cfg.SessionTokenTTLMinutes <= 0 {
		return 60
	}
	return cfg.SessionTokenTTLMinutes
}

// GetHoldBackNearWinChance returns the configured hold-back override, or -1
// when the tier defaults should stand.
func GetHoldBackNearWinChance() float64 {
	if cfg == nil || cfg.HoldBackNearWinChance <= 0 || cfg.HoldBackNearWinChance > 1 {
		return -1
	}
	return cfg.HoldBackNearWinChance
}

// GetSolverCacheResetTurns returns how many turns a bot keeps memoized hand
// decompositions before dropping them, or an 8 turn default.
func GetSolverCacheResetTurns() int {
	if cfg == nil || cfg.SolverCacheResetTurns <= 0 {
		return 8
	}
	return cfg.SolverCacheResetTurns
}

// GetPointRate returns the wallet value of one deadwood point for a tier ID,
// or the default tier's rate if not found.
func GetPointRate(tierID string) int64 {
	if cfg == nil {
		return 1 // Safe default
	}

	target := tierID
	if target == "" {
		target = cfg.DefaultTier
	}

	for _, tier := range cfg.Tiers {
		if tier.ID == target {
			return tier.PointRate
		}
	}

	// Fallback to default tier if specific ID not found
	for _, tier := range cfg.Tiers {
		if tier.ID == cfg.DefaultTier {
			return tier.PointRate
		}
	}

	return 1
}
