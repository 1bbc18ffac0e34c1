package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

const (
	defaultBaseBet         int64   = 100
	defaultFlatProbability float64 = 0.5
)

type BetTier struct {
	ID      string `json:"id"`
	BaseBet int64  `json:"base_bet"`
}

// SticksConfig tunes the stick throw randomness.
type SticksConfig struct {
	FlatProbability float64 `json:"flat_probability"`
	NakProbability  float64 `json:"nak_probability"`
}

// BotConfig tunes unattended seats.
type BotConfig struct {
	MinDelaySeconds      int    `json:"min_delay_seconds"`
	MaxDelaySeconds      int    `json:"max_delay_seconds"`
	AutoFillDelaySeconds int    `json:"auto_fill_delay_seconds"`
	Brain                string `json:"brain"`
}

type GameConfig struct {
	DefaultTier  string    `json:"default_tier"`
	Tiers        []BetTier `json:"tiers"`
	StartingGold int64     `json:"starting_gold"`
	// GoldenEffects weighs the golden cell effects by name ("bonus_throw", "free_do", "free_gae").
	GoldenEffects map[string]int `json:"golden_effects"`
	Sticks        SticksConfig   `json:"sticks"`
	Bots          BotConfig      `json:"bots"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// ParseGameConfig decodes a JSON game configuration.
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var c GameConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	for _, tier := range c.Tiers {
		if tier.BaseBet <= 0 {
			return nil, fmt.Errorf("tier %q has non-positive base bet", tier.ID)
		}
	}
	for name, w := range c.GoldenEffects {
		if w < 0 {
			return nil, fmt.Errorf("golden effect %q has negative weight", name)
		}
	}
	return &c, nil
}

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}
		c, err := ParseGameConfig(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, nil until loaded.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetBaseBet returns the base bet for a given tier ID, or the default if not found.
func GetBaseBet(tierID string) int64 {
	return cfg.BaseBet(tierID)
}

// BaseBet returns the base bet of tierID, falling back to the default tier.
func (c *GameConfig) BaseBet(tierID string) int64 {
	if c == nil {
		return defaultBaseBet
	}

	target := tierID
	if target == "" {
		target = c.DefaultTier
	}
	for _, tier := range c.Tiers {
		if tier.ID == target {
			return tier.BaseBet
		}
	}
	for _, tier := range c.Tiers {
		if tier.ID == c.DefaultTier {
			return tier.BaseBet
		}
	}
	return defaultBaseBet
}

// GoldenEffectWeights returns a copy of the configured golden effect weights; nil
// means use the built-in defaults.
func (c *GameConfig) GoldenEffectWeights() map[string]int {
	if c == nil || len(c.GoldenEffects) == 0 {
		return nil
	}
	out := make(map[string]int, len(c.GoldenEffects))
	for k, v := range c.GoldenEffects {
		out[k] = v
	}
	return out
}

// StickOdds returns the flat and Nak probabilities for stick throws.
func (c *GameConfig) StickOdds() (flat, nak float64) {
	if c == nil {
		return defaultFlatProbability, 0
	}
	flat, nak = c.Sticks.FlatProbability, c.Sticks.NakProbability
	if flat <= 0 || flat >= 1 {
		flat = defaultFlatProbability
	}
	if nak < 0 || nak >= 1 {
		nak = 0
	}
	return flat, nak
}

// StartingPurse returns the gold granted to new accounts, 0 for the built-in default.
func (c *GameConfig) StartingPurse() int64 {
	if c == nil || c.StartingGold < 0 {
		return 0
	}
	return c.StartingGold
}

// BotSettings returns the bot tuning, zero when not configured.
func (c *GameConfig) BotSettings() BotConfig {
	if c == nil {
		return BotConfig{}
	}
	return c.Bots
}
