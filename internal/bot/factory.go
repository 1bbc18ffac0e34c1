package bot

import (
	"fmt"
	"math/rand"
	"strings"

	"yutnori/internal/bot/brain"
)

// BotLevel selects a bot strategy.
type BotLevel int

const (
	BotLevelRandom BotLevel = iota
	BotLevelGreedy
)

// ParseBotLevel maps a difficulty name to a level. Unknown names are an error.
func ParseBotLevel(name string) (BotLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "easy", "random":
		return BotLevelRandom, nil
	case "", "medium", "hard", "greedy":
		return BotLevelGreedy, nil
	default:
		return 0, fmt.Errorf("unknown bot level: %q", name)
	}
}

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel, rng *rand.Rand) (Brain, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	switch level {
	case BotLevelRandom:
		return &RandomBot{rng: rng}, nil
	case BotLevelGreedy:
		return &GreedyBot{Memory: brain.NewMemory(), Tuning: DefaultTuning}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}

// NewAgent builds the agent for a pooled bot, using its configured difficulty.
func NewAgent(userID string, rng *rand.Rand) (*Agent, error) {
	identity, ok := GetBotConfig(userID)
	level := BotLevelGreedy
	if ok {
		level = identity.Level()
	}
	strategy, err := NewBrain(level, rng)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: userID, Name: GetBotDisplayName(userID), Strategy: strategy}, nil
}
