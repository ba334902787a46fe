package bot

import (
	"fmt"
	"math/rand"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// NewBrain creates an AI brain for the given difficulty.
func NewBrain(difficulty string, rng *rand.Rand) (Brain, error) {
	switch difficulty {
	case DifficultyEasy:
		return NewNoviceBrain(rng), nil
	case DifficultyMedium:
		return NewSmartBrain(rng), nil
	case DifficultyHard:
		return NewMasterBrain(rng), nil
	default:
		return nil, fmt.Errorf("unknown bot difficulty: %q", difficulty)
	}
}
