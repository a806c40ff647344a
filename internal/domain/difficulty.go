package domain

import (
	"fmt"
	"strings"
)

// Difficulty is a human-readable difficulty label.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyMaster       Difficulty = "master"
	DifficultyMixed        Difficulty = "mixed"
)

// MixedOrdinal is the sentinel ordinal for DifficultyMixed: no single level, callers must expand.
const MixedOrdinal = 0

const (
	MinDifficultyLevel = 1
	MaxDifficultyLevel = 4
)

// OrdinalLevels lists the concrete difficulties in ascending order.
var OrdinalLevels = []Difficulty{
	DifficultyBeginner,
	DifficultyIntermediate,
	DifficultyAdvanced,
	DifficultyMaster,
}

var difficultyAliases = map[string]Difficulty{
	"beginner":     DifficultyBeginner,
	"easy":         DifficultyBeginner,
	"intermediate": DifficultyIntermediate,
	"medium":       DifficultyIntermediate,
	"advanced":     DifficultyAdvanced,
	"hard":         DifficultyAdvanced,
	"master":       DifficultyMaster,
	"expert":       DifficultyMaster,
	"mixed":        DifficultyMixed,
}

// ParseDifficulty converts a label (case-insensitive, aliases allowed) to a Difficulty.
func ParseDifficulty(label string) (Difficulty, error) {
	d, ok := difficultyAliases[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return "", NewInvalidRequestError(fmt.Sprintf("unknown difficulty: %q", label))
	}
	return d, nil
}

// ToOrdinal maps the difficulty to its level 1..4, or MixedOrdinal for DifficultyMixed.
func (d Difficulty) ToOrdinal() int {
	switch d {
	case DifficultyBeginner:
		return 1
	case DifficultyIntermediate:
		return 2
	case DifficultyAdvanced:
		return 3
	case DifficultyMaster:
		return 4
	default:
		return MixedOrdinal
	}
}

// IsValid reports whether d is one of the five known labels.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyMaster, DifficultyMixed:
		return true
	}
	return false
}

func (d Difficulty) String() string {
	return string(d)
}

// DifficultyFromOrdinal is the inverse of ToOrdinal for levels 1..4.
func DifficultyFromOrdinal(level int) (Difficulty, bool) {
	if level < MinDifficultyLevel || level > MaxDifficultyLevel {
		return "", false
	}
	return OrdinalLevels[level-1], true
}
