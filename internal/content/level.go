package content

import "github.com/abhisek/pathforge/internal/progression"

// Levels in ascending order.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// AdaptLevel shifts target by one step in the direction suggested by
// the previous module's evaluation. An empty target is beginner.
func AdaptLevel(target string, prior *progression.Result) string {
	if target == "" {
		target = LevelBeginner
	}
	if prior == nil {
		return target
	}
	switch prior.NextModuleDifficulty {
	case progression.Easier:
		switch target {
		case LevelAdvanced:
			return LevelIntermediate
		default:
			return LevelBeginner
		}
	case progression.Harder:
		switch target {
		case LevelBeginner:
			return LevelIntermediate
		default:
			return LevelAdvanced
		}
	}
	return target
}
