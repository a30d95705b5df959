package curriculum

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProfile is returned when required profile answers are missing.
var ErrInvalidProfile = errors.New("invalid learner profile")

// Profile holds the learner's onboarding answers.
type Profile struct {
	Goal        string `json:"learningGoal"`
	DailyTime   string `json:"dailyTime"`
	Duration    string `json:"duration"`
	Style       string `json:"learningStyle"`
	TargetLevel string `json:"targetLevel"`
}

// Validate checks that goal, pace and duration are present.
func (p Profile) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Goal) == "" {
		missing = append(missing, "goal")
	}
	if strings.TrimSpace(p.DailyTime) == "" {
		missing = append(missing, "daily time")
	}
	if strings.TrimSpace(p.Duration) == "" {
		missing = append(missing, "duration")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidProfile, strings.Join(missing, ", "))
	}
	return nil
}

var moduleCounts = map[string]int{
	"2weeks":  5,
	"4weeks":  7,
	"8weeks":  10,
	"12weeks": 12,
}

// DefaultModuleCount applies to durations outside the known set.
const DefaultModuleCount = 7

// ModuleCountFor returns the plan length expected for a duration.
func ModuleCountFor(duration string) int {
	if n, ok := moduleCounts[duration]; ok {
		return n
	}
	return DefaultModuleCount
}
