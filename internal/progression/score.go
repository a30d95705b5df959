package progression

import (
	"fmt"
	"math"
	"strings"
)

// Score returns the difficulty-weighted percentage of correct answers.
// With no answers the score is 0.
func Score(answers []Answer) float64 {
	var correct, total int
	for _, a := range answers {
		w := a.Difficulty.Weight()
		total += w
		if IsCorrect(a) {
			correct += w
		}
	}
	if total == 0 {
		return unweighted(answers)
	}
	return 100 * float64(correct) / float64(total)
}

func unweighted(answers []Answer) float64 {
	if len(answers) == 0 {
		return 0
	}
	n := 0
	for _, a := range answers {
		if IsCorrect(a) {
			n++
		}
	}
	return 100 * float64(n) / float64(len(answers))
}

// IsCorrect compares answers case-insensitively after trimming.
func IsCorrect(a Answer) bool {
	return strings.EqualFold(strings.TrimSpace(a.UserAnswer), strings.TrimSpace(a.CorrectAnswer))
}

// Band maps a score to an understanding level and a next-module
// difficulty. Band never suggests Harder; only enrichment can.
func Band(score float64) (level int, next NextDifficulty) {
	switch {
	case score >= 80:
		level = 5
	case score >= 60:
		level = 4
	case score >= 40:
		level = 3
	case score >= 20:
		level = 2
	default:
		level = 1
	}
	if score >= 40 {
		return level, Same
	}
	return level, Easier
}

// Assess scores answers deterministically.
func Assess(answers []Answer) (Result, error) {
	if len(answers) == 0 {
		return Result{}, ErrNoAnswers
	}

	score := Score(answers)
	level, next := Band(score)

	var struggled, strengths []string
	seenS, seenG := map[string]bool{}, map[string]bool{}
	correct := 0
	for _, a := range answers {
		concept := strings.TrimSpace(a.Concept)
		if IsCorrect(a) {
			correct++
			if concept != "" && !seenG[concept] {
				seenG[concept] = true
				strengths = append(strengths, concept)
			}
			continue
		}
		if concept != "" && !seenS[concept] {
			seenS[concept] = true
			struggled = append(struggled, concept)
		}
	}

	rounded := int(math.Round(score))
	return Result{
		UnderstandingLevel:   level,
		PerformanceScore:     rounded,
		StruggledConcepts:    struggled,
		Strengths:            strengths,
		NextModuleDifficulty: next,
		DetailedFeedback:     fmt.Sprintf("You answered %d of %d questions correctly (score %d/100).", correct, len(answers), rounded),
		Recommendations:      recommend(struggled, next),
		rawScore:             score,
	}, nil
}

func recommend(struggled []string, next NextDifficulty) []string {
	var out []string
	for _, c := range struggled {
		out = append(out, "Review "+c)
	}
	switch next {
	case Easier:
		out = append(out, "Revisit the module material before moving on")
	default:
		out = append(out, "Continue to the next module")
	}
	return out
}
