package curriculum

import (
	"fmt"
	"strings"
)

// SyntheticPlan builds the template plan used when no model produced a
// usable one. It has ModuleCountFor(p.Duration) modules and satisfies
// the same invariants as a normalized model plan.
func SyntheticPlan(p Profile) Plan {
	goal := goalOrDefault(p.Goal)
	n := ModuleCountFor(p.Duration)
	resources := resourcesFor(p.Style)

	modules := make([]Module, n)
	for i := range modules {
		kind := kindAt(i, n)
		modules[i] = Module{
			Title:       fmt.Sprintf("%s - Module %d", goal, i+1),
			Description: fmt.Sprintf("In this module you work through the %s fundamentals of %s.", levelWord(p.TargetLevel), goal),
			Objectives: []string{
				fmt.Sprintf("Core concepts of %s", goal),
				"Practical applications",
			},
			Resources: append([]string(nil), resources...),
			Quiz:      syntheticQuiz(goal, kind),
			Kind:      kind,
		}
	}

	plan := Plan{
		Title:     defaultPlanTitle(p.Goal),
		Modules:   NormalizeModules(modules, p.Goal),
		Synthetic: true,
	}
	plan.ApplyProfile(p)
	return plan
}

// RegenerationFallback is the fixed plan used when regeneration fails.
func RegenerationFallback(p Profile) Plan {
	modules := []Module{
		{
			Title:       "A Fresh Start",
			Description: "Content reworked around your feedback.",
			Objectives:  []string{"An improved learning experience", "A more personal approach"},
			Resources:   []string{"Updated material", "Improved exercises"},
			Quiz:        Quiz{Question: "How does this new approach work for you?", Kind: QuizOpen},
			Kind:        KindLesson,
		},
		{
			Title:       "Advanced Topics",
			Description: "Deeper, practice-oriented content.",
			Objectives:  []string{"Advanced skills", "Real-world applications"},
			Resources:   []string{"Practical projects", "Real examples"},
			Quiz: Quiz{
				Question: "Which kind of content helps you most?",
				Options:  []string{"Theory", "Practice", "Projects", "Examples"},
				Kind:     QuizMultiple,
			},
			Kind: KindLesson,
		},
		{
			Title:       "Final Assessment",
			Description: "A complete review of your progress and next steps.",
			Objectives:  []string{"Overall review", "Progress measurement"},
			Resources:   []string{"Assessment tools"},
			Quiz: Quiz{
				Question: "How satisfied are you overall?",
				Options:  []string{"Very satisfied", "Satisfied", "Neutral", "Needs work"},
				Kind:     QuizMultiple,
			},
			Kind: KindExam,
		},
	}

	plan := Plan{
		Title:     "Updated Learning Plan",
		Modules:   NormalizeModules(modules, p.Goal),
		Synthetic: true,
	}
	plan.ApplyProfile(p)
	return plan
}

func syntheticQuiz(goal string, kind Kind) Quiz {
	if kind == KindLesson {
		return Quiz{
			Question: fmt.Sprintf("Which topic about %s did you learn the most from in this module?", goal),
			Kind:     QuizOpen,
		}
	}
	return Quiz{
		Question: fmt.Sprintf("How confident are you applying %s so far?", goal),
		Options:  []string{"Very confident", "Fairly confident", "Unsure", "Not yet"},
		Kind:     QuizMultiple,
	}
}

func resourcesFor(style string) []string {
	switch strings.ToLower(style) {
	case "visual":
		return []string{"Video walkthroughs", "Diagrams and infographics"}
	case "practical":
		return []string{"Hands-on exercises", "A small guided project"}
	case "reading":
		return []string{"Articles and documentation", "Recommended book chapters"}
	default:
		return []string{"Interactive learning material", "Video tutorials", "Worked examples"}
	}
}

func levelWord(level string) string {
	switch strings.ToLower(level) {
	case "intermediate":
		return "intermediate"
	case "advanced":
		return "advanced"
	default:
		return "essential"
	}
}
