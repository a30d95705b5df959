package content

import (
	"fmt"
	"strings"

	"github.com/abhisek/pathforge/internal/curriculum"
)

// Templated builds the deterministic section used when every model
// failed.
func Templated(kind Kind, m curriculum.Module, style, level string) Section {
	s := Section{Kind: kind}
	switch kind {
	case KindIntroduction:
		var b strings.Builder
		fmt.Fprintf(&b, "# %s - Introduction\n\n", m.Title)
		fmt.Fprintf(&b, "This module covers %s at the %s level, presented for a %s learning style.\n\n", m.Title, level, styleOr(style))
		b.WriteString("## Goals\n")
		for i, o := range m.Objectives {
			fmt.Fprintf(&b, "%d. %s\n", i+1, o)
		}
		b.WriteString("\nLearning this topic pays off in day-to-day work and in your longer-term growth.")
		s.Content = b.String()
		s.KeyPoints = append([]string(nil), m.Objectives...)

	case KindDetailedExplanation:
		s.Content = fmt.Sprintf("# %s - In Depth\n\n%s\n\nDifficulty: %s\n\n## Main topics\n- Core concepts\n- Practical applications\n- Advanced techniques\n\n## Suggested material\n- Online videos\n- Interactive examples\n- Practice exercises",
			m.Title, m.Description, level)
		s.Videos = defaultVideos(m.Title)

	case KindPracticalTask:
		s.Task = &PracticalTask{
			Title:       m.Title + " - Practice",
			Description: fmt.Sprintf("Apply what you learned about %s in a short exercise.", m.Title),
			Instructions: []string{
				"Review the module material",
				"Study the worked examples",
				"Build your own solution",
				"Evaluate the result",
			},
			CompletionCriteria: []string{
				"All steps completed",
				"Results interpreted correctly",
				"Able to explain the concepts used",
			},
			InteractionQuestions: []InteractionQuestion{{
				Question:          "Which steps did you follow to finish the task?",
				ExpectedResponse:  "A step-by-step account",
				FollowUpQuestions: []string{"Which step was hardest?", "What other approach could you try?"},
			}},
			EstimatedTime: "30-45 minutes",
			HelpHints:     []string{"Start with small steps", "Mistakes are part of learning"},
		}
		s.Content = s.Task.Description

	case KindSummaryEvaluation:
		s.Content = fmt.Sprintf("You have completed %s. You covered the core concepts and applied them in practice.", m.Title)
		s.Questions = []AssessmentQuestion{
			{Question: fmt.Sprintf("What is the main purpose of %s?", m.Title), Type: "open", Difficulty: "easy", Concept: "Core understanding", Points: 25},
			{Question: "Which part of this topic was hardest for you, and why?", Type: "open", Difficulty: "medium", Concept: "Self-assessment", Points: 25},
		}
	}
	s.Metadata = map[string]any{MetaFallback: true, MetaDifficulty: level}
	return s
}

func defaultVideos(title string) []VideoSuggestion {
	return []VideoSuggestion{
		{Title: title + " - Core concepts", SearchTerms: []string{title, "introduction"}},
		{Title: title + " - Practical examples", SearchTerms: []string{title, "tutorial"}},
		{Title: title + " - Expert talks", SearchTerms: []string{title, "talk"}},
	}
}

func styleOr(style string) string {
	if style == "" {
		return "mixed"
	}
	return style
}
