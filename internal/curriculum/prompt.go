package curriculum

import (
	"fmt"
	"strings"

	"github.com/abhisek/pathforge/internal/cascade"
)

const planSystemPrompt = `You are an instructional designer who builds personalized micro-learning plans. Reply with JSON only, no commentary.`

const planFormat = `{
  "title": "Plan title",
  "modules": [
    {
      "title": "Short module title",
      "description": "What the module covers",
      "objectives": ["Objective 1", "Objective 2"],
      "resources": ["Resource 1", "Resource 2"],
      "quiz": {
        "question": "Check-in question",
        "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
        "type": "multiple"
      },
      "type": "lesson"
    }
  ]
}`

// Limits applied to regeneration context.
const (
	MaxFeedbackItems     = 3
	FeedbackSnippetRunes = 80
	MaxCompletedModules  = 5
	RegeneratedModules   = 6
)

func buildPlanUserMessage(p Profile) string {
	var b strings.Builder

	b.WriteString("Learner profile:\n")
	fmt.Fprintf(&b, "- Learning goal: %s\n", p.Goal)
	fmt.Fprintf(&b, "- Daily time: %s\n", p.DailyTime)
	fmt.Fprintf(&b, "- Duration: %s\n", p.Duration)
	fmt.Fprintf(&b, "- Learning style: %s\n", orNone(p.Style))
	fmt.Fprintf(&b, "- Target level: %s\n", orNone(p.TargetLevel))

	b.WriteString("\nCreate a learning plan in this JSON format:\n")
	b.WriteString(planFormat)

	fmt.Fprintf(&b, `

Rules:
1. Create exactly %d modules.
2. Match resource types to the learning style (videos for visual, projects for practical, articles for reading).
3. Match difficulty to the target level.
4. Make every third module a "quiz" module and the last module an "exam".
5. Keep module titles under 20 characters.
6. Give every module 2-3 objectives.
7. Quiz questions must relate to the module content; use "open" for questions without options.

Respond with JSON only.`, ModuleCountFor(p.Duration))

	return b.String()
}

func buildRegenerateUserMessage(p Profile, feedbacks []Feedback, completed []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Update the learning plan for %q based on the learner's feedback.\n\n", p.Goal)
	fmt.Fprintf(&b, "Learner feedback:\n%s\n\n", summarizeFeedback(feedbacks))

	if len(completed) > MaxCompletedModules {
		completed = completed[:MaxCompletedModules]
	}
	if len(completed) == 0 {
		b.WriteString("Completed modules: none\n")
	} else {
		fmt.Fprintf(&b, "Completed modules: %s\n", strings.Join(completed, ", "))
	}

	fmt.Fprintf(&b, "\nCreate an updated plan of %d modules that addresses the feedback. Respond with JSON only, in this format:\n", RegeneratedModules)
	b.WriteString(planFormat)
	return b.String()
}

func summarizeFeedback(feedbacks []Feedback) string {
	if len(feedbacks) == 0 {
		return "No feedback yet"
	}
	if len(feedbacks) > MaxFeedbackItems {
		feedbacks = feedbacks[:MaxFeedbackItems]
	}
	parts := make([]string, 0, len(feedbacks))
	for _, f := range feedbacks {
		id := f.ModuleID
		if id == "" {
			id = "general"
		}
		parts = append(parts, fmt.Sprintf("Module %s: %s", id, truncateRunes(f.Text, FeedbackSnippetRunes)))
	}
	return strings.Join(parts, "; ")
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}

func orNone(s string) string {
	if s == "" {
		return "not specified"
	}
	return s
}

func cascadeCheck(minLength int, fields ...string) cascade.ShapeCheck {
	markers := make([]string, len(fields))
	for i, f := range fields {
		markers[i] = cascade.Marker(f)
	}
	return cascade.ShapeCheck{MinLength: minLength, RequiredMarkers: markers}
}
