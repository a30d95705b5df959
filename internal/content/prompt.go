package content

import (
	"fmt"
	"strings"

	"github.com/abhisek/pathforge/internal/cascade"
	"github.com/abhisek/pathforge/internal/curriculum"
	"github.com/abhisek/pathforge/internal/progression"
)

const sectionSystemPrompt = `You are an expert author of self-study material. Write clear, motivating content pitched at the requested level and learning style. Reply with JSON only.`

// checks holds the minimal shape each section response must have.
var checks = map[Kind]cascade.ShapeCheck{
	KindIntroduction:        {MinLength: 40, RequiredMarkers: []string{cascade.Marker("content")}},
	KindDetailedExplanation: {MinLength: 40, RequiredMarkers: []string{cascade.Marker("content")}},
	KindPracticalTask:       {MinLength: 40, RequiredMarkers: []string{cascade.Marker("taskTitle")}},
	KindSummaryEvaluation:   {MinLength: 40, RequiredMarkers: []string{cascade.Marker("summary")}},
}

func buildSectionPrompt(kind Kind, m curriculum.Module, style, level string, prior *progression.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", m.Title)
	fmt.Fprintf(&b, "Description: %s\n", m.Description)
	fmt.Fprintf(&b, "Objectives: %s\n", strings.Join(m.Objectives, ", "))
	fmt.Fprintf(&b, "Target level: %s\n", level)
	fmt.Fprintf(&b, "Learning style: %s\n\n", style)

	switch kind {
	case KindIntroduction:
		b.WriteString(`Write the introduction section:
- Start from zero prior knowledge
- Explain why the topic matters
- Define the core concepts
- Use everyday examples
- About 300-400 words

JSON format:
{"content": "...", "keyPoints": ["..."], "realLifeExamples": ["..."], "whyImportant": "..."}`)

	case KindDetailedExplanation:
		b.WriteString(`Write the detailed explanation section:
- Explain the main approaches and methods
- Give at least 3 concrete, real-world examples
- Mention current developments
- About 400-500 words

JSON format:
{"content": "...", "subTopics": [{"title": "...", "content": "...", "examples": ["..."]}],
 "videoSuggestions": [{"title": "...", "description": "...", "searchTerms": ["..."], "estimatedDuration": "10-15 minutes"}],
 "technicalTerms": [{"term": "...", "definition": "..."}]}`)

	case KindPracticalTask:
		b.WriteString(`Design a hands-on task with:
- taskTitle
- taskDescription: 2-3 sentences on the goal
- instructions: 5-6 detailed steps
- completionCriteria: 4-5 criteria
- interactionQuestions: 2 items with question, expectedResponse, followUpQuestions
- estimatedTime, tools, helpHints

Respond with a single JSON object using exactly those field names.`)

	case KindSummaryEvaluation:
		b.WriteString("Learner status:\n")
		b.WriteString(performanceContext(prior))
		b.WriteString(`

Write the summary and evaluation section as JSON with:
- summary: a thorough summary of the topic (300-400 words)
- assessmentQuestions: 4 open questions, each {"question", "type": "open", "concept", "difficulty", "points": 25}
- keyLearningOutcomes, nextModulePreparation

Make the questions analytical and probe real understanding.`)
	}
	return b.String()
}

func performanceContext(prior *progression.Result) string {
	if prior == nil {
		return "No previous module performance yet."
	}
	return fmt.Sprintf("Previous module: understanding %d/5, struggled with: %s, strengths: %s",
		prior.UnderstandingLevel,
		listOr(prior.StruggledConcepts, "nothing"),
		listOr(prior.Strengths, "none recorded"))
}

func listOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
