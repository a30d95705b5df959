package content

import (
	"fmt"
	"strings"

	"github.com/abhisek/pathforge/internal/recovery"
)

type introductionOutput struct {
	Content          string   `json:"content"`
	KeyPoints        []string `json:"keyPoints"`
	RealLifeExamples []string `json:"realLifeExamples"`
	WhyImportant     string   `json:"whyImportant"`
}

type explanationOutput struct {
	Content          string            `json:"content"`
	VideoSuggestions []VideoSuggestion `json:"videoSuggestions"`
}

type summaryOutput struct {
	Summary             string               `json:"summary"`
	AssessmentQuestions []AssessmentQuestion `json:"assessmentQuestions"`
	KeyLearningOutcomes []string             `json:"keyLearningOutcomes"`
}

// parseSection turns model text into a section. The section is always
// usable: text that cannot be recovered, or that lacks the section's main
// field, becomes the content verbatim with raw_response set, and the
// returned error says why.
func parseSection(kind Kind, text, moduleTitle string) (Section, error) {
	s, err := decodeSection(kind, text)
	if err != nil {
		s = Section{Kind: kind, Content: text, Metadata: map[string]any{MetaRawResponse: true}}
		if kind == KindDetailedExplanation {
			s.Videos = defaultVideos(moduleTitle)
		}
		return s, err
	}
	s.Kind = kind
	s.Metadata = map[string]any{}
	return s, nil
}

func decodeSection(kind Kind, text string) (Section, error) {
	switch kind {
	case KindIntroduction:
		var out introductionOutput
		if _, err := recovery.Strict.Decode(text, &out); err != nil {
			return Section{}, err
		}
		if blank(out.Content) {
			return Section{}, missing("content")
		}
		return Section{Content: out.Content, KeyPoints: out.KeyPoints}, nil

	case KindDetailedExplanation:
		var out explanationOutput
		if _, err := recovery.Strict.Decode(text, &out); err != nil {
			return Section{}, err
		}
		if blank(out.Content) {
			return Section{}, missing("content")
		}
		return Section{Content: out.Content, Videos: out.VideoSuggestions}, nil

	case KindPracticalTask:
		var out PracticalTask
		if _, err := recovery.Strict.Decode(text, &out); err != nil {
			return Section{}, err
		}
		if blank(out.Title) {
			return Section{}, missing("taskTitle")
		}
		return Section{Content: out.Description, Task: &out}, nil

	case KindSummaryEvaluation:
		var out summaryOutput
		if _, err := recovery.Strict.Decode(text, &out); err != nil {
			return Section{}, err
		}
		if blank(out.Summary) {
			return Section{}, missing("summary")
		}
		return Section{Content: out.Summary, Questions: out.AssessmentQuestions, KeyPoints: out.KeyLearningOutcomes}, nil
	}
	return Section{}, fmt.Errorf("unknown section kind %q", kind)
}

func missing(field string) error { return fmt.Errorf("recovered value has no %q", field) }

func blank(s string) bool { return strings.TrimSpace(s) == "" }
