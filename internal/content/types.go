// Package content generates the four sections of a module's study
// material. Each section is generated on its own and falls back to a
// templated section, so one failing prompt never fails the batch.
package content

import (
	"encoding/json"

	"github.com/abhisek/pathforge/internal/curriculum"
	"github.com/abhisek/pathforge/internal/progression"
)

// Kind identifies a section.
type Kind string

const (
	KindIntroduction        Kind = "introduction"
	KindDetailedExplanation Kind = "detailed_explanation"
	KindPracticalTask       Kind = "practical_task"
	KindSummaryEvaluation   Kind = "summary_evaluation"
)

// Kinds lists every section kind in presentation order.
var Kinds = []Kind{KindIntroduction, KindDetailedExplanation, KindPracticalTask, KindSummaryEvaluation}

// Metadata keys set on generated sections.
const (
	MetaRawResponse = "raw_response"
	MetaFallback    = "fallback"
	MetaDifficulty  = "difficulty"
	MetaModel       = "model"
)

// Section is one generated part of a module.
type Section struct {
	Kind      Kind                 `json:"kind"`
	Content   string               `json:"content"`
	KeyPoints []string             `json:"keyPoints,omitempty"`
	Task      *PracticalTask       `json:"task,omitempty"`
	Questions []AssessmentQuestion `json:"questions,omitempty"`
	Videos    []VideoSuggestion    `json:"videoSuggestions,omitempty"`
	Metadata  map[string]any       `json:"metadata,omitempty"`
}

// Fallback reports whether the section came from a template.
func (s Section) Fallback() bool {
	v, _ := s.Metadata[MetaFallback].(bool)
	return v
}

// RawResponse reports whether the section holds unparsed model text.
func (s Section) RawResponse() bool {
	v, _ := s.Metadata[MetaRawResponse].(bool)
	return v
}

// VideoSuggestion is a search hint for supporting video material.
type VideoSuggestion struct {
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	SearchTerms       []string `json:"searchTerms,omitempty"`
	EstimatedDuration string   `json:"estimatedDuration,omitempty"`
}

// UnmarshalJSON accepts either an object or a bare title string.
func (v *VideoSuggestion) UnmarshalJSON(b []byte) error {
	var title string
	if err := json.Unmarshal(b, &title); err == nil {
		*v = VideoSuggestion{Title: title}
		return nil
	}
	type plain VideoSuggestion
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*v = VideoSuggestion(p)
	return nil
}

// PracticalTask is the hands-on exercise of a module.
type PracticalTask struct {
	Title                string                `json:"taskTitle"`
	Description          string                `json:"taskDescription"`
	Instructions         []string              `json:"instructions"`
	CompletionCriteria   []string              `json:"completionCriteria"`
	InteractionQuestions []InteractionQuestion `json:"interactionQuestions,omitempty"`
	EstimatedTime        string                `json:"estimatedTime,omitempty"`
	Tools                []string              `json:"tools,omitempty"`
	HelpHints            []string              `json:"helpHints,omitempty"`
}

// InteractionQuestion checks understanding while the task is underway.
type InteractionQuestion struct {
	Question          string   `json:"question"`
	ExpectedResponse  string   `json:"expectedResponse"`
	FollowUpQuestions []string `json:"followUpQuestions,omitempty"`
}

// AssessmentQuestion is an open question of the summary section.
type AssessmentQuestion struct {
	Question   string `json:"question"`
	Type       string `json:"type"`
	Difficulty string `json:"difficulty,omitempty"`
	Concept    string `json:"concept,omitempty"`
	Points     int    `json:"points,omitempty"`
}

// Request describes the module to generate content for.
type Request struct {
	PlanID string
	Module curriculum.Module
	Style  string
	Level  string

	// Prior is the evaluation of the previous module, if any.
	Prior *progression.Result
}
