// Package progression scores assessments and drives the module
// lifecycle: Locked, then Active once the predecessor completes, then
// Completed after a successful evaluation.
package progression

import "errors"

var (
	// ErrNoAnswers is returned when an evaluation has no answers.
	ErrNoAnswers = errors.New("no answers to evaluate")

	// ErrModuleLocked is returned when evaluating a module that has not
	// been unlocked yet.
	ErrModuleLocked = errors.New("module is locked")

	// ErrModuleNotFound is returned when the plan has no such module.
	ErrModuleNotFound = errors.New("module not found")
)

// Difficulty of a single assessment question.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Weight is the scoring weight of d. Unknown difficulties count as easy.
func (d Difficulty) Weight() int {
	switch d {
	case Hard:
		return 3
	case Medium:
		return 2
	default:
		return 1
	}
}

// NextDifficulty is the adjustment suggested for the next module.
type NextDifficulty string

const (
	Easier NextDifficulty = "easier"
	Same   NextDifficulty = "same"
	Harder NextDifficulty = "harder"
)

// Answer is one graded question.
type Answer struct {
	QuestionID    string     `json:"questionId"`
	Question      string     `json:"question"`
	UserAnswer    string     `json:"userAnswer"`
	CorrectAnswer string     `json:"correctAnswer"`
	Concept       string     `json:"concept"`
	Difficulty    Difficulty `json:"difficulty"`
}

// TaskSubmission is the learner's response to the practical task.
type TaskSubmission struct {
	Response  string            `json:"response"`
	Responses map[string]string `json:"responses,omitempty"`
}

// Submission is everything a learner hands in for one module.
type Submission struct {
	Answers  []Answer        `json:"answers"`
	Task     *TaskSubmission `json:"task,omitempty"`
	Feedback string          `json:"feedback,omitempty"`
}

// Result is the outcome of an evaluation.
type Result struct {
	UnderstandingLevel   int            `json:"understandingLevel"`
	PerformanceScore     int            `json:"performanceScore"`
	StruggledConcepts    []string       `json:"struggledConcepts"`
	Strengths            []string       `json:"strengths"`
	NextModuleDifficulty NextDifficulty `json:"nextModuleDifficulty"`
	DetailedFeedback     string         `json:"detailedFeedback"`
	Recommendations      []string       `json:"recommendations"`

	// Enriched is set when a secondary judgment contributed.
	Enriched bool `json:"enriched"`

	// Unlocked is the id of the module unlocked by this evaluation.
	Unlocked string `json:"unlocked,omitempty"`

	// rawScore is the unrounded weighted score behind PerformanceScore.
	rawScore float64
}

// score returns the unrounded score when known.
func (r Result) score() float64 {
	if r.rawScore != 0 {
		return r.rawScore
	}
	return float64(r.PerformanceScore)
}
