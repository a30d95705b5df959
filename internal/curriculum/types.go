// Package curriculum turns model output into learning plans: it builds
// the plan prompts, normalizes recovered payloads into ordered modules
// and substitutes a deterministic plan when generation fails.
package curriculum

import "time"

// Kind is the role of a module within a plan.
type Kind string

const (
	KindLesson Kind = "lesson"
	KindQuiz   Kind = "quiz"
	KindExam   Kind = "exam"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindLesson, KindQuiz, KindExam:
		return true
	}
	return false
}

// QuizKind is the answer format of a module quiz.
type QuizKind string

const (
	QuizMultiple QuizKind = "multiple"
	QuizOpen     QuizKind = "open"
)

// Quiz is the single check-in question attached to a module.
type Quiz struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Kind     QuizKind `json:"type"`
}

// Position places a module on the plan map, both axes in [10, 90].
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Module is one step of a plan. IDs are plan-scoped ("1".."N") and Next
// names the successor unlocked when this module completes.
type Module struct {
	ID          string   `json:"id"`
	Order       int      `json:"order"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Objectives  []string `json:"objectives"`
	Resources   []string `json:"resources"`
	Quiz        Quiz     `json:"quiz"`
	Completed   bool     `json:"completed"`
	Unlocked    bool     `json:"unlocked"`
	Position    Position `json:"position"`
	Kind        Kind     `json:"type"`
	Next        string   `json:"next,omitempty"`
}

// Active reports whether the module is unlocked and not yet completed.
func (m Module) Active() bool { return m.Unlocked && !m.Completed }

// Plan is a learning plan.
type Plan struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	Title       string    `json:"title"`
	Modules     []Module  `json:"modules"`
	Goal        string    `json:"learningGoal"`
	Pace        string    `json:"dailyTime"`
	Duration    string    `json:"duration"`
	Style       string    `json:"learningStyle"`
	TargetLevel string    `json:"targetLevel"`
	Active      bool      `json:"active"`
	Synthetic   bool      `json:"synthetic"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// Module returns the module with the given id.
func (p *Plan) Module(id string) (*Module, bool) {
	for i := range p.Modules {
		if p.Modules[i].ID == id {
			return &p.Modules[i], true
		}
	}
	return nil, false
}

// ActiveModule returns the module currently in progress, if any.
func (p *Plan) ActiveModule() (*Module, bool) {
	for i := range p.Modules {
		if p.Modules[i].Active() {
			return &p.Modules[i], true
		}
	}
	return nil, false
}

// CompletedTitles returns the titles of completed modules in order.
func (p *Plan) CompletedTitles() []string {
	var out []string
	for _, m := range p.Modules {
		if m.Completed {
			out = append(out, m.Title)
		}
	}
	return out
}

// ApplyProfile copies the learner's answers onto the plan.
func (p *Plan) ApplyProfile(pr Profile) {
	p.Goal = pr.Goal
	p.Pace = pr.DailyTime
	p.Duration = pr.Duration
	p.Style = pr.Style
	p.TargetLevel = pr.TargetLevel
}

// Feedback is a learner comment used to steer regeneration.
type Feedback struct {
	ModuleID string
	Text     string
}
