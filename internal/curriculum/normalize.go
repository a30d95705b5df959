package curriculum

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyPlan is returned when a candidate carries no usable modules.
var ErrEmptyPlan = errors.New("candidate plan has no modules")

// Normalize turns a recovered candidate value into a plan whose modules
// satisfy every invariant: sequential ids and Next references, non-empty
// objectives and resources, a usable quiz, a kind, a position on the
// track, and only the first module unlocked. Missing text is derived
// from goal. Profile fields are left for the caller to fill.
func Normalize(candidate any, goal string) (Plan, error) {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return Plan{}, fmt.Errorf("%w: candidate is %T, not an object", ErrEmptyPlan, candidate)
	}

	var raw []any
	if list, ok := obj["modules"].([]any); ok {
		raw = list
	}
	var modules []Module
	for _, v := range raw {
		if m, ok := moduleFromValue(v); ok {
			modules = append(modules, m)
		}
	}
	if len(modules) == 0 {
		return Plan{}, ErrEmptyPlan
	}

	title := text(obj["title"])
	if title == "" {
		title = defaultPlanTitle(goal)
	}
	return Plan{Title: title, Modules: NormalizeModules(modules, goal)}, nil
}

// NormalizeModules applies the module invariants in place and returns
// the slice.
func NormalizeModules(modules []Module, goal string) []Module {
	n := len(modules)
	for i := range modules {
		m := &modules[i]
		m.ID = strconv.Itoa(i + 1)
		m.Order = i
		m.Next = ""
		if i < n-1 {
			m.Next = strconv.Itoa(i + 2)
		}

		if m.Title == "" {
			m.Title = fmt.Sprintf("Module %d", i+1)
		}
		if m.Description == "" {
			m.Description = fmt.Sprintf("A focused step toward %s.", goalOrDefault(goal))
		}
		m.Objectives = nonEmpty(m.Objectives)
		if len(m.Objectives) == 0 {
			m.Objectives = []string{fmt.Sprintf("Build practical skill in %s", goalOrDefault(goal))}
		}
		m.Resources = nonEmpty(m.Resources)
		if len(m.Resources) == 0 {
			m.Resources = []string{fmt.Sprintf("Curated material on %s", goalOrDefault(goal))}
		}
		m.Quiz = normalizeQuiz(m.Quiz, goal)

		if !m.Kind.Valid() {
			m.Kind = kindAt(i, n)
		}
		m.Position = PositionAt(i, n)
		m.Unlocked = i == 0
		m.Completed = false
	}
	return modules
}

// kindAt is the default kind for index i of n: the last module is the
// exam and every third module before it is a quiz.
func kindAt(i, n int) Kind {
	switch {
	case i == n-1:
		return KindExam
	case (i+1)%3 == 0:
		return KindQuiz
	default:
		return KindLesson
	}
}

// PositionAt places module i of n on a single vertical track running
// from y=90 down to y=10.
func PositionAt(i, n int) Position {
	span := float64(n - 1)
	if span <= 0 {
		span = 1
	}
	y := math.Max(10, 90-float64(i)*80/span)
	return Position{X: 50, Y: y}
}

func normalizeQuiz(q Quiz, goal string) Quiz {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return defaultQuiz(goal)
	}
	q.Options = nonEmpty(q.Options)
	switch {
	case q.Kind == QuizMultiple && len(q.Options) < 2:
		q.Kind, q.Options = QuizOpen, nil
	case q.Kind == QuizOpen:
		q.Options = nil
	case q.Kind != QuizMultiple:
		if len(q.Options) >= 2 {
			q.Kind = QuizMultiple
		} else {
			q.Kind, q.Options = QuizOpen, nil
		}
	}
	return q
}

func defaultQuiz(goal string) Quiz {
	return Quiz{
		Question: fmt.Sprintf("What was the most important thing you learned about %s in this module?", goalOrDefault(goal)),
		Kind:     QuizOpen,
	}
}

func defaultPlanTitle(goal string) string {
	if strings.TrimSpace(goal) == "" {
		return "Personalized Learning Plan"
	}
	return goal + " Learning Plan"
}

func goalOrDefault(goal string) string {
	if g := strings.TrimSpace(goal); g != "" {
		return g
	}
	return "your goal"
}

// moduleFromValue reads one candidate module. Bare strings are taken as
// titles; anything else that is not an object is skipped.
func moduleFromValue(v any) (Module, bool) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return Module{}, false
		}
		return Module{Title: strings.TrimSpace(x)}, true
	case map[string]any:
		m := Module{
			Title:       text(x["title"]),
			Description: text(x["description"]),
			Objectives:  textList(x["objectives"]),
			Resources:   textList(x["resources"]),
			Kind:        Kind(strings.ToLower(text(x["type"]))),
		}
		if m.Kind == "" {
			m.Kind = Kind(strings.ToLower(text(x["kind"])))
		}
		if q, ok := x["quiz"].(map[string]any); ok {
			m.Quiz = Quiz{
				Question: text(q["question"]),
				Options:  textList(q["options"]),
				Kind:     QuizKind(strings.ToLower(text(q["type"]))),
			}
		}
		return m, true
	}
	return Module{}, false
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func textList(v any) []string {
	switch x := v.(type) {
	case string:
		return nonEmpty([]string{x})
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, text(item))
		}
		return nonEmpty(out)
	}
	return nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
