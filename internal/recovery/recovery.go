// Package recovery turns loosely JSON-shaped model output into a parsed
// value. Repair runs an ordered list of stages; each stage applies pure
// text transforms and the result is parsed after every stage, so output
// that is only wrapped in fences or prose short-circuits early.
package recovery

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Transform is a single pure text rewrite.
type Transform struct {
	Name  string
	Apply func(string) string
}

// Stage groups transforms that run before one parse attempt.
type Stage struct {
	Name       string
	Transforms []Transform
}

// StageDirect is the name reported when the raw text parsed as-is.
const StageDirect = "direct"

// Result describes a successful repair.
type Result struct {
	Value any
	Stage string // name of the stage whose output parsed
	Text  string // the text that parsed
}

// RecoveryError is returned when no stage produced parseable JSON.
type RecoveryError struct {
	Stage string // furthest stage attempted
	Text  string // intermediate text after that stage
	Err   error  // last parse error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("recover structured output: unparseable after stage %q: %v", e.Stage, e.Err)
}

func (e *RecoveryError) Unwrap() error { return e.Err }

// Engine runs a fixed sequence of stages.
type Engine struct {
	stages []Stage
}

// New creates an Engine running the given stages in order after the
// direct parse attempt.
func New(stages ...Stage) *Engine {
	return &Engine{stages: stages}
}

var (
	// Strict runs framing and syntactic repair.
	Strict = New(FramingStage(), SyntaxStage())

	// Lax adds the aggressive stage, for prompts whose output is known to
	// drift further from JSON (plan regeneration).
	Lax = New(FramingStage(), SyntaxStage(), AggressiveStage())
)

// Repair recovers a value from raw using the Strict engine.
func Repair(raw string) (any, error) {
	res, err := Strict.Run(raw)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// RepairLax recovers a value from raw using the Lax engine.
func RepairLax(raw string) (any, error) {
	res, err := Lax.Run(raw)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Stages returns the stage names in execution order, including the
// implicit direct stage.
func (e *Engine) Stages() []string {
	names := []string{StageDirect}
	for _, s := range e.stages {
		names = append(names, s.Name)
	}
	return names
}

// Run repairs raw and reports which stage succeeded.
func (e *Engine) Run(raw string) (Result, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Result{}, &RecoveryError{Stage: StageDirect, Err: fmt.Errorf("empty input")}
	}

	v, err := parse(text)
	if err == nil {
		return Result{Value: v, Stage: StageDirect, Text: text}, nil
	}

	stage := StageDirect
	for _, s := range e.stages {
		for _, t := range s.Transforms {
			text = t.Apply(text)
		}
		stage = s.Name
		v, err = parse(text)
		if err == nil {
			return Result{Value: v, Stage: s.Name, Text: text}, nil
		}
	}

	return Result{}, &RecoveryError{Stage: stage, Text: text, Err: err}
}

// Decode repairs raw and decodes the recovered value into out.
func (e *Engine) Decode(raw string, out any) (Result, error) {
	res, err := e.Run(raw)
	if err != nil {
		return res, err
	}
	b, err := json.Marshal(res.Value)
	if err != nil {
		return res, fmt.Errorf("re-encode recovered value: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return res, fmt.Errorf("decode recovered value: %w", err)
	}
	return res, nil
}

func parse(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return v, nil
}
