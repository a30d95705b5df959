package cascade

import (
	"errors"
	"fmt"
	"strings"
)

// ErrShapeRejected marks a response that failed the minimal shape check.
var ErrShapeRejected = errors.New("response failed shape check")

// ErrNoAttempts is returned by Generate when the policy is empty.
var ErrNoAttempts = errors.New("cascade policy has no attempts")

// ModelCallError is a single failed attempt.
type ModelCallError struct {
	Model string
	Err   error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// AllModelsFailedError is returned once every attempt has failed.
type AllModelsFailedError struct {
	Attempts []error
}

func (e *AllModelsFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "all models failed: " + ErrNoAttempts.Error()
	}
	msgs := make([]string, len(e.Attempts))
	for i, err := range e.Attempts {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("all %d models failed: %s", len(e.Attempts), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual attempt errors to errors.Is/As.
func (e *AllModelsFailedError) Unwrap() []error {
	if len(e.Attempts) == 0 {
		return []error{ErrNoAttempts}
	}
	return e.Attempts
}
