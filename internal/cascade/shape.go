package cascade

import (
	"fmt"
	"strings"
)

// ShapeCheck is the minimal plausibility test a response must pass
// before it is handed to the recovery engine.
type ShapeCheck struct {
	// MinLength is the minimum trimmed length in bytes.
	MinLength int `yaml:"min_length"`

	// RequiredMarkers must all occur in the response text, e.g. a
	// top-level field name in quotes.
	RequiredMarkers []string `yaml:"required_markers"`
}

// IsZero reports whether the check accepts everything.
func (c ShapeCheck) IsZero() bool {
	return c.MinLength == 0 && len(c.RequiredMarkers) == 0
}

// Validate returns an error wrapping ErrShapeRejected when text fails.
func (c ShapeCheck) Validate(text string) error {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < c.MinLength {
		return fmt.Errorf("%w: %d bytes, want at least %d", ErrShapeRejected, len(trimmed), c.MinLength)
	}
	for _, m := range c.RequiredMarkers {
		if !strings.Contains(trimmed, m) {
			return fmt.Errorf("%w: missing marker %s", ErrShapeRejected, m)
		}
	}
	return nil
}

// Marker quotes a field name the way it appears in JSON output.
func Marker(field string) string {
	return `"` + field + `"`
}
