package coach

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput marks caller data that violates a precondition.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when the bearer credential is rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned for plans or modules the caller cannot see.
	ErrNotFound = errors.New("not found")
)

// RateLimitedError is returned when the caller exceeded an operation quota.
type RateLimitedError struct {
	Operation  string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited on %s, retry after %s", e.Operation, e.RetryAfter.Round(time.Second))
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
