package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Failure classes reported by Classify. They label cascade logs and
// attempt metrics.
const (
	FailureRateLimit   = "rate_limit"
	FailureUnavailable = "unavailable"
	FailureInvalid     = "invalid_response"
	FailureTruncated   = "truncated"
	FailureTimeout     = "timeout"
	FailureCanceled    = "canceled"
	FailureOther       = "error"
)

// ErrRateLimit means the backend refused the call with 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the backend answered but the answer is
// unusable: no text, blocked, or not matching a requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable means the backend could not serve the call:
// network failure, 5xx, rejected credentials, or an exhausted mock.
type ErrProviderUnavailable struct {
	Status int // HTTP status when known
	Err    error
}

func (e *ErrProviderUnavailable) Error() string {
	switch {
	case e.Err == nil:
		return "model backend unavailable"
	case e.Status != 0:
		return fmt.Sprintf("model backend unavailable (%d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("model backend unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means the response was cut at the token limit
// and could not be used as is.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "model response truncated at max tokens"
}

// statusError maps an HTTP failure of any backend onto the typed errors.
// header may be nil.
func statusError(status int, header http.Header, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{RetryAfter: retryAfter(header), Err: err}
	}
	return &ErrProviderUnavailable{Status: status, Err: err}
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Classify names the failure class of err.
func Classify(err error) string {
	var (
		rl    *ErrRateLimit
		inv   *ErrInvalidResponse
		trunc *ErrMaxTokensExceeded
		down  *ErrProviderUnavailable
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case errors.As(err, &rl):
		return FailureRateLimit
	case errors.As(err, &trunc):
		return FailureTruncated
	case errors.As(err, &inv):
		return FailureInvalid
	case errors.As(err, &down):
		return FailureUnavailable
	}
	return FailureOther
}
