package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithThrottle_DisabledReturnsInner(t *testing.T) {
	mock := NewMockProvider()
	p := WithThrottle(mock, ThrottleConfig{RequestsPerMinute: 0})
	assert.Same(t, mock, p)
}

func TestWithThrottle_PassesThroughWithinBurst(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"n":1}`)},
		MockResponse{Content: json.RawMessage(`{"n":2}`)},
	)
	p := WithThrottle(mock, ThrottleConfig{RequestsPerMinute: 60, Burst: 2})

	for i := 0; i < 2; i++ {
		_, err := p.Generate(context.Background(), Request{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, mock.CallCount())
	assert.Equal(t, "mock", p.ModelID())
}

func TestWithThrottle_DoesNotRetry(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{}},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	p := WithThrottle(mock, ThrottleConfig{RequestsPerMinute: 600, Burst: 1})

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	require.True(t, errors.As(err, &unavail))
	assert.Equal(t, 1, mock.CallCount())
}

func TestWithThrottle_WaitBeyondDeadline(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	// One request per minute: the second call would wait far past the deadline.
	p := WithThrottle(mock, ThrottleConfig{RequestsPerMinute: 1, Burst: 1})

	_, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = p.Generate(ctx, Request{})
	var rl *ErrRateLimit
	require.True(t, errors.As(err, &rl), "got %v", err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestWithThrottle_CancelledContext(t *testing.T) {
	p := WithThrottle(NewMockProvider(), ThrottleConfig{RequestsPerMinute: 60, Burst: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}
