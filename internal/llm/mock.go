package llm

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"
)

// errMockExhausted is wrapped in ErrProviderUnavailable once the script
// runs out, so an offline cascade falls through to the synthetic result.
var errMockExhausted = errors.New("mock: no scripted responses left")

// MockResponse is one scripted reply.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// StopReason defaults to StopEnd.
	StopReason string

	// Delay holds the reply back; ctx ending first fails the call with
	// the context error.
	Delay time.Duration
}

// TextResponse scripts raw model text.
func TextResponse(text string) MockResponse {
	return MockResponse{Content: json.RawMessage(text)}
}

// MockProvider replays scripted replies in order and keeps every request.
// It backs tests and the keyless offline mode.
type MockProvider struct {
	mu       sync.Mutex
	id       string
	script   []MockResponse
	requests []Request
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{id: "mock", script: script}
}

// WithModelID sets the name reported by ModelID and Response.Model.
func (m *MockProvider) WithModelID(id string) *MockProvider {
	m.mu.Lock()
	m.id = id
	m.mu.Unlock()
	return m
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.script) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{Err: errMockExhausted}
	}
	next := m.script[0]
	m.script = m.script[1:]
	id := m.id
	m.mu.Unlock()

	if next.Delay > 0 {
		t := time.NewTimer(next.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if next.Err != nil {
		return nil, next.Err
	}

	stop := next.StopReason
	if stop == "" {
		stop = StopEnd
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: id, StopReason: stop}, nil
}

func (m *MockProvider) ModelID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// AddResponse appends to the script.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	m.script = append(m.script, resp)
	m.mu.Unlock()
}

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
