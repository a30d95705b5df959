package cascade

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathforge/internal/llm"
)

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cascade.yaml")
	doc := `
check:
  min_length: 40
  required_markers: ['"modules"']
attempts:
  - name: primary
    provider: mock
    model: m1
    timeout: 5s
    max_tokens: 1000
    temperature: 0
  - provider: mock
    model: m2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	spec, err := LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, 40, spec.Check.MinLength)
	assert.Equal(t, []string{`"modules"`}, spec.Check.RequiredMarkers)
	require.Len(t, spec.Attempts, 2)

	policy, err := Build(context.Background(), spec, llm.DefaultConfig(), llm.Deps{})
	require.NoError(t, err)
	assert.Equal(t, []string{"primary", "m2"}, policy.Names())

	first := policy.Attempts[0]
	assert.Equal(t, 5*time.Second, first.Timeout)
	assert.Equal(t, 1000, first.MaxTokens)
	assert.Equal(t, 0.0, first.Temperature)
	assert.Equal(t, "m1", first.Provider.ModelID())

	second := policy.Attempts[1]
	assert.Equal(t, DefaultTimeout, second.Timeout)
	assert.Equal(t, DefaultMaxTokens, second.MaxTokens)
	assert.Equal(t, DefaultTemperature, second.Temperature)
}

func TestParsePolicy_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no attempts", "check: {min_length: 1}\n"},
		{"missing provider", "attempts:\n  - model: x\n"},
		{"bad timeout", "attempts:\n  - provider: mock\n    timeout: soon\n"},
		{"not yaml", "attempts: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDefaultPolicySpec(t *testing.T) {
	cfg := llm.DefaultConfig()
	spec := DefaultPolicySpec(cfg)
	require.Len(t, spec.Attempts, 1)
	assert.Equal(t, "mock", spec.Attempts[0].Provider)

	cfg.Gemini.APIKey = "g"
	cfg.Anthropic.APIKey = "a"
	spec = DefaultPolicySpec(cfg)
	var names []string
	for _, a := range spec.Attempts {
		names = append(names, a.label())
	}
	assert.Equal(t, []string{"gemini-1.5-flash", "gemini-2.0-flash-exp", "anthropic"}, names)
	assert.Equal(t, "30s", spec.Attempts[0].Timeout)
}

func TestBuild_SkipsUnavailableBackends(t *testing.T) {
	spec := PolicySpec{Attempts: []AttemptSpec{
		{Provider: "openai"},
		{Name: "offline", Provider: "mock"},
	}}
	policy, err := Build(context.Background(), spec, llm.DefaultConfig(), llm.Deps{})
	require.NoError(t, err)
	assert.Equal(t, []string{"offline"}, policy.Names())

	_, err = Build(context.Background(), PolicySpec{Attempts: []AttemptSpec{{Provider: "openai"}}}, llm.DefaultConfig(), llm.Deps{})
	assert.ErrorIs(t, err, ErrNoAttempts)
}
