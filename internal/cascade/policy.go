package cascade

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/pathforge/internal/llm"
)

// Default sampling settings for generated attempts.
const (
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.2
)

// PolicySpec is the serializable form of a Policy.
//
//	check:
//	  min_length: 50
//	attempts:
//	  - name: primary
//	    provider: gemini
//	    model: gemini-1.5-flash
//	    timeout: 30s
type PolicySpec struct {
	Check    ShapeCheck    `yaml:"check"`
	Attempts []AttemptSpec `yaml:"attempts"`
}

// AttemptSpec describes one attempt in a PolicySpec.
type AttemptSpec struct {
	Name        string   `yaml:"name"`
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	Timeout     string   `yaml:"timeout"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
}

func (a AttemptSpec) label() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Model != "" {
		return a.Model
	}
	return a.Provider
}

// LoadPolicyFile reads a YAML PolicySpec from path.
func LoadPolicyFile(path string) (PolicySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PolicySpec{}, fmt.Errorf("read cascade policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML PolicySpec.
func ParsePolicy(data []byte) (PolicySpec, error) {
	var spec PolicySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return PolicySpec{}, fmt.Errorf("parse cascade policy: %w", err)
	}
	if len(spec.Attempts) == 0 {
		return PolicySpec{}, ErrNoAttempts
	}
	for i, a := range spec.Attempts {
		if a.Provider == "" {
			return PolicySpec{}, fmt.Errorf("cascade policy attempt %d: provider is required", i+1)
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return PolicySpec{}, fmt.Errorf("cascade policy attempt %d: bad timeout %q: %w", i+1, a.Timeout, err)
			}
		}
	}
	return spec, nil
}

// DefaultPolicySpec lists the two Gemini models first, then one attempt
// for every other backend with a key. Without any keys it falls back to
// a single mock attempt so the synthetic generators still run offline.
func DefaultPolicySpec(cfg llm.Config) PolicySpec {
	timeout := cfg.Timeout.String()
	if cfg.Timeout <= 0 {
		timeout = DefaultTimeout.String()
	}

	var spec PolicySpec
	for _, p := range cfg.Available() {
		switch p {
		case "gemini":
			spec.Attempts = append(spec.Attempts,
				AttemptSpec{Name: "gemini-1.5-flash", Provider: p, Model: "gemini-1.5-flash", Timeout: timeout},
				AttemptSpec{Name: "gemini-2.0-flash-exp", Provider: p, Model: "gemini-2.0-flash-exp", Timeout: timeout},
			)
		default:
			spec.Attempts = append(spec.Attempts, AttemptSpec{Name: p, Provider: p, Timeout: timeout})
		}
	}
	if len(spec.Attempts) == 0 {
		spec.Attempts = []AttemptSpec{{Name: "mock", Provider: "mock", Timeout: timeout}}
	}
	return spec
}

// Build turns spec into a Policy, creating one provider per attempt.
// Attempts whose backend has no credentials are skipped with a warning;
// Build fails only when nothing is left.
func Build(ctx context.Context, spec PolicySpec, cfg llm.Config, deps llm.Deps) (Policy, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	policy := Policy{Check: spec.Check}
	for _, a := range spec.Attempts {
		if err := cfg.ValidateProvider(a.Provider); err != nil {
			log.Warn("skipping cascade attempt", zap.String("model", a.label()), zap.Error(err))
			continue
		}
		p, err := llm.NewProvider(ctx, cfg, a.Provider, a.Model, deps)
		if err != nil {
			return Policy{}, fmt.Errorf("cascade attempt %s: %w", a.label(), err)
		}

		timeout := DefaultTimeout
		if a.Timeout != "" {
			timeout, err = time.ParseDuration(a.Timeout)
			if err != nil {
				return Policy{}, fmt.Errorf("cascade attempt %s: %w", a.label(), err)
			}
		}
		maxTokens := a.MaxTokens
		if maxTokens <= 0 {
			maxTokens = DefaultMaxTokens
		}
		temperature := DefaultTemperature
		if a.Temperature != nil {
			temperature = *a.Temperature
		}

		policy.Attempts = append(policy.Attempts, Attempt{
			Name:        a.label(),
			Provider:    p,
			Timeout:     timeout,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
	}
	if len(policy.Attempts) == 0 {
		return Policy{}, ErrNoAttempts
	}
	return policy, nil
}
