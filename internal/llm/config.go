package llm

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every variable read by ConfigFromEnv.
const EnvPrefix = "PATHFORGE_LLM_"

// Config holds credentials and defaults for every backend. A cascade
// attempt picks one backend and model out of it.
type Config struct {
	// Provider is the backend used when a single provider is requested.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string `env:"PROVIDER" envDefault:"gemini"`

	Anthropic  AnthropicConfig  `envPrefix:"ANTHROPIC_"`
	OpenAI     OpenAIConfig     `envPrefix:"OPENAI_"`
	Gemini     GeminiConfig     `envPrefix:"GEMINI_"`
	OpenRouter OpenRouterConfig `envPrefix:"OPENROUTER_"`
	Throttle   ThrottleConfig   `envPrefix:"THROTTLE_"`

	// Timeout bounds a single model call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL" envDefault:"claude-haiku"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string `env:"BASE_URL"` // for OpenAI-compatible APIs
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL" envDefault:"gemini-flash"`
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"google/gemini-2.0-flash-exp"`
	BaseURL string `env:"BASE_URL"` // default "https://openrouter.ai/api/v1"
}

// ThrottleConfig bounds the outbound request rate per backend. A
// non-positive rate disables throttling.
type ThrottleConfig struct {
	RequestsPerMinute float64 `env:"RPM" envDefault:"60"`
	Burst             int     `env:"BURST" envDefault:"2"`
}

// DefaultConfig returns a Config with defaults and no credentials.
func DefaultConfig() Config {
	return Config{
		Provider:   "gemini",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Throttle:   ThrottleConfig{RequestsPerMinute: 60, Burst: 2},
		Timeout:    30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from PATHFORGE_LLM_* variables. Keys not
// set there are filled from the standard provider variables
// (GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY).
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse llm config: %w", err)
	}

	keys, err := DiscoverKeys()
	if err != nil {
		return Config{}, err
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = keys.Gemini
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = keys.OpenAI
	}
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = keys.Anthropic
	}
	if cfg.OpenRouter.APIKey == "" {
		cfg.OpenRouter.APIKey = keys.OpenRouter
	}
	return cfg, nil
}

// Keys are the API keys found in the standard provider variables.
type Keys struct {
	Gemini     string `env:"GEMINI_API_KEY"`
	OpenAI     string `env:"OPENAI_API_KEY"`
	Anthropic  string `env:"ANTHROPIC_API_KEY"`
	OpenRouter string `env:"OPENROUTER_API_KEY"`
}

// DiscoverKeys reads the standard provider API key variables.
func DiscoverKeys() (Keys, error) {
	var k Keys
	if err := env.Parse(&k); err != nil {
		return Keys{}, fmt.Errorf("parse provider keys: %w", err)
	}
	return k, nil
}

// Available lists the providers that have a key configured, in
// preference order (Gemini, OpenAI, Anthropic, OpenRouter).
func (c Config) Available() []string {
	var out []string
	if c.Gemini.APIKey != "" {
		out = append(out, "gemini")
	}
	if c.OpenAI.APIKey != "" {
		out = append(out, "openai")
	}
	if c.Anthropic.APIKey != "" {
		out = append(out, "anthropic")
	}
	if c.OpenRouter.APIKey != "" {
		out = append(out, "openrouter")
	}
	return out
}

// Validate checks that the selected provider has its API key set.
func (c Config) Validate() error {
	return c.ValidateProvider(c.Provider)
}

// ValidateProvider checks that the named provider is known and has its
// API key set.
func (c Config) ValidateProvider(provider string) error {
	switch provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", provider)
	}
	return nil
}
