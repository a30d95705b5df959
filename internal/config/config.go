// Package config loads application settings from PATHFORGE_* variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/abhisek/pathforge/internal/llm"
	"github.com/abhisek/pathforge/internal/logging"
)

// EnvPrefix prefixes every application variable.
const EnvPrefix = "PATHFORGE_"

// Config is the application configuration.
type Config struct {
	// DB is the sqlite path; empty means the per-user default.
	DB string `env:"DB"`

	// CascadeFile is an optional YAML cascade policy.
	CascadeFile string `env:"CASCADE_FILE"`

	// Trace writes OpenTelemetry spans to stderr when set.
	Trace bool `env:"TRACE"`

	Log       logging.Config  `envPrefix:"LOG_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_"`

	LLM llm.Config `env:"-"`
}

// RedisConfig selects the shared rate-limit store. An empty Addr keeps
// rate-limit state in process memory.
type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	Prefix   string `env:"PREFIX" envDefault:"pathforge:rl:"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	Secret   string        `env:"SECRET" envDefault:"pathforge-dev-secret"`
	Issuer   string        `env:"ISSUER" envDefault:"pathforge"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
}

// Limit is a fixed-window quota.
type Limit struct {
	Max    int           `env:"MAX"`
	Window time.Duration `env:"WINDOW" envDefault:"1m"`
}

// RateLimitConfig holds per-operation quotas.
type RateLimitConfig struct {
	Plan     Limit         `envPrefix:"PLAN_"`
	Content  Limit         `envPrefix:"CONTENT_"`
	Evaluate Limit         `envPrefix:"EVALUATE_"`
	Feedback Limit         `envPrefix:"FEEDBACK_"`
	Sweep    time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Log:   logging.Config{Mode: "dev", Level: "info", MaxSizeMB: 50, MaxBackups: 3},
		Redis: RedisConfig{Prefix: "pathforge:rl:"},
		Auth:  AuthConfig{Secret: "pathforge-dev-secret", Issuer: "pathforge", TokenTTL: time.Hour},
		RateLimit: RateLimitConfig{
			Plan:     Limit{Max: 3, Window: time.Minute},
			Content:  Limit{Max: 5, Window: time.Minute},
			Evaluate: Limit{Max: 10, Window: time.Minute},
			Feedback: Limit{Max: 10, Window: time.Minute},
			Sweep:    5 * time.Minute,
		},
		LLM: llm.DefaultConfig(),
	}
}

// Load reads the configuration from the environment on top of Default.
func Load() (Config, error) {
	cfg := Default()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	llmCfg, err := llm.ConfigFromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg.LLM = llmCfg
	return cfg, nil
}
