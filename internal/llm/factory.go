package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/pathforge/internal/store"
)

// Deps are the collaborators wrapped around every backend. Both are
// optional.
type Deps struct {
	Events store.EventRepo
	Logger *zap.Logger
}

// NewProvider creates the backend named by provider, serving model (the
// backend's configured default when empty), wrapped with throttling and
// event logging.
func NewProvider(ctx context.Context, cfg Config, provider, model string, deps Deps) (Provider, error) {
	if err := cfg.ValidateProvider(provider); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch provider {
	case "anthropic":
		c := cfg.Anthropic
		c.Model = orDefault(model, c.Model)
		base, err = NewAnthropicProvider(c)
	case "openai":
		c := cfg.OpenAI
		c.Model = orDefault(model, c.Model)
		base, err = NewOpenAIProvider(c)
	case "gemini":
		c := cfg.Gemini
		c.Model = orDefault(model, c.Model)
		base, err = NewGeminiProvider(ctx, c)
	case "openrouter":
		c := cfg.OpenRouter
		c.Model = orDefault(model, c.Model)
		base, err = NewOpenRouterProvider(c)
	case "mock":
		base = NewMockProvider().WithModelID(orDefault(model, "mock"))
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", provider, err)
	}

	// caller → throttle → logging → base
	logged := WithLogging(base, deps.Events, deps.Logger)
	return WithThrottle(logged, cfg.Throttle), nil
}

// NewDefaultProvider creates the backend selected by cfg.Provider.
func NewDefaultProvider(ctx context.Context, cfg Config, deps Deps) (Provider, error) {
	return NewProvider(ctx, cfg, cfg.Provider, "", deps)
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
