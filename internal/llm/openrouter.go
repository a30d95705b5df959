package llm

import (
	"errors"
	"net/http"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Attribution headers OpenRouter uses to list the calling app.
const (
	openRouterReferer = "https://github.com/abhisek/pathforge"
	openRouterTitle   = "pathforge"
)

// openRouterModels are short names for the routes pathforge is tuned
// for. Full "vendor/model" routes pass through.
var openRouterModels = map[string]string{
	"gemini-flash-exp": "google/gemini-2.0-flash-exp:free",
	"llama-3-8b":       "meta-llama/llama-3-8b-instruct",
}

// OpenRouterProvider is the chat completions client pointed at OpenRouter.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter: API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	doer := headerDoer{
		client: &http.Client{},
		headers: map[string]string{
			"HTTP-Referer": openRouterReferer,
			"X-Title":      openRouterTitle,
		},
	}
	inner, err := newChatCompletions(cfg.APIKey, baseURL, resolveModel(cfg.Model, openRouterModels), doer)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
