package llm

import "fmt"

// ClientConfig selects and configures a provider client.
type ClientConfig struct {
	Provider string // one of the Provider* constants
	Model    string
	APIKey   string // required for cloud providers
	BaseURL  string // OpenAI-compatible endpoint or Ollama host override
}

// NewClient constructs the provider client described by cfg.
func NewClient(cfg ClientConfig) (Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewClaudeClient(cfg.APIKey, cfg.Model), nil
	case ProviderGoogle:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("google provider requires an API key")
		}
		return NewGeminiClient(cfg.APIKey, cfg.Model), nil
	case ProviderOllama:
		return NewOllamaClient(cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
