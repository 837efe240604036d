// Package config provides configuration loading and the provider/model
// registry for the diagram generation service.
//
// Settings live in a single JSON file with ${ENV} placeholder
// substitution. API keys are never stored in the config file: they come
// from the encrypted secrets file or from environment variables.
package config

import (
	"fmt"
	"strings"

	"fossflow/pkg/llm"
)

// Default service settings.
const (
	DefaultListenAddr  = "localhost:8395"
	DefaultDBFile      = "fossflow.db"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.3
)

// LLMSettings selects the provider and model used for generation.
type LLMSettings struct {
	Provider    string  `json:"provider"` // openai, anthropic, google, ollama
	Model       string  `json:"model"`
	BaseURL     string  `json:"base_url,omitempty"` // OpenAI-compatible endpoint or Ollama host
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

// Config is the full service configuration.
type Config struct {
	Listen        string      `json:"listen"`
	DBPath        string      `json:"db_path"`
	IconPacks     []string    `json:"icon_packs,omitempty"` // paths to custom icon pack YAML files
	PrometheusURL string      `json:"prometheus_url,omitempty"`
	LLM           LLMSettings `json:"llm"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		Listen: DefaultListenAddr,
		DBPath: DefaultDBFile,
		LLM: LLMSettings{
			Provider:    llm.ProviderOpenAI,
			Model:       "gpt-4o-mini",
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
	}
}

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path cannot be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model cannot be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0.0 and 2.0")
	}
	switch c.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGoogle, llm.ProviderOllama:
	case "":
		return fmt.Errorf("llm.provider cannot be empty")
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	return nil
}

// ModelInfo contains static information about a known LLM model.
type ModelInfo struct {
	Provider         string
	MaxContextTokens int
	MaxOutputTokens  int
}

// KnownModels lists context limits for common models. Unknown models get
// their provider inferred via InferProvider and conservative limits.
//
//nolint:gochecknoglobals // Static model registry
var KnownModels = map[string]ModelInfo{
	"gpt-4o":                   {Provider: llm.ProviderOpenAI, MaxContextTokens: 128000, MaxOutputTokens: 16384},
	"gpt-4o-mini":              {Provider: llm.ProviderOpenAI, MaxContextTokens: 128000, MaxOutputTokens: 16384},
	"gpt-4.1":                  {Provider: llm.ProviderOpenAI, MaxContextTokens: 1047576, MaxOutputTokens: 32768},
	"o3-mini":                  {Provider: llm.ProviderOpenAI, MaxContextTokens: 200000, MaxOutputTokens: 100000},
	"claude-sonnet-4-5":        {Provider: llm.ProviderAnthropic, MaxContextTokens: 200000, MaxOutputTokens: 8192},
	"claude-sonnet-4-20250514": {Provider: llm.ProviderAnthropic, MaxContextTokens: 200000, MaxOutputTokens: 8192},
	"claude-3-5-haiku-latest":  {Provider: llm.ProviderAnthropic, MaxContextTokens: 200000, MaxOutputTokens: 8192},
	"gemini-2.0-flash":         {Provider: llm.ProviderGoogle, MaxContextTokens: 1048576, MaxOutputTokens: 8192},
	"gemini-2.5-pro":           {Provider: llm.ProviderGoogle, MaxContextTokens: 1048576, MaxOutputTokens: 65536},
}

// DefaultMaxContextTokens is assumed for models not in the registry.
const DefaultMaxContextTokens = 32000

// InferProvider guesses the provider for a model not in KnownModels.
func InferProvider(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return llm.ProviderOpenAI
	case strings.HasPrefix(m, "claude"):
		return llm.ProviderAnthropic
	case strings.HasPrefix(m, "gemini"):
		return llm.ProviderGoogle
	default:
		return llm.ProviderOllama
	}
}

// ContextWindow returns the context limit for a model.
func ContextWindow(model string) int {
	if info, ok := KnownModels[model]; ok && info.MaxContextTokens > 0 {
		return info.MaxContextTokens
	}
	return DefaultMaxContextTokens
}

// APIKeyEnvVar returns the conventional environment variable for a
// provider's API key.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderGoogle:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}
