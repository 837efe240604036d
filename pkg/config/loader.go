package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// envVarRegex matches ${VAR_NAME} placeholders in config files.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads a JSON config file, substitutes ${ENV_VAR} placeholders
// with environment values and validates the result. A missing file is
// not an error: defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded, err := substituteEnvVars(data)
	if err != nil {
		return cfg, fmt.Errorf("failed to substitute environment variables in %s: %w", path, err)
	}

	if err := json.Unmarshal(expanded, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = InferProvider(cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = DefaultMaxTokens
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = DefaultTemperature
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	return cfg, nil
}

// substituteEnvVars replaces ${VAR} placeholders with environment values.
// Unset variables are an error rather than silently becoming empty strings.
func substituteEnvVars(data []byte) ([]byte, error) {
	var missing []string
	result := envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		name := string(envVarRegex.FindSubmatch(match)[1])
		value, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return match
		}
		return []byte(value)
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("environment variables not set: %v", missing)
	}
	return result, nil
}

// Save writes the config back to disk as indented JSON.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
