package extract

import (
	"fmt"
	"os"
	"strings"
)

// Config holds LLM provider configuration for extraction runs.
type Config struct {
	Provider    string // "openai", "ollama", "openrouter", "custom"
	Model       string // model name
	Endpoint    string // full API URL
	APIKey      string
	Temperature float64
	MaxRetries  int // per-request retries (default: 3)
	TimeoutSecs int // per-request timeout (default: 120)
}

// ParseModelFlag parses "--model provider/model" format. Model names
// may themselves contain slashes and colons, e.g.
// "openrouter/google/gemini-2.0-flash-exp:free".
func ParseModelFlag(flag string) (*Config, error) {
	if flag == "" {
		return nil, fmt.Errorf("empty model flag")
	}

	slashIdx := strings.Index(flag, "/")
	if slashIdx == -1 {
		return nil, fmt.Errorf("invalid --model format: expected 'provider/model', got %q", flag)
	}

	provider := flag[:slashIdx]
	model := flag[slashIdx+1:]

	if provider == "" {
		return nil, fmt.Errorf("empty provider in --model flag: %q", flag)
	}
	if model == "" {
		return nil, fmt.Errorf("empty model in --model flag: %q", flag)
	}

	config := &Config{
		Provider:    provider,
		Model:       model,
		Temperature: 0,
		MaxRetries:  3,
		TimeoutSecs: 120,
	}

	switch provider {
	case "openai":
		// Structured-output responses endpoint.
		config.Endpoint = "https://api.openai.com/v1/responses"
		config.APIKey = os.Getenv("OPENAI_API_KEY")
	case "ollama":
		config.Endpoint = "http://localhost:11434/v1/chat/completions"
		// No API key needed for Ollama
	case "openrouter":
		config.Endpoint = "https://openrouter.ai/api/v1/chat/completions"
		config.APIKey = os.Getenv("OPENROUTER_API_KEY")
	case "custom":
		config.Endpoint = os.Getenv("TRIALSPEC_LLM_ENDPOINT")
		config.APIKey = os.Getenv("TRIALSPEC_LLM_API_KEY")
	default:
		return nil, fmt.Errorf("unknown provider %q. Supported: openai, ollama, openrouter, custom", provider)
	}

	// Environment overrides apply to every provider.
	if endpoint := os.Getenv("TRIALSPEC_LLM_ENDPOINT"); endpoint != "" {
		config.Endpoint = endpoint
	}
	if apiKey := os.Getenv("TRIALSPEC_LLM_API_KEY"); apiKey != "" {
		config.APIKey = apiKey
	}

	return config, nil
}

// ResolveConfig resolves model configuration from all sources.
// Priority: CLI flag > TRIALSPEC_MODEL env var.
func ResolveConfig(cliFlag string) (*Config, error) {
	if cliFlag != "" {
		return ParseModelFlag(cliFlag)
	}

	if envModel := os.Getenv("TRIALSPEC_MODEL"); envModel != "" {
		config, err := ParseModelFlag(envModel)
		if err != nil {
			return nil, fmt.Errorf("parsing TRIALSPEC_MODEL env var: %w", err)
		}
		return config, nil
	}

	return nil, nil // no model configured
}

// UsesResponsesAPI reports whether this provider speaks the structured
// /v1/responses shape rather than legacy chat completions.
func (c *Config) UsesResponsesAPI() bool {
	return c.Provider == "openai" || strings.HasSuffix(c.Endpoint, "/v1/responses")
}

// Validate checks that the configuration is complete enough to run.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.Provider != "ollama" && c.APIKey == "" {
		return fmt.Errorf("API key is required for provider %q (set via environment variable)", c.Provider)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.TimeoutSecs <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
