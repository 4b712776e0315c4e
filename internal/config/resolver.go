// Package config resolves run configuration from a YAML file, the
// environment, and CLI flags, recording where each value came from so
// the doctor output can explain itself.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is one configuration value plus its provenance.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI-level overrides into resolution.
type ResolveOptions struct {
	ConfigPath   string
	CLIModel     string
	CLICachePath string
	CLIOutPath   string
}

// ResolvedConfig is the merged view of all configuration sources.
// Precedence: CLI flag > environment > config file.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	Model     ResolvedValue `json:"model"`
	CachePath ResolvedValue `json:"cache_path"`
	OutPath   ResolvedValue `json:"out_path"`

	LLMKeys map[string]ResolvedValue `json:"llm_keys,omitempty"`
}

type fileConfig struct {
	CachePath string `yaml:"cache_path"`
	OutPath   string `yaml:"out_path"`
	LLM       struct {
		Model  string `yaml:"model"`
		APIKey string `yaml:"api_key"`
	} `yaml:"llm"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".trialspec", "config.yaml")
}

// Resolve merges config file, environment, and CLI flags. A missing
// config file is not an error; a malformed one is.
func Resolve(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		LLMKeys:    map[string]ResolvedValue{},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.CachePath, cfg.CachePath, SourceConfig, path)
		apply(&out.OutPath, cfg.OutPath, SourceConfig, path)
		apply(&out.Model, cfg.LLM.Model, SourceConfig, path)

		if key := strings.TrimSpace(cfg.LLM.APIKey); key != "" {
			provider := providerOf(cfg.LLM.Model)
			if provider == "" {
				provider = "default"
			}
			out.LLMKeys[provider] = ResolvedValue{Value: key, Source: SourceConfig, From: path}
		}
	}

	applyEnv(&out.CachePath, "TRIALSPEC_CACHE")
	applyEnv(&out.OutPath, "TRIALSPEC_OUT")
	applyEnv(&out.Model, "TRIALSPEC_MODEL")

	for env, provider := range map[string]string{
		"OPENAI_API_KEY":     "openai",
		"OPENROUTER_API_KEY": "openrouter",
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			out.LLMKeys[provider] = ResolvedValue{Value: v, Source: SourceEnv, From: env}
		}
	}
	if v := strings.TrimSpace(os.Getenv("TRIALSPEC_LLM_API_KEY")); v != "" {
		out.LLMKeys["default"] = ResolvedValue{Value: v, Source: SourceEnv, From: "TRIALSPEC_LLM_API_KEY"}
	}

	apply(&out.Model, opts.CLIModel, SourceCLI, "--model")
	apply(&out.CachePath, opts.CLICachePath, SourceCLI, "--cache")
	apply(&out.OutPath, opts.CLIOutPath, SourceCLI, "--out")

	if out.CachePath.Value != "" {
		out.CachePath.Value = expandUserPath(out.CachePath.Value)
	}

	return out, nil
}

// APIKeyForProvider returns the key for a "provider/model" string or a
// bare provider, falling back to the default key when no
// provider-specific one is set.
func (r ResolvedConfig) APIKeyForProvider(providerOrModel string) ResolvedValue {
	provider := providerOf(providerOrModel)
	if provider == "" {
		return ResolvedValue{}
	}
	if v, ok := r.LLMKeys[provider]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	if v, ok := r.LLMKeys["default"]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	return ResolvedValue{}
}

func providerOf(providerOrModel string) string {
	v := strings.ToLower(strings.TrimSpace(providerOrModel))
	if v == "" {
		return ""
	}
	if idx := strings.Index(v, "/"); idx > 0 {
		return v[:idx]
	}
	return v
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
