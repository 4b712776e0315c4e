package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_Precedence_ConfigEnvCLI(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `cache_path: ~/.trialspec/from-config.db
out_path: data/from-config.jsonl
llm:
  model: openai/gpt-5.2
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TRIALSPEC_CACHE", "~/from-env.db")
	t.Setenv("TRIALSPEC_MODEL", "openrouter/google/gemini-2.0-flash-001")

	resolved, err := Resolve(ResolveOptions{
		ConfigPath:   cfgPath,
		CLIModel:     "openai/gpt-5.2-mini",
		CLICachePath: "~/from-cli.db",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolved.CachePath.Source != SourceCLI {
		t.Fatalf("expected cache path source cli, got %s", resolved.CachePath.Source)
	}
	if resolved.Model.Source != SourceCLI || resolved.Model.Value != "openai/gpt-5.2-mini" {
		t.Fatalf("expected model from cli, got %s (%s)", resolved.Model.Value, resolved.Model.Source)
	}
	if resolved.OutPath.Source != SourceConfig {
		t.Fatalf("expected out path from config, got %s", resolved.OutPath.Source)
	}
}

func TestResolve_EnvBeatsConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("llm:\n  model: openai/gpt-5.2\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TRIALSPEC_MODEL", "ollama/llama3.1")

	resolved, err := Resolve(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Model.Value != "ollama/llama3.1" || resolved.Model.Source != SourceEnv {
		t.Fatalf("model = %s (%s)", resolved.Model.Value, resolved.Model.Source)
	}
	if resolved.Model.From != "TRIALSPEC_MODEL" {
		t.Fatalf("provenance From = %q", resolved.Model.From)
	}
}

func TestResolve_MissingConfigFileIsFine(t *testing.T) {
	resolved, err := Resolve(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"),
		CLIModel:   "openai/gpt-5.2",
	})
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if resolved.Model.Value != "openai/gpt-5.2" {
		t.Fatalf("model = %q", resolved.Model.Value)
	}
}

func TestResolve_MalformedConfigFileErrors(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("llm: [broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(ResolveOptions{ConfigPath: cfgPath}); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestAPIKeyForProvider_EnvOverridesConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `llm:
  model: openrouter/x-ai/grok-4.1-fast
  api_key: config-key
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	resolved, err := Resolve(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	k := resolved.APIKeyForProvider("openrouter/some-model")
	if k.Value != "env-key" {
		t.Fatalf("expected env key, got %q", k.Value)
	}
	if k.Source != SourceEnv {
		t.Fatalf("expected source env, got %s", k.Source)
	}
}

func TestAPIKeyForProvider_DefaultFallback(t *testing.T) {
	t.Setenv("TRIALSPEC_LLM_API_KEY", "fallback-key")

	resolved, err := Resolve(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	k := resolved.APIKeyForProvider("custom/local-model")
	if k.Value != "fallback-key" {
		t.Fatalf("expected default key fallback, got %q", k.Value)
	}
}
