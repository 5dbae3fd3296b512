package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	yaml := `
base_url: https://workbench.example.com/v2
api_key_env: GENAI_API_KEY
model: meta-llama/llama-2-70b
max_prompts: 10
default_concurrency: 8
telemetry:
  tracing:
    enabled: true
    endpoint: localhost:4317
    sample_rate: 0.1
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.BaseURL != "https://workbench.example.com/v2" {
		t.Errorf("base_url = %q", cfg.BaseURL)
	}
	if cfg.MaxPrompts != 10 {
		t.Errorf("max_prompts = %d, want 10", cfg.MaxPrompts)
	}
	if cfg.DefaultConcurrency != 8 {
		t.Errorf("default_concurrency = %d, want 8", cfg.DefaultConcurrency)
	}
	if !cfg.Telemetry.Tracing.Enabled {
		t.Error("tracing.enabled = false, want true")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-secret-123")

	result := expandEnv([]byte("key: ${TEST_API_KEY}"))
	if string(result) != "key: sk-secret-123" {
		t.Errorf("expandEnv = %q, want %q", string(result), "key: sk-secret-123")
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "sk-secret-456")

	cfg := Config{APIKeyEnv: "GENAI_API_KEY"}
	if got := cfg.APIKey(); got != "sk-secret-456" {
		t.Errorf("APIKey() = %q, want %q", got, "sk-secret-456")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	yaml := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.MaxPrompts != 20 {
		t.Errorf("default max_prompts = %d, want 20", cfg.MaxPrompts)
	}
	if cfg.DefaultConcurrency != 5 {
		t.Errorf("default concurrency = %d, want 5", cfg.DefaultConcurrency)
	}
}
