// Package config handles YAML configuration loading with environment
// variable expansion, describing the client's connection to the
// generation service.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/eugener/genai/internal/core"
)

// Config is the top-level client configuration.
type Config struct {
	BaseURL           string        `yaml:"base_url"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	Model             string        `yaml:"model"`
	MaxPrompts        int           `yaml:"max_prompts"`
	MaxRetriesGenerate int          `yaml:"max_retries_generate"`
	MaxRetriesTokenize int          `yaml:"max_retries_tokenize"`
	DefaultConcurrency int          `yaml:"default_concurrency"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	Telemetry         TelemetryConfig `yaml:"telemetry"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`    // OTLP gRPC endpoint
	SampleRate float64 `yaml:"sample_rate"` // 0.0 to 1.0
}

// APIKey resolves the API key from the environment variable named by
// APIKeyEnv. Returns an empty string if APIKeyEnv is unset or the
// variable isn't set.
func (c Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} patterns with environment variable values.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads and parses a YAML config file, expanding environment
// variables, and fills in the core package's defaults for any field left
// unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	data = expandEnv(data)

	cfg := &Config{
		MaxPrompts:         core.MaxPrompts,
		MaxRetriesGenerate: core.MaxRetriesGenerate,
		MaxRetriesTokenize: core.MaxRetriesTokenize,
		DefaultConcurrency: core.DefaultConcurrency,
		RequestTimeout:     60 * time.Second,
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
