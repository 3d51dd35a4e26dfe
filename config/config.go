// Package config provides file and environment configuration for
// contentmesh.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/contentmesh/logging"
)

// EnvConfigPath names the config file when Load is called without a path.
const EnvConfigPath = "CONTENTMESH_CONFIG"

// Model providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	// ProviderNone runs without a generator; every agent uses its
	// deterministic fallback.
	ProviderNone = "none"
)

// Config represents the complete contentmesh configuration.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Engine  EngineConfig  `yaml:"engine"`
	Quality QualityConfig `yaml:"quality"`
	Output  OutputConfig  `yaml:"output"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// ModelConfig configures the text generator.
type ModelConfig struct {
	// Provider is one of anthropic, openai or none.
	Provider string `yaml:"provider"`
	// Name is the provider model id (empty = provider default).
	Name        string  `yaml:"name"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	// MaxCalls caps generation calls per process (0 = unlimited).
	MaxCalls int `yaml:"max_calls"`
	// Timeout bounds a whole run.
	Timeout time.Duration `yaml:"timeout"`
}

// EngineConfig configures the workflow engine.
type EngineConfig struct {
	MaxIterations       int `yaml:"max_iterations"`
	MaxConcurrentAgents int `yaml:"max_concurrent_agents"`
	// MaxConcurrentRuns bounds the runs of one batch executing at once.
	MaxConcurrentRuns int `yaml:"max_concurrent_runs"`
}

// QualityConfig configures the quality thresholds and FAQ selection.
type QualityConfig struct {
	MinFAQItems          int `yaml:"min_faq_items"`
	MinBenefits          int `yaml:"min_benefits"`
	QuestionsPerCategory int `yaml:"questions_per_category"`
	MaxFAQItems          int `yaml:"max_faq_items"`
}

// OutputConfig configures the artifact sinks.
type OutputConfig struct {
	// Dir receives one JSON file per page (empty = no files).
	Dir    string `yaml:"dir"`
	PerRun bool   `yaml:"per_run"`
	// Console pretty-prints the pages to stdout.
	Console bool `yaml:"console"`
	// SQLitePath archives runs (empty = disabled).
	SQLitePath string `yaml:"sqlite_path"`
}

// NATSConfig configures the run event stream.
type NATSConfig struct {
	// URL is the NATS server URL (empty = disabled unless Embedded).
	URL string `yaml:"url"`
	// Embedded starts an in-process server.
	Embedded bool `yaml:"embedded"`
	Port     int  `yaml:"port"`
}

// Enabled reports whether run events are published.
func (c NATSConfig) Enabled() bool { return c.URL != "" || c.Embedded }

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics (empty = disabled).
	Addr string `yaml:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    ProviderAnthropic,
			Temperature: 0.7,
			Timeout:     5 * time.Minute,
		},
		Engine: EngineConfig{
			MaxIterations:       2,
			MaxConcurrentAgents: 4,
			MaxConcurrentRuns:   2,
		},
		Quality: QualityConfig{
			MinFAQItems:          4,
			MinBenefits:          2,
			QuestionsPerCategory: 2,
			MaxFAQItems:          8,
		},
		Output: OutputConfig{
			Dir:     "output",
			Console: true,
		},
		NATS: NATSConfig{
			Port: 4222,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. An empty path falls back to $CONTENTMESH_CONFIG;
// when that is unset too, only defaults and environment are used.
// Environment variables referenced in the file are expanded.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CONTENTMESH_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := os.Getenv("CONTENTMESH_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if cfg.Model.APIKey == "" {
		switch cfg.Model.Provider {
		case ProviderAnthropic:
			cfg.Model.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case ProviderOpenAI:
			cfg.Model.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if v := os.Getenv("CONTENTMESH_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxIterations = n
		}
	}
	if v := os.Getenv("CONTENTMESH_MAX_CALLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Model.MaxCalls = n
		}
	}
	if v := os.Getenv("CONTENTMESH_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("CONTENTMESH_SQLITE_PATH"); v != "" {
		cfg.Output.SQLitePath = v
	}
	if v := os.Getenv("CONTENTMESH_NATS_URL"); v != "" {
		cfg.NATS.URL = v
		cfg.NATS.Embedded = false
	}
	if v := os.Getenv("CONTENTMESH_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("CONTENTMESH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks that the configuration is valid and reports every
// problem found.
func (c *Config) Validate() error {
	var errs []error

	switch c.Model.Provider {
	case ProviderAnthropic, ProviderOpenAI:
		if c.Model.APIKey == "" {
			errs = append(errs, fmt.Errorf("model.api_key is required for provider %q", c.Model.Provider))
		}
	case ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("model.provider must be one of anthropic, openai, none; got %q", c.Model.Provider))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		errs = append(errs, errors.New("model.temperature must be between 0 and 1"))
	}
	if c.Model.MaxCalls < 0 {
		errs = append(errs, errors.New("model.max_calls must not be negative"))
	}
	if c.Model.Timeout < 0 {
		errs = append(errs, errors.New("model.timeout must not be negative"))
	}

	if c.Engine.MaxIterations < 0 {
		errs = append(errs, errors.New("engine.max_iterations must not be negative"))
	}
	if c.Engine.MaxConcurrentAgents < 0 {
		errs = append(errs, errors.New("engine.max_concurrent_agents must not be negative"))
	}
	if c.Engine.MaxConcurrentRuns < 0 {
		errs = append(errs, errors.New("engine.max_concurrent_runs must not be negative"))
	}

	if c.Quality.MinFAQItems < 1 {
		errs = append(errs, errors.New("quality.min_faq_items must be at least 1"))
	}
	if c.Quality.MinBenefits < 0 {
		errs = append(errs, errors.New("quality.min_benefits must not be negative"))
	}
	if c.Quality.QuestionsPerCategory < 1 {
		errs = append(errs, errors.New("quality.questions_per_category must be at least 1"))
	}
	if c.Quality.MaxFAQItems < c.Quality.MinFAQItems {
		errs = append(errs, errors.New("quality.max_faq_items must not be below quality.min_faq_items"))
	}

	if c.NATS.URL != "" && c.NATS.Embedded {
		errs = append(errs, errors.New("nats.url and nats.embedded are mutually exclusive"))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be json or text; got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// SaveToFile writes the configuration as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
