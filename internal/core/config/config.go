package config

import (
	"time"

	"github.com/havocd/havoc/internal/core/domain"
	redisclient "github.com/havocd/havoc/internal/infra/redis"
	"github.com/havocd/havoc/internal/infra/storage/postgres"
	"github.com/havocd/havoc/internal/policy"
)

// Duration accepts human-friendly YAML values like "5s" or "500ms".
// Bare numbers are treated as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n float64
	if err := unmarshal(&n); err != nil {
		return err
	}
	*d = Duration(n * float64(time.Second))
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Catalog  CatalogConfig      `yaml:"catalog"`
	Playbook PlaybookConfig     `yaml:"playbook"`
	Chaos    ChaosConfig        `yaml:"chaos"`
	Retry    RetryConfig        `yaml:"retry"`
	Suite    SuiteConfig        `yaml:"suite"`
	Reasoner ReasonerConfig     `yaml:"reasoner"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds health/metrics server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// CatalogConfig points at the external API description.
type CatalogConfig struct {
	Source string `yaml:"source"` // file path or http(s) URL
}

// PlaybookConfig points at the recovery playbook file.
type PlaybookConfig struct {
	Path string `yaml:"path"`
}

// ChaosConfig tunes fault injection.
type ChaosConfig struct {
	FailureRate  float64            `yaml:"failure_rate"`
	Seed         int64              `yaml:"seed"`
	DefaultClass string             `yaml:"default_class"`
	ErrorWeights map[string]float64 `yaml:"error_weights"`
	MinWeight    float64            `yaml:"min_weight"`
	MockSuccess  *bool              `yaml:"mock_success"`
	MockListSize int                `yaml:"mock_list_size"`
}

// RetryConfig supplies defaults for playbook entries that omit them and
// bounds the backoff scheduler.
type RetryConfig struct {
	MaxRetries         int     `yaml:"max_retries"`
	BackoffBaseSeconds float64 `yaml:"backoff_base_seconds"`
	BackoffCapSeconds  float64 `yaml:"backoff_cap_seconds"`
	BackoffMultiplier  float64 `yaml:"backoff_multiplier"`
}

// SuiteConfig controls suite execution and I/O.
type SuiteConfig struct {
	Name        string   `yaml:"name"`
	Specs       string   `yaml:"specs"`  // test spec file (json/yaml)
	Output      string   `yaml:"output"` // result file, empty = stdout
	Concurrency int      `yaml:"concurrency"`
	TestTimeout Duration `yaml:"test_timeout"`
	PassThrough bool     `yaml:"pass_through"` // forward spared calls to the real API
}

// ReasonerConfig enables the LLM-backed retry decision policy.
type ReasonerConfig struct {
	Enabled bool     `yaml:"enabled"`
	Model   string   `yaml:"model"`
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Timeout Duration `yaml:"timeout"`
}

// PolicyConfig converts the reasoner section into the policy package's
// config shape.
func (r ReasonerConfig) PolicyConfig() policy.ReasonerConfig {
	return policy.ReasonerConfig{Model: r.Model, Timeout: r.Timeout.Std()}
}

// Validate checks the loaded configuration. Any violation is a
// ConfigurationError and aborts the run before tests execute.
func (c *AppConfig) Validate() error {
	if c.Chaos.FailureRate < 0 || c.Chaos.FailureRate > 1 {
		return domain.NewConfigurationError("chaos.failure_rate",
			"%v outside [0,1]", c.Chaos.FailureRate)
	}
	if c.Retry.MaxRetries < 0 {
		return domain.NewConfigurationError("retry.max_retries",
			"%d is negative", c.Retry.MaxRetries)
	}
	if c.Retry.BackoffBaseSeconds < 0 {
		return domain.NewConfigurationError("retry.backoff_base_seconds",
			"%v is negative", c.Retry.BackoffBaseSeconds)
	}
	if c.Retry.BackoffCapSeconds < 0 {
		return domain.NewConfigurationError("retry.backoff_cap_seconds",
			"%v is negative", c.Retry.BackoffCapSeconds)
	}
	if c.Catalog.Source == "" {
		return domain.NewConfigurationError("catalog.source", "missing")
	}
	if c.Playbook.Path == "" {
		return domain.NewConfigurationError("playbook.path", "missing")
	}

	if len(c.Chaos.ErrorWeights) > 0 {
		allZero := true
		for class, w := range c.Chaos.ErrorWeights {
			if w < 0 {
				return domain.NewConfigurationError("chaos.error_weights",
					"negative weight %v for class %s", w, class)
			}
			if w > 0 {
				allZero = false
			}
		}
		if allZero {
			return domain.NewConfigurationError("chaos.error_weights", "all weights are zero")
		}
	}
	return nil
}
