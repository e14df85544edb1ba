package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Chaos.Seed == 0 {
		cfg.Chaos.Seed = 42
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.BackoffBaseSeconds == 0 {
		cfg.Retry.BackoffBaseSeconds = 0.5
	}
	if cfg.Retry.BackoffCapSeconds == 0 {
		cfg.Retry.BackoffCapSeconds = 10
	}
	if cfg.Retry.BackoffMultiplier == 0 {
		cfg.Retry.BackoffMultiplier = 2
	}
	if cfg.Suite.Name == "" {
		cfg.Suite.Name = "default"
	}
	if cfg.Suite.Concurrency == 0 {
		cfg.Suite.Concurrency = 4
	}
	if cfg.Suite.TestTimeout == 0 {
		cfg.Suite.TestTimeout = Duration(60 * time.Second)
	}
	if cfg.Reasoner.Timeout == 0 {
		cfg.Reasoner.Timeout = Duration(15 * time.Second)
	}
}
