package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, schema-validates and parses a manifest file, then applies defaults.
func Load(filename string) (*RiyuConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for in-memory manifests.
func Parse(data []byte) (*RiyuConfig, error) {
	if err := ValidateRiyuConfig(data); err != nil {
		return nil, err
	}

	var cfg RiyuConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
