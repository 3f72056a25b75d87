// Package model defines the shared types of the activation gate: error
// taxonomy, trigger and overlay state, the report payload and configuration.
package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCatalogJSON = "spec/planning/remaining_task_review_catalog.json"
	DefaultConfigFile  = ".activation-gate.yaml"
	DefaultLogLevel    = "warn"
)

type Config struct {
	CatalogJSON string `yaml:"catalog_json" env:"ACTIVATION_GATE_CATALOG_JSON"`
	// ProgramsFile replaces the built-in governance program table when set.
	ProgramsFile string `yaml:"programs_file" env:"ACTIVATION_GATE_PROGRAMS_FILE"`
	// ActionableStatuses replaces the built-in defaults used when no
	// --actionable-status flag is given.
	ActionableStatuses []string      `yaml:"actionable_statuses" env:"ACTIVATION_GATE_ACTIONABLE_STATUSES"`
	Logging            LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"ACTIVATION_GATE_LOG_LEVEL"`
}

func DefaultConfig() Config {
	return Config{
		CatalogJSON: DefaultCatalogJSON,
		Logging:     LoggingConfig{Level: DefaultLogLevel},
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg. A missing file is
// not an error unless required is set; unknown keys always are.
func LoadConfigFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.CatalogJSON == "" {
		return fmt.Errorf("config %s: catalog_json must not be empty", path)
	}
	return nil
}
