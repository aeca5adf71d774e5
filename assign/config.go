// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assign

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SolverConfig contains all solver-related configuration. It is the
// root of the file and environment configuration surface.
//
// Thread Safety: Concurrent reads are fine. Do not mutate after construction.
type SolverConfig struct {
	// Search contains search strategy settings.
	Search SearchConfig `json:"search" yaml:"search"`

	// Budget contains resource limit settings.
	Budget SearchBudgetConfig `json:"budget" yaml:"budget"`

	// Observability contains observability settings.
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// SearchConfig contains search strategy settings.
type SearchConfig struct {
	// Objective selects what the solver maximizes: "standard" or "fair".
	Objective string `json:"objective" yaml:"objective"`

	// Complete requires every budget to reach exactly zero.
	Complete bool `json:"complete" yaml:"complete"`

	// Order selects the candidate exploration order: "density",
	// "profit" or "lex".
	Order string `json:"order" yaml:"order"`

	// Bound selects the pruning bound: "clipped", "relaxed" or "none".
	Bound string `json:"bound" yaml:"bound"`
}

// ObservabilityConfig governs tracing, metrics, and log verbosity for
// solve runs.
type ObservabilityConfig struct {
	TracingEnabled bool   `json:"tracing_enabled" yaml:"tracing_enabled"`
	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled"`
	LogLevel       string `json:"log_level" yaml:"log_level"`
	ServiceName    string `json:"service_name" yaml:"service_name"`
}

// DefaultSolverConfig returns the default configuration.
//
// Outputs:
//   - SolverConfig: Default configuration with sensible values.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Search: SearchConfig{
			Objective: "standard",
			Complete:  false,
			Order:     "density",
			Bound:     "clipped",
		},
		Budget: DefaultSearchBudgetConfig(),
		Observability: ObservabilityConfig{
			TracingEnabled: true,
			MetricsEnabled: true,
			LogLevel:       "info",
			ServiceName:    "stevedore",
		},
	}
}

// LoadSolverConfig loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - configPath: YAML or JSON file merged over the defaults. Empty skips the file.
//
// Outputs:
//   - SolverConfig: Merged configuration.
//   - error: Set when the file exists but cannot be parsed or validated.
func LoadSolverConfig(configPath string) (SolverConfig, error) {
	// Start with defaults
	config := DefaultSolverConfig()

	// Load from file if specified
	if configPath != "" {
		if err := loadConfigFile(configPath, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	// Override from environment variables
	loadConfigFromEnv(&config)

	// Validate
	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

func loadConfigFile(path string, config *SolverConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}

	return nil
}

func loadConfigFromEnv(config *SolverConfig) {
	// Search
	if v := os.Getenv("STEVEDORE_OBJECTIVE"); v != "" {
		config.Search.Objective = v
	}
	if v := os.Getenv("STEVEDORE_COMPLETE"); v != "" {
		config.Search.Complete = v == "true" || v == "1"
	}
	if v := os.Getenv("STEVEDORE_ORDER"); v != "" {
		config.Search.Order = v
	}
	if v := os.Getenv("STEVEDORE_BOUND"); v != "" {
		config.Search.Bound = v
	}

	// Budget
	if v := os.Getenv("STEVEDORE_MAX_NODES"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Budget.MaxNodes = i
		}
	}
	if v := os.Getenv("STEVEDORE_MAX_DEPTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Budget.MaxDepth = i
		}
	}
	if v := os.Getenv("STEVEDORE_TIME_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Budget.TimeLimit = d
		}
	}

	// Observability
	if v := os.Getenv("STEVEDORE_TRACING_ENABLED"); v != "" {
		config.Observability.TracingEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("STEVEDORE_METRICS_ENABLED"); v != "" {
		config.Observability.MetricsEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("STEVEDORE_LOG_LEVEL"); v != "" {
		config.Observability.LogLevel = v
	}
	if v := os.Getenv("STEVEDORE_SERVICE_NAME"); v != "" {
		config.Observability.ServiceName = v
	}
}

// Validate rejects settings the solver cannot honor.
//
// Outputs:
//   - error: The first violation found, nil otherwise.
func (c SolverConfig) Validate() error {
	if _, err := ParseObjective(c.Search.Objective); err != nil {
		return err
	}
	if _, err := ParseOrderPolicy(c.Search.Order); err != nil {
		return err
	}
	if _, err := ParseBoundKind(c.Search.Bound); err != nil {
		return err
	}
	if err := c.Budget.Validate(); err != nil {
		return err
	}
	switch c.Observability.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.Observability.LogLevel)
	}
	return nil
}
