// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads from YAML as a duration
// string such as "30s" or "2m".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalYAML encodes the duration in its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML decodes a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// StevedoreConfig is the on-disk configuration for the stevedore CLI
// and server, stored at ~/.stevedore/stevedore.yaml by default.
type StevedoreConfig struct {
	// Solve supplies default solver settings. Problem documents and
	// command-line flags both override these.
	Solve SolveConfig `yaml:"solve"`

	// Server configures the HTTP solve service.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry configures traces and metrics for the server.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SolveConfig holds default solver settings. Zero values leave the
// solver's own defaults in place.
type SolveConfig struct {
	// Objective is "standard" (total profit) or "fair" (min task profit).
	Objective string `yaml:"objective,omitempty"`

	// Complete requires every budget to be consumed exactly.
	Complete bool `yaml:"complete,omitempty"`

	// Order is the candidate exploration order: "density", "profit", or "lex".
	Order string `yaml:"order,omitempty"`

	// Bound is the pruning bound: "clipped", "relaxed", or "none".
	Bound string `yaml:"bound,omitempty"`

	// TimeLimit stops a search after this long. Zero means no limit.
	TimeLimit Duration `yaml:"time_limit,omitempty"`

	// MaxNodes stops a search after this many nodes. Zero means no limit.
	MaxNodes int64 `yaml:"max_nodes,omitempty"`

	// MaxDepth truncates the search below this depth. Zero means no limit.
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// ServerConfig holds settings for `stevedore serve`.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":9190".
	Addr string `yaml:"addr"`

	// GinMode is the gin framework mode: "release", "debug", or "test".
	GinMode string `yaml:"gin_mode"`

	// SolveTimeout caps the search time of one request.
	SolveTimeout Duration `yaml:"solve_timeout"`

	// MaxNodes caps the nodes one request may explore. Zero means no cap.
	MaxNodes int64 `yaml:"max_nodes,omitempty"`

	// RateLimit is the sustained requests per second allowed per client.
	// Negative disables rate limiting.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the short-term burst allowed per client.
	RateBurst int `yaml:"rate_burst"`

	// ShutdownTimeout bounds how long a graceful shutdown may take.
	ShutdownTimeout Duration `yaml:"shutdown_timeout,omitempty"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", or "error".
	Level string `yaml:"level"`

	// Dir enables file logging to the given directory when set.
	// Supports ~ for the home directory.
	Dir string `yaml:"dir,omitempty"`
}

// TelemetryConfig holds trace and metric settings for the server.
type TelemetryConfig struct {
	// Enabled turns the telemetry stack on.
	Enabled bool `yaml:"enabled"`

	// TraceExporter is "otlp", "stdout", or "none".
	TraceExporter string `yaml:"trace_exporter"`

	// MetricExporter is "prometheus", "stdout", or "none".
	MetricExporter string `yaml:"metric_exporter"`

	// OTLPEndpoint is the OTLP receiver for traces, e.g. "localhost:4317".
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Environment names the deployment environment in telemetry resources.
	Environment string `yaml:"environment"`

	// SampleRate is the fraction of traces to sample, 0.0 to 1.0.
	SampleRate float64 `yaml:"sample_rate"`
}

// DefaultConfig returns the configuration written on first run.
//
// The defaults favor a laptop: metrics are served locally, traces are
// off until an OTLP endpoint is configured, and solves are unbounded.
func DefaultConfig() StevedoreConfig {
	return StevedoreConfig{
		Solve: SolveConfig{},
		Server: ServerConfig{
			Addr:         ":9190",
			GinMode:      "release",
			SolveTimeout: Duration(30 * time.Second),
			RateLimit:    10,
			RateBurst:    20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Enabled:        true,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
			Environment:    "development",
			SampleRate:     1.0,
		},
	}
}
