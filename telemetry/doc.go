// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires stevedore into OpenTelemetry.
//
// Init installs the global tracer and meter providers; the rest of
// the repo reaches them through otel.Tracer and otel.Meter. The OTel
// API is the abstraction layer here: there are no wrapper interfaces
// to swap, only exporter configuration.
//
// # Traces
//
// Spans ship over OTLP gRPC by default, which Jaeger accepts natively
// (1.35+). Any OTLP-compatible backend works by pointing
// OTEL_EXPORTER_OTLP_ENDPOINT at it. "stdout" pretty-prints spans for
// local work; "none" leaves tracing off.
//
// # Metrics
//
// The default Prometheus exporter registers with the default registry
// and MetricsHandler exposes the scrape output; the HTTP server
// mounts that at /metrics. "stdout" dumps metrics periodically
// instead.
//
// # Log correlation
//
// LoggerWithTrace copies trace_id and span_id from the active span
// into slog fields, and LoggerWithRun adds the solver's run ID, so a
// log line can be joined both to its trace and to its solve.
//
// # Environment
//
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP receiver (default localhost:4317)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default otlp)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default prometheus)
//   - STEVEDORE_ENV: deployment environment name (default development)
//
// # Usage
//
//	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(ctx)
//
// All exported functions are safe for concurrent use once Init has
// returned.
package telemetry
