// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Config controls what the telemetry stack exports and where.
//
// DefaultConfig fills every field; zero values are not usable on
// their own.
type Config struct {
	// ServiceName labels every span and metric this process emits.
	ServiceName string `json:"service_name"`

	// ServiceVersion is reported alongside the service name.
	ServiceVersion string `json:"service_version"`

	// Environment names the deployment tier (development, production).
	Environment string `json:"environment"`

	// TraceExporter picks the span backend: "otlp", "stdout", or "none".
	TraceExporter string `json:"trace_exporter"`

	// MetricExporter picks the metric backend: "prometheus", "stdout",
	// or "none".
	MetricExporter string `json:"metric_exporter"`

	// OTLPEndpoint is the gRPC address spans are shipped to when the
	// exporter is "otlp".
	OTLPEndpoint string `json:"otlp_endpoint"`

	// OTLPInsecure ships OTLP without TLS. On for local collectors.
	OTLPInsecure bool `json:"otlp_insecure"`

	// SampleRate is the fraction of traces kept, 0.0 through 1.0.
	SampleRate float64 `json:"sample_rate"`

	// AllowDegraded runs without telemetry when an exporter cannot be
	// built, rather than failing Init.
	AllowDegraded bool `json:"allow_degraded"`
}

// DefaultConfig returns development defaults: full sampling, OTLP
// traces to a local collector, Prometheus metrics.
//
// The standard OTel environment variables override the exporter and
// endpoint choices, and STEVEDORE_ENV overrides the environment name.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "stevedore",
		ServiceVersion: "1.0.0",
		Environment:    getEnvOr("STEVEDORE_ENV", "development"),
		TraceExporter:  getEnvOr("OTEL_TRACES_EXPORTER", "otlp"),
		MetricExporter: getEnvOr("OTEL_METRICS_EXPORTER", "prometheus"),
		OTLPEndpoint:   getEnvOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:   true,
		SampleRate:     1.0,
		AllowDegraded:  false,
	}
}

// Init installs the global OpenTelemetry providers.
//
// Description:
//
//	Sets the W3C trace-context propagator, then builds and installs
//	the tracer and meter providers cfg selects. Once Init returns,
//	otel.Tracer and otel.Meter hand out instruments backed by the
//	configured exporters; before Init, or with an exporter set to
//	"none", they hand out no-ops.
//
// Inputs:
//
//	ctx - Used while dialing exporter connections.
//	cfg - Stack selection. DefaultConfig covers development.
//
// Outputs:
//
//	func(context.Context) error - Flushes and stops every provider
//	    that was installed. Call it on the way out of main.
//	error - Non-nil when an exporter cannot be built and AllowDegraded
//	    is off.
//
// Example:
//
//	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
//
// Thread Safety: Call once at startup, before anything traces.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	// W3C traceparent + baggage, so trace context survives HTTP hops.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	res := serviceResource(cfg)

	var cleanup shutdownChain
	if cfg.TraceExporter != "none" {
		tp, err := newTraceProvider(ctx, cfg, res)
		switch {
		case err != nil && cfg.AllowDegraded:
			slog.Warn("tracing disabled, exporter unavailable", "error", err)
		case err != nil:
			return nil, fmt.Errorf("set up tracing: %w", err)
		default:
			otel.SetTracerProvider(tp)
			cleanup = append(cleanup, tp.Shutdown)
		}
	}

	if cfg.MetricExporter != "none" {
		mp, err := newMeterProvider(cfg, res)
		switch {
		case err != nil && cfg.AllowDegraded:
			slog.Warn("metrics disabled, exporter unavailable", "error", err)
		case err != nil:
			return nil, fmt.Errorf("set up metrics: %w", err)
		default:
			otel.SetMeterProvider(mp)
			cleanup = append(cleanup, mp.Shutdown)
		}
	}

	return cleanup.shutdown, nil
}

// shutdownChain holds the shutdown hooks of the providers Init
// installed, so it can return them as a single cleanup function.
type shutdownChain []func(context.Context) error

// shutdown runs every hook even when one fails and joins the errors.
func (c shutdownChain) shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range c {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}

// serviceResource describes this process to the trace and metric
// backends using the standard OTel resource keys.
func serviceResource(cfg Config) *resource.Resource {
	return resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)
}

// newTraceProvider assembles a batching provider around the exporter
// cfg names.
func newTraceProvider(ctx context.Context, cfg Config, res *resource.Resource) (*trace.TracerProvider, error) {
	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(getSampler(cfg.SampleRate)),
	), nil
}

func newSpanExporter(ctx context.Context, cfg Config) (trace.SpanExporter, error) {
	switch cfg.TraceExporter {
	case "otlp", "jaeger":
		// Jaeger accepts OTLP natively since 1.35, so both names share
		// one path.
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)

	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}
}

// getSampler maps a sample rate to a trace sampler. Rates at or above
// one sample everything, rates at or below zero sample nothing.
func getSampler(rate float64) trace.Sampler {
	switch {
	case rate >= 1.0:
		return trace.AlwaysSample()
	case rate <= 0.0:
		return trace.NeverSample()
	default:
		return trace.TraceIDRatioBased(rate)
	}
}

// The prometheus branch of newMeterProvider stores the scrape handler
// here; MetricsHandler reads it.
var (
	prometheusHandler   http.Handler
	prometheusHandlerMu sync.RWMutex
)

// MetricsHandler returns the handler serving the Prometheus scrape
// output, or nil when the Prometheus exporter is not installed. The
// HTTP server mounts it at /metrics.
//
// Thread Safety: Safe for concurrent use.
func MetricsHandler() http.Handler {
	prometheusHandlerMu.RLock()
	defer prometheusHandlerMu.RUnlock()
	return prometheusHandler
}

// newMeterProvider assembles a provider around the exporter cfg names.
func newMeterProvider(cfg Config, res *resource.Resource) (*metric.MeterProvider, error) {
	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := promexporter.New()
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}

		// The exporter registers with the default prometheus registry,
		// so promhttp.Handler serves everything recorded through OTel
		// meters.
		prometheusHandlerMu.Lock()
		prometheusHandler = promhttp.Handler()
		prometheusHandlerMu.Unlock()

		return metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(exporter),
		), nil

	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout metric exporter: %w", err)
		}
		return metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(exporter)),
		), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.MetricExporter)
	}
}

// getEnvOr reads key from the environment, falling back when unset or
// empty.
func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
