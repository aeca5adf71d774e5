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
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const assignTracerName = "stevedore.assign"

// SearchTracer provides OpenTelemetry tracing for solve operations.
//
// Thread Safety: Safe for concurrent use.
type SearchTracer struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	enabled bool
}

// NewSearchTracer creates a tracer for solve runs. A nil logger falls
// back to slog.Default; with tracing disabled in config every span it
// opens is a no-op.
func NewSearchTracer(logger *slog.Logger, config ObservabilityConfig) *SearchTracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchTracer{
		tracer:  otel.Tracer(assignTracerName),
		logger:  logger,
		enabled: config.TracingEnabled,
	}
}

// StartSolve opens the root span for one solver run and logs the run
// header at Info.
//
// Inputs:
//   - ctx: Caller context the span is parented under.
//   - runID: Identifier stamped on this run's spans and logs.
//   - p: The problem being solved.
//   - objective: The objective being maximized.
//   - budget: Budget tracker for this run.
//
// Outputs:
//   - context.Context: ctx carrying the root span.
//   - trace.Span: The root span itself, a noop when tracing is off.
func (t *SearchTracer) StartSolve(ctx context.Context, runID string, p *Problem, objective Objective, budget *SearchBudget) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}

	config := budget.Config()
	ctx, span := t.tracer.Start(ctx, "solve.run",
		trace.WithAttributes(
			attribute.String("solve.run_id", runID),
			attribute.String("solve.objective", objective.String()),
			attribute.Int("solve.agents", p.NumAgents()),
			attribute.Int("solve.tasks", p.NumTasks()),
			attribute.Int("solve.hard_assignments", len(p.HardAssignments())),
			attribute.Int64("solve.budget.max_nodes", config.MaxNodes),
			attribute.Int("solve.budget.max_depth", config.MaxDepth),
			attribute.String("solve.budget.time_limit", config.TimeLimit.String()),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	t.logger.InfoContext(ctx, "solve started",
		slog.String("run_id", runID),
		slog.String("objective", objective.String()),
		slog.Int("agents", p.NumAgents()),
		slog.Int("tasks", p.NumTasks()),
	)

	return ctx, span
}

// EndSolve stamps the outcome on the root span and ends it.
//
// Inputs:
//   - span: Root span returned by StartSolve.
//   - result: The solve result, nil when the run failed outright.
//   - err: Terminal error, nil on success.
func (t *SearchTracer) EndSolve(span trace.Span, result *Result, err error) {
	if span == nil {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if result != nil {
		span.SetAttributes(
			attribute.String("solve.result.outcome", result.Outcome.String()),
			attribute.Int64("solve.result.nodes_explored", result.Stats.NodesExplored),
			attribute.Int64("solve.result.nodes_pruned", result.Stats.NodesPruned),
			attribute.Int64("solve.result.incumbent_updates", result.Stats.IncumbentUpdates),
			attribute.Int("solve.result.max_depth", result.Stats.MaxDepth),
			attribute.String("solve.result.elapsed", result.Stats.Duration.String()),
		)
		if result.Best != nil {
			span.SetAttributes(
				attribute.Float64("solve.result.profit", result.Best.TotalProfit()),
			)
		}
	}

	span.End()

	if result != nil {
		t.logger.Info("solve completed",
			slog.String("run_id", result.RunID),
			slog.String("outcome", result.Outcome.String()),
			slog.String("stats", result.Stats.String()),
		)
	}
}

// RecordIncumbent adds an incumbent event to the active span and logs
// the improvement at Debug.
//
// Inputs:
//   - ctx: Context carrying the run's span.
//   - inc: The new incumbent.
func (t *SearchTracer) RecordIncumbent(ctx context.Context, inc Incumbent) {
	span := trace.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent("incumbent",
			trace.WithAttributes(
				attribute.Float64("profit", inc.TotalProfit),
				attribute.Float64("fair_profit", inc.FairProfit),
				attribute.Int64("nodes", inc.Nodes),
				attribute.String("found_at", inc.FoundAt.String()),
			),
		)
	}

	t.logger.DebugContext(ctx, "incumbent improved",
		slog.Float64("profit", inc.TotalProfit),
		slog.Float64("fair_profit", inc.FairProfit),
		slog.Int64("nodes", inc.Nodes),
	)
}

// RecordBudgetExhaustion marks the active span with the limit that
// ended the search.
//
// Inputs:
//   - ctx: Context carrying the run's span.
//   - reason: Which limit tripped, "nodes" or "time".
//   - budget: The exhausted tracker, read for its usage numbers.
func (t *SearchTracer) RecordBudgetExhaustion(ctx context.Context, reason string, budget *SearchBudget) {
	span := trace.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent("budget_exhausted",
			trace.WithAttributes(
				attribute.String("reason", reason),
				attribute.Int64("nodes_used", budget.NodesExplored()),
				attribute.String("elapsed", budget.Elapsed().String()),
			),
		)
	}

	t.logger.InfoContext(ctx, "search budget exhausted",
		slog.String("reason", reason),
		slog.Int64("nodes_used", budget.NodesExplored()),
		slog.Duration("elapsed", budget.Elapsed()),
	)
}

// LoggerWithTrace returns logger annotated with the trace_id and
// span_id of the span carried in ctx. Without a valid span the logger
// comes back unchanged.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}
