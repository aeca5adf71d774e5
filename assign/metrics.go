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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for solver operations.
var meter = otel.Meter(assignTracerName)

// Metrics for solver operations.
var (
	// Solve metrics
	solvesTotal   metric.Int64Counter
	solveDuration metric.Float64Histogram

	// Search metrics
	nodesExploredTotal    metric.Int64Counter
	nodesPrunedTotal      metric.Int64Counter
	incumbentUpdatesTotal metric.Int64Counter
	searchDepth           metric.Int64Histogram

	// Solution metrics
	solutionProfit metric.Float64Histogram

	// Budget utilization
	budgetUtilization metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics builds the instrument set on first use; later calls reuse it.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		// Solve metrics
		solvesTotal, err = meter.Int64Counter(
			"stevedore_solves_total",
			metric.WithDescription("Total solves by objective and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		solveDuration, err = meter.Float64Histogram(
			"stevedore_solve_duration_seconds",
			metric.WithDescription("Solve duration by objective"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		// Search metrics
		nodesExploredTotal, err = meter.Int64Counter(
			"stevedore_nodes_explored_total",
			metric.WithDescription("Total search nodes explored"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesPrunedTotal, err = meter.Int64Counter(
			"stevedore_nodes_pruned_total",
			metric.WithDescription("Total subtrees pruned by bound"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		incumbentUpdatesTotal, err = meter.Int64Counter(
			"stevedore_incumbent_updates_total",
			metric.WithDescription("Total incumbent improvements"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchDepth, err = meter.Int64Histogram(
			"stevedore_search_depth",
			metric.WithDescription("Deepest assignment depth reached per solve"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		// Solution metrics
		solutionProfit, err = meter.Float64Histogram(
			"stevedore_solution_profit",
			metric.WithDescription("Total profit of returned solutions"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		// Budget utilization
		budgetUtilization, err = meter.Float64Histogram(
			"stevedore_budget_utilization_percent",
			metric.WithDescription("Budget utilization at completion"),
			metric.WithUnit("%"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// RecordSolve records metrics for a completed solve.
//
// Inputs:
//   - ctx: Recording context passed through to the instruments.
//   - objective: The objective that was maximized.
//   - result: The solve result.
//
// Thread Safety: Safe for concurrent use.
func RecordSolve(ctx context.Context, objective Objective, result *Result) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("objective", objective.String()),
		attribute.String("outcome", result.Outcome.String()),
	)

	solvesTotal.Add(ctx, 1, attrs)
	solveDuration.Record(ctx, result.Stats.Duration.Seconds(), attrs)
	nodesExploredTotal.Add(ctx, result.Stats.NodesExplored)
	nodesPrunedTotal.Add(ctx, result.Stats.NodesPruned)
	incumbentUpdatesTotal.Add(ctx, result.Stats.IncumbentUpdates)
	searchDepth.Record(ctx, int64(result.Stats.MaxDepth))
	if result.Best != nil {
		solutionProfit.Record(ctx, result.Best.TotalProfit(), attrs)
	}
}

// RecordSolveFailure records a solve that returned an error.
//
// Inputs:
//   - ctx: Recording context passed through to the instruments.
//   - objective: The objective that was maximized.
//   - reason: Short failure label ("infeasible", "no_incumbent", ...).
//
// Thread Safety: Safe for concurrent use.
func RecordSolveFailure(ctx context.Context, objective Objective, reason string) {
	if err := initMetrics(); err != nil {
		return
	}

	solvesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("objective", objective.String()),
		attribute.String("outcome", reason),
	))
}

// RecordBudgetUtilization publishes node and elapsed-time usage for a
// finished run.
//
// Inputs:
//   - ctx: Recording context passed through to the instruments.
//   - budget: Source of the node count and elapsed time.
//
// Thread Safety: Safe for concurrent use.
func RecordBudgetUtilization(ctx context.Context, budget *SearchBudget) {
	if err := initMetrics(); err != nil {
		return
	}

	config := budget.Config()
	if config.MaxNodes > 0 {
		pct := float64(budget.NodesExplored()) / float64(config.MaxNodes) * 100
		budgetUtilization.Record(ctx, pct, metric.WithAttributes(attribute.String("dimension", "nodes")))
	}
	if config.TimeLimit > 0 {
		pct := float64(budget.Elapsed()) / float64(config.TimeLimit) * 100
		budgetUtilization.Record(ctx, pct, metric.WithAttributes(attribute.String("dimension", "time")))
	}
}
