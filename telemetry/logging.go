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
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// LoggerWithTrace returns logger with the active trace identity attached.
//
// Description:
//
//	When ctx carries a valid span context, the returned logger carries
//	trace_id and span_id fields so a log line lands next to its trace
//	in whatever backend joins the two. Without a span, or with a nil
//	ctx, the logger comes back unchanged; a nil logger falls back to
//	slog.Default.
//
// Inputs:
//
//	ctx - Context that may carry a span. May be nil.
//	logger - Logger to annotate. May be nil.
//
// Outputs:
//
//	*slog.Logger - Never nil.
//
// Example:
//
//	logger := telemetry.LoggerWithTrace(ctx, s.logger)
//	logger.Info("solve started")
//
// Thread Safety: Safe for concurrent use.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		return logger
	}

	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}

	return logger.With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}

// LoggerWithRun is LoggerWithTrace plus the run_id the solver stamps
// on each Solve call. Concurrent solves interleave in the log; run_id
// separates them.
//
// Thread Safety: Safe for concurrent use.
func LoggerWithRun(ctx context.Context, logger *slog.Logger, runID string) *slog.Logger {
	return LoggerWithTrace(ctx, logger).With(slog.String("run_id", runID))
}

// LoggerWithProblem is LoggerWithTrace plus the problem document's
// name, for following one document through load, check, and solve.
//
// Thread Safety: Safe for concurrent use.
func LoggerWithProblem(ctx context.Context, logger *slog.Logger, problem string) *slog.Logger {
	return LoggerWithTrace(ctx, logger).With(slog.String("problem", problem))
}
