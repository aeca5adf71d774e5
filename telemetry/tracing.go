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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanFromContext returns the span carried by ctx.
//
// Description:
//
//	Thin wrapper over trace.SpanFromContext so callers outside this
//	package do not need the OTel trace API on their import path. When
//	ctx carries no span the result is a no-op span: recording calls on
//	it are safe and discarded.
//
// Inputs:
//
//	ctx - Context that may carry a span, e.g. one opened by the otelgin
//	      middleware or by assign.SearchTracer.
//
// Outputs:
//
//	trace.Span - The active span, or a no-op span when none is set.
//
// Thread Safety: Safe for concurrent use.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// RecordError marks span as failed and attaches err to it.
//
// Description:
//
//	Sets the span status to Error with the error text and records the
//	error itself, plus any extra attributes, as an exception event.
//	A nil span or nil err makes this a no-op, so shared error paths can
//	call it without guarding.
//
// Inputs:
//
//	span - Span to mark. May be nil.
//	err - Error to attach. May be nil.
//	attrs - Extra attributes recorded alongside the error event.
//
// Example:
//
//	res, err := solver.Solve(ctx)
//	if err != nil {
//	    telemetry.RecordError(telemetry.SpanFromContext(ctx), err)
//	    return err
//	}
//
// Thread Safety: Safe for concurrent use.
func RecordError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	var opts []trace.EventOption
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes attaches attributes to span.
//
// Description:
//
//	Adds the given attributes to the span, overwriting any that share a
//	key. A nil span is ignored.
//
// Inputs:
//
//	span - Span to annotate. May be nil.
//	attrs - Attributes to attach.
//
// Example:
//
//	telemetry.SetSpanAttributes(telemetry.SpanFromContext(ctx),
//	    attribute.String("solve.run_id", res.RunID),
//	    attribute.String("solve.outcome", string(res.Outcome)),
//	)
//
// Thread Safety: Safe for concurrent use.
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.SetAttributes(attrs...)
}

// TraceID returns the hex trace ID carried by ctx, or "" when ctx has
// no valid span context. Request logs include it so a log line can be
// joined with its trace.
//
// Thread Safety: Safe for concurrent use.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
