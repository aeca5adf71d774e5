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
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordedSpan runs f against a live span and returns what the span
// processor saw after End.
func recordedSpan(t *testing.T, f func(span trace.Span)) sdktrace.ReadOnlySpan {
	t.Helper()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("stevedore.test").Start(context.Background(), "op")
	f(span)
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(ended))
	}
	return ended[0]
}

func TestSpanFromContext(t *testing.T) {
	t.Run("returns the span carried by the context", func(t *testing.T) {
		sc := testSpanContext()
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		got := SpanFromContext(ctx).SpanContext()
		if got.TraceID() != sc.TraceID() || got.SpanID() != sc.SpanID() {
			t.Error("SpanFromContext should surface the span in the context")
		}
	})

	t.Run("bare context yields a usable no-op span", func(t *testing.T) {
		span := SpanFromContext(context.Background())
		if span == nil {
			t.Fatal("expected a non-nil span")
		}
		span.AddEvent("discarded")
		span.End()
	})
}

func TestRecordError(t *testing.T) {
	t.Run("marks the span failed", func(t *testing.T) {
		boom := errors.New("no feasible solution")
		got := recordedSpan(t, func(span trace.Span) {
			RecordError(span, boom, attribute.Int64("nodes_explored", 4096))
		})

		if got.Status().Code != codes.Error {
			t.Errorf("status = %v, want Error", got.Status().Code)
		}
		if got.Status().Description != boom.Error() {
			t.Errorf("status description = %q, want %q", got.Status().Description, boom.Error())
		}
		if len(got.Events()) == 0 {
			t.Error("expected the error recorded as an event")
		}
	})

	t.Run("nil error leaves the span alone", func(t *testing.T) {
		got := recordedSpan(t, func(span trace.Span) {
			RecordError(span, nil)
		})
		if got.Status().Code == codes.Error {
			t.Error("nil error should not mark the span failed")
		}
	})

	t.Run("nil span is ignored", func(t *testing.T) {
		RecordError(nil, errors.New("dropped"))
	})
}

func TestSetSpanAttributes(t *testing.T) {
	t.Run("attaches attributes", func(t *testing.T) {
		got := recordedSpan(t, func(span trace.Span) {
			SetSpanAttributes(span,
				attribute.String("solve.run_id", "9c41d871"),
				attribute.String("solve.outcome", "optimal"),
			)
		})

		attrs := make(map[attribute.Key]attribute.Value, len(got.Attributes()))
		for _, kv := range got.Attributes() {
			attrs[kv.Key] = kv.Value
		}
		if v := attrs["solve.run_id"]; v.AsString() != "9c41d871" {
			t.Errorf("solve.run_id = %q, want %q", v.AsString(), "9c41d871")
		}
		if v := attrs["solve.outcome"]; v.AsString() != "optimal" {
			t.Errorf("solve.outcome = %q, want %q", v.AsString(), "optimal")
		}
	})

	t.Run("nil span is ignored", func(t *testing.T) {
		SetSpanAttributes(nil, attribute.String("key", "value"))
	})
}

func TestTraceID(t *testing.T) {
	t.Run("returns the hex trace ID", func(t *testing.T) {
		sc := testSpanContext()
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		if got := TraceID(ctx); got != sc.TraceID().String() {
			t.Errorf("TraceID() = %q, want %q", got, sc.TraceID().String())
		}
	})

	t.Run("bare context yields empty", func(t *testing.T) {
		if got := TraceID(context.Background()); got != "" {
			t.Errorf("TraceID() = %q, want empty", got)
		}
	})
}
