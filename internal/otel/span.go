// Package otel provides tracing helpers shared by the run pipeline.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on pipeline spans
const (
	AttrRunID       = attribute.Key("ajustes.run_id")
	AttrRegion      = attribute.Key("ajustes.region")
	AttrOutcome     = attribute.Key("ajustes.outcome")
	AttrRowCount    = attribute.Key("ajustes.rows")
	AttrRecordCount = attribute.Key("ajustes.records")
	AttrPhase       = attribute.Key("ajustes.phase")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns the
// span already in ctx.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span as failed with the
// given description. Nil spans and nil errors are ignored.
func RecordError(span trace.Span, err error, description string) {
	if err == nil || span == nil {
		return
	}
	span.RecordError(err)
	if description == "" {
		description = "operation failed"
	}
	span.SetStatus(codes.Error, description)
}
