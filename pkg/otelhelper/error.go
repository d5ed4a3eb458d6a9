package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorMessageKey tags span error events with the failure that was
// recorded.
const ErrorMessageKey = "journey.error.message"

// SetError marks the span as failed and records the error as a span
// event. Callers pass node or execution attributes to pin the failure to
// a spot in the graph.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("journey.error", trace.WithAttributes(
		append(attrs, attribute.String(ErrorMessageKey, err.Error()))...,
	))
}
