package router

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the router's spans.
const TracerName = "github.com/vango-dev/facilityfinder/pkg/router"

// Span attribute keys.
const (
	attrPath       = "router.path"
	attrRoute      = "router.route"
	attrGeneration = "router.generation"
	attrOutcome    = "router.outcome"
)

func defaultTracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// recordError marks the span as failed.
func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
