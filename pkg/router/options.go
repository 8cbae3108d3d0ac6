package router

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Router.
type Option func(*options)

type options struct {
	caseSensitive bool
	logger        *slog.Logger
	metrics       *Metrics
	tracer        trace.Tracer
	placeholder   View
	loadTimeout   time.Duration
	history       History
}

func defaultOptions() options {
	return options{
		logger: slog.Default().With("component", "router"),
		tracer: defaultTracer(),
	}
}

// WithCaseSensitive controls literal segment matching.
// Matching is case-insensitive by default: "/findfacility_event" resolves
// to the "/FindFacility_Event" route.
func WithCaseSensitive(sensitive bool) Option {
	return func(o *options) {
		o.caseSensitive = sensitive
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records navigation and view load metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer used for navigation and load spans.
// Default: the global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithPlaceholder publishes a Pending state rendering view to listeners
// while a lazy view loads.
func WithPlaceholder(view View) Option {
	return func(o *options) {
		o.placeholder = view
	}
}

// WithLoadTimeout bounds each lazy view load. Zero means no limit.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.loadTimeout = d
	}
}

// WithHistory sets the history of the Router's own navigation session.
// Default: an in-memory history served at "/".
func WithHistory(h History) Option {
	return func(o *options) {
		o.history = h
	}
}
