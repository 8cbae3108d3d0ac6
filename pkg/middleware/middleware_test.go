package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestRouter(mw ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(mw...)
	r.Get("/facility/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("facility " + chi.URLParam(r, "id")))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))
	h := newTestRouter(m.Handler)

	get(t, h, "/facility/1")
	get(t, h, "/facility/2")
	get(t, h, "/boom")
	get(t, h, "/nowhere")

	tests := []struct {
		route, code string
		want        float64
	}{
		{"/facility/{id}", "200", 2},
		{"/boom", "500", 1},
		{"unmatched", "404", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(tt.route, tt.code))
		if got != tt.want {
			t.Errorf("requests_total{%q,%q} = %v, want %v", tt.route, tt.code, got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(m.requestDuration, "test_http_request_duration_seconds"); n != 3 {
		t.Errorf("duration series = %d, want 3", n)
	}
}

func TestMetricsLive(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithConstLabels(prometheus.Labels{"app": "finder"}))

	m.LiveConnected()
	m.LiveConnected()
	m.LiveDisconnected()
	m.RecordLiveMessage("navigate")
	m.RecordLiveMessage("navigate")
	m.RecordWebSocketError("read")

	if got := testutil.ToFloat64(m.liveConnections); got != 1 {
		t.Errorf("live_connections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.liveMessages.WithLabelValues("navigate")); got != 2 {
		t.Errorf("live_messages_total{navigate} = %v, want 2", got)
	}

	want := `
# HELP facilityfinder_http_websocket_errors_total Total WebSocket errors by type
# TYPE facilityfinder_http_websocket_errors_total counter
facilityfinder_http_websocket_errors_total{app="finder",type="read"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "facilityfinder_http_websocket_errors_total"); err != nil {
		t.Error(err)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.LiveConnected()
	m.LiveDisconnected()
	m.RecordLiveMessage("back")
	m.RecordWebSocketError("read")

	h := newTestRouter(m.Handler)
	if rec := get(t, h, "/healthz"); rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, trace.Tracer) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return rec, tp.Tracer("test")
}

func attrOf(s sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOpenTelemetrySpan(t *testing.T) {
	rec, tracer := newRecorder(t)
	h := newTestRouter(OpenTelemetry(
		WithTracer(tracer),
		WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	))

	get(t, h, "/facility/42")

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "HTTP GET /facility/{id}" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v", s.SpanKind())
	}
	if v, _ := attrOf(s, "http.route"); v.AsString() != "/facility/{id}" {
		t.Errorf("http.route = %q", v.AsString())
	}
	if v, _ := attrOf(s, "http.response.status_code"); v.AsInt64() != 200 {
		t.Errorf("status = %d", v.AsInt64())
	}
	if v, _ := attrOf(s, "test.attr"); v.AsString() != "ok" {
		t.Errorf("test.attr = %q", v.AsString())
	}
}

func TestOpenTelemetryServerError(t *testing.T) {
	rec, tracer := newRecorder(t)
	h := newTestRouter(OpenTelemetry(WithTracer(tracer)))

	get(t, h, "/boom")

	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Status().Code != codes.Error {
		t.Fatalf("spans = %v, want one span with error status", spans)
	}
}

func TestOpenTelemetryFilterSkipsTracing(t *testing.T) {
	rec, tracer := newRecorder(t)
	h := newTestRouter(OpenTelemetry(
		WithTracer(tracer),
		WithRequestFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
	))

	get(t, h, "/healthz")

	if n := len(rec.Ended()); n != 0 {
		t.Errorf("got %d spans, want 0", n)
	}
}

func TestOpenTelemetryContinuesRemoteTrace(t *testing.T) {
	rec, tracer := newRecorder(t)

	var inner trace.SpanContext
	r := chi.NewRouter()
	r.Use(OpenTelemetry(WithTracer(tracer), WithPropagator(propagation.TraceContext{})))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := inner.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace id = %s", got)
	}
	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Parent().SpanID().String() != "00f067aa0ba902b7" {
		t.Errorf("span parent = %v", spans)
	}
}
