package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsNavigations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))
	r := newFinderRouter(t, WithMetrics(m))
	ctx := context.Background()

	r.Navigate(ctx, "/")
	r.Navigate(ctx, "/facility/1")
	r.Navigate(ctx, "/facility/2")
	r.Navigate(ctx, "/missing")

	tests := []struct {
		route, outcome string
		want           float64
	}{
		{"home", OutcomeOK, 1},
		{"FacilityDetail", OutcomeOK, 2},
		{"", OutcomeNotFound, 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.navigations.WithLabelValues(tt.route, tt.outcome))
		if got != tt.want {
			t.Errorf("navigations{%q,%q} = %v, want %v", tt.route, tt.outcome, got, tt.want)
		}
	}
}

func TestMetricsLoads(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	failing := func(ctx context.Context) (View, error) { return nil, errors.New("boom") }
	r := newLazyRouter(t, failing, WithMetrics(m))

	r.Navigate(context.Background(), "/about")

	if got := testutil.ToFloat64(m.loads.WithLabelValues("about", "error")); got != 1 {
		t.Errorf("view_loads_total{about,error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.navigations.WithLabelValues("about", OutcomeLoadFailed)); got != 1 {
		t.Errorf("navigations_total{about,load_failed} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(reg, "facilityfinder_router_view_load_duration_seconds"); got != 1 {
		t.Errorf("load duration series = %d, want 1", got)
	}

	expected := `
# HELP facilityfinder_router_view_loads_total Total number of lazy view loader invocations by route and result
# TYPE facilityfinder_router_view_loads_total counter
facilityfinder_router_view_loads_total{result="error",route="about"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "facilityfinder_router_view_loads_total"); err != nil {
		t.Error(err)
	}
}

func TestMetricsConstLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithConstLabels(prometheus.Labels{"app": "finder"}), WithBuckets([]float64{0.1, 1}))
	m.observeNavigation("home", OutcomeOK)

	expected := `
# HELP facilityfinder_router_navigations_total Total number of navigations by route and outcome
# TYPE facilityfinder_router_navigations_total counter
facilityfinder_router_navigations_total{app="finder",outcome="ok",route="home"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "facilityfinder_router_navigations_total"); err != nil {
		t.Error(err)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.observeNavigation("home", OutcomeOK)
	m.observeLoad("about", nil, 0)
}
