// Package middleware provides chi middleware for observing the HTTP shell.
//
// # Prometheus Metrics
//
// Metrics counts and times requests by chi route pattern and tracks live
// navigation connections:
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r := chi.NewRouter()
//	r.Use(m.Handler)
//	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # OpenTelemetry
//
// OpenTelemetry starts a server span per request and puts it in the request
// context, so spans started further down (router.navigate, router.load)
// join the request's trace:
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
package middleware
