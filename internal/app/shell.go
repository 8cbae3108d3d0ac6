package app

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/facilityfinder/pkg/middleware"
	"github.com/vango-dev/facilityfinder/pkg/router"
)

//go:embed static
var staticFiles embed.FS

// ShellOptions configures the HTTP shell.
type ShellOptions struct {
	// Logger receives request logs. Nil uses slog.Default().
	Logger *slog.Logger

	// Metrics records request and live connection metrics. May be nil.
	Metrics *middleware.Metrics

	// Gatherer is exposed at MetricsPath. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// MetricsPath is the metrics endpoint path (default "/metrics").
	MetricsPath string

	// Tracer starts a server span per request. Nil disables request spans.
	Tracer trace.Tracer

	// Live configures live navigation connections.
	Live LiveConfig
}

// Shell is the finder's HTTP front end. It renders the page for a request
// path on the server, and serves live navigation over WebSocket.
type Shell struct {
	router *router.Router
	views  *Views
	live   *Live
	logger *slog.Logger
	mux    *chi.Mux
}

// NewShell creates the HTTP shell for r and v.
func NewShell(r *router.Router, v *Views, opts ShellOptions) *Shell {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	s := &Shell{
		router: r,
		views:  v,
		live:   NewLive(r, v, opts.Live, logger, opts.Metrics),
		logger: logger.With("component", "shell"),
		mux:    chi.NewRouter(),
	}

	s.mux.Use(chimw.RequestID, chimw.RealIP, s.logRequests, chimw.Recoverer)
	if opts.Tracer != nil {
		s.mux.Use(middleware.OpenTelemetry(
			middleware.WithTracer(opts.Tracer),
			middleware.WithRequestFilter(func(r *http.Request) bool {
				return r.URL.Path != "/healthz" && r.URL.Path != opts.MetricsPath
			}),
		))
	}
	s.mux.Use(opts.Metrics.Handler)

	s.mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if opts.Gatherer != nil {
		s.mux.Method(http.MethodGet, opts.MetricsPath, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	base := r.Base()
	static, _ := fs.Sub(staticFiles, "static")
	s.mux.Handle(base+"/static/*", http.StripPrefix(base+"/static/", http.FileServer(http.FS(static))))
	s.mux.Get(base+"/ws", s.live.ServeHTTP)
	s.mux.Get("/*", s.page)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Shell) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// page renders the view for the request path inside the layout.
//
// Each request navigates a throwaway session, so lazy views are loaded
// once and shared with every other request and live connection.
func (s *Shell) page(w http.ResponseWriter, r *http.Request) {
	// The router decodes segments itself, so it gets the path as sent.
	escaped := r.URL.EscapedPath()
	path, ok := s.router.StripBase(escaped)
	if !ok {
		s.write(w, r, s.views.Page(router.State{Path: escaped, FullPath: escaped}))
		return
	}
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	state, err := s.router.NewSession(nil).Navigate(r.Context(), path)
	if err != nil {
		// Only a departed client ends a fresh session's navigation early.
		s.logger.Debug("navigation abandoned", "path", path, "error", err)
		return
	}
	s.write(w, r, s.views.Page(state))
}

func (s *Shell) write(w http.ResponseWriter, r *http.Request, p Page) {
	templ.Handler(s.views.Document(p),
		templ.WithStatus(p.Status),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			s.logger.Error("render failed", "path", r.URL.Path, "error", err)
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			})
		}),
	).ServeHTTP(w, r)
}

// logRequests logs every request with slog.
func (s *Shell) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}
