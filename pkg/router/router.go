package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/facilityfinder/pkg/routepath"
)

// Router maps paths to views.
//
// Routes are registered once at startup and are immutable afterwards: the
// first Resolve or Navigate seals the table. The Router owns the lazy view
// cache and a default navigation Session; NewSession creates more sessions
// sharing both the table and the cache.
type Router struct {
	mu      sync.RWMutex
	root    *routeNode
	routes  []*Route
	byName  map[string]*Route
	classes map[string]*Route
	sealed  atomic.Bool

	caseSensitive bool
	placeholder   View
	views         *viewCache
	main          *Session

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// New creates a router with no routes.
func New(opts ...Option) *Router {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Router{
		root:          newRouteNode(""),
		byName:        make(map[string]*Route),
		classes:       make(map[string]*Route),
		caseSensitive: o.caseSensitive,
		placeholder:   o.placeholder,
		views:         newViewCache(o),
		logger:        o.logger,
		metrics:       o.metrics,
		tracer:        o.tracer,
	}
	r.main = newSession(r, o.history)
	return r
}

// Register adds routes to the table.
//
// Registration is atomic: if any entry is invalid, none is added and a
// *ConfigurationError describes the first problem. Entries fail when their
// name is empty or already used, their pattern is malformed, they set
// neither or both of View and Load, or they match exactly the same paths
// as another entry. Register fails once the table is sealed.
//
// When several routes match a path, the one with fewer parameter segments
// wins; remaining ties go to the route registered first.
func (r *Router) Register(entries ...Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return &ConfigurationError{
			Code: CodeSealed,
			Err:  errors.New("routes must be registered before the first navigation"),
		}
	}

	fold := !r.caseSensitive
	names := make(map[string]bool, len(entries))
	classes := make(map[string]*Route, len(entries))
	routes := make([]*Route, 0, len(entries))

	for i, e := range entries {
		if e.Name == "" {
			return &ConfigurationError{Code: CodeEmptyName, Pattern: e.Path, Err: errors.New("route name is empty")}
		}
		if names[e.Name] || r.byName[e.Name] != nil {
			return &ConfigurationError{Code: CodeDuplicateName, Route: e.Name, Pattern: e.Path, Err: errors.New("duplicate route name")}
		}

		pattern, err := routepath.ParsePattern(e.Path)
		if err != nil {
			return &ConfigurationError{Code: CodeMalformedPattern, Route: e.Name, Pattern: e.Path, Err: err}
		}

		if (e.View == nil) == (e.Load == nil) {
			return &ConfigurationError{Code: CodeInvalidView, Route: e.Name, Pattern: e.Path, Err: errors.New("exactly one of View and Load must be set")}
		}

		class := pattern.Class(fold)
		other := classes[class]
		if other == nil {
			other = r.classes[class]
		}
		if other != nil {
			return &ConfigurationError{
				Code:    CodeAmbiguousPattern,
				Route:   e.Name,
				Pattern: e.Path,
				Err:     fmt.Errorf("matches the same paths as route %q (%s)", other.name, other.Path()),
			}
		}

		route := &Route{
			name:    e.Name,
			title:   e.Title,
			pattern: pattern,
			order:   len(r.routes) + i,
			props:   e.Props,
			view:    e.View,
			load:    e.Load,
		}
		names[e.Name] = true
		classes[class] = route
		routes = append(routes, route)
	}

	for _, route := range routes {
		node := r.root.insertRoute(route.pattern, fold)
		node.route = route
		r.byName[route.name] = route
		r.classes[route.pattern.Class(fold)] = route
		r.routes = append(r.routes, route)
		r.logger.Debug("route registered", "name", route.name, "path", route.Path(), "lazy", route.Lazy())
	}

	return nil
}

// Resolve matches path against the table without loading anything.
//
// The path may carry a query and a hash. It is canonicalized first; paths
// that cannot be canonicalized or decoded resolve to not found. For lazy
// routes the returned View is set only once the view has been loaded.
func (r *Router) Resolve(path string) State {
	r.sealed.Store(true)

	loc, err := routepath.CanonicalizePath(path)
	if err != nil {
		return State{Path: path, FullPath: path, Query: url.Values{}}
	}

	state := State{
		Path:     loc.Path,
		FullPath: loc.FullPath(),
		Hash:     loc.Hash,
	}
	query, err := url.ParseQuery(loc.Query)
	if err != nil {
		// ParseQuery keeps the pairs it could decode.
		r.logger.Debug("malformed query", "path", path, "error", err)
	}
	state.Query = query

	segments, err := routepath.DecodePathSegments(loc.Path)
	if err != nil {
		return state
	}

	r.mu.RLock()
	var best candidate
	r.root.match(segments, nil, !r.caseSensitive, &best)
	r.mu.RUnlock()

	if best.route == nil {
		return state
	}

	state.Route = best.route
	names := best.route.pattern.ParamNames()
	state.Params = make(map[string]string, len(names))
	for i, name := range names {
		state.Params[name] = best.captures[i]
	}
	if view, ok := r.views.cached(best.route); ok {
		state.View = view
	}

	return state
}

// Load returns the route's view, running its lazy loader on first use.
// Loader failures are returned as *LoadError.
func (r *Router) Load(ctx context.Context, route *Route) (View, error) {
	return r.views.load(ctx, route)
}

// LoadState reports the lazy load status of the named route.
func (r *Router) LoadState(name string) LoadState {
	route, ok := r.Route(name)
	if !ok {
		return LoadNone
	}
	state, _ := r.views.state(route)
	return state
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Route(nil), r.routes...)
}

// Route returns the route with the given name.
func (r *Router) Route(name string) (*Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.byName[name]
	return route, ok
}

// URL builds the app-relative path of a named route.
func (r *Router) URL(name string, params map[string]string) (string, error) {
	route, ok := r.Route(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	return route.pattern.Build(params)
}

// Base returns the path prefix of the default session's history.
func (r *Router) Base() string {
	return r.main.history.Base()
}

// Href prefixes an app-relative path with the history base.
func (r *Router) Href(path string) string {
	base := r.Base()
	if base == "" {
		return path
	}
	return base + path
}

// StripBase removes the history base from a request path.
// It reports false when the path is outside the base.
func (r *Router) StripBase(path string) (string, bool) {
	base := r.Base()
	if base == "" {
		return path, true
	}
	if path == base {
		return "/", true
	}
	if rest, ok := strings.CutPrefix(path, base+"/"); ok {
		return "/" + rest, true
	}
	return "", false
}

// NewSession creates a navigation session with its own current state and
// history. A nil history gets an in-memory history with the Router's base.
func (r *Router) NewSession(h History) *Session {
	if h == nil {
		h = NewMemoryHistory(r.Base())
	}
	return newSession(r, h)
}

// Session returns the Router's default session.
func (r *Router) Session() *Session {
	return r.main
}

// Navigate navigates the default session. See Session.Navigate.
func (r *Router) Navigate(ctx context.Context, path string, opts ...NavigateOption) (State, error) {
	return r.main.Navigate(ctx, path, opts...)
}

// Back navigates the default session back.
func (r *Router) Back(ctx context.Context) (State, error) {
	return r.main.Back(ctx)
}

// Forward navigates the default session forward.
func (r *Router) Forward(ctx context.Context) (State, error) {
	return r.main.Forward(ctx)
}

// Current returns the default session's state.
func (r *Router) Current() State {
	return r.main.Current()
}

// OnChange registers a listener on the default session.
func (r *Router) OnChange(fn func(State)) (cancel func()) {
	return r.main.OnChange(fn)
}
