package router

import (
	"context"
	"net/url"

	"github.com/a-h/templ"

	"github.com/vango-dev/facilityfinder/pkg/routepath"
)

// Props is the input data a view receives.
// It holds the extracted path parameters of routes that forward them.
type Props map[string]string

// Get returns the value of a prop, or "" when absent.
func (p Props) Get(name string) string {
	return p[name]
}

// View renders a page. props is nil unless the route forwards params.
type View func(props Props) templ.Component

// Loader produces a view on first navigation to a lazy route.
// A successful result is cached for the lifetime of the Router.
type Loader func(ctx context.Context) (View, error)

// Entry describes a route to register.
type Entry struct {
	// Path is the URL pattern (e.g., "/facility/:id").
	Path string

	// Name is the unique logical identifier of the route.
	Name string

	// View is the eagerly available view. Mutually exclusive with Load.
	View View

	// Load lazily produces the view. Mutually exclusive with View.
	Load Loader

	// Props forwards extracted path parameters to the view.
	Props bool

	// Title is the document title shown for the route.
	Title string
}

// Route is a registered, immutable route.
type Route struct {
	name    string
	title   string
	pattern *routepath.Pattern
	order   int
	props   bool
	view    View
	load    Loader
}

// Name returns the route name.
func (r *Route) Name() string { return r.name }

// Path returns the raw route pattern.
func (r *Route) Path() string { return r.pattern.String() }

// Pattern returns the parsed route pattern.
func (r *Route) Pattern() *routepath.Pattern { return r.pattern }

// Title returns the document title.
func (r *Route) Title() string { return r.title }

// Lazy reports whether the view is loaded on first navigation.
func (r *Route) Lazy() bool { return r.load != nil }

// ForwardsParams reports whether path parameters are passed to the view.
func (r *Route) ForwardsParams() bool { return r.props }

// Order returns the registration index, used to break matching ties.
func (r *Route) Order() int { return r.order }

// State is the result of resolving or navigating to a path.
type State struct {
	// Path is the canonical path, without query or hash.
	Path string

	// FullPath is the canonical path with query and hash.
	FullPath string

	// Query holds the parsed query string.
	Query url.Values

	// Hash is the fragment without the leading "#".
	Hash string

	// Route is the matched route, or nil when no route matches.
	Route *Route

	// Params maps parameter names to their decoded values.
	Params map[string]string

	// View is the loaded view. It is nil for unmatched paths, failed loads
	// and states returned by Resolve for lazy routes not yet loaded.
	View View

	// Err is a *LoadError when the route's view failed to load.
	Err error

	// Pending marks a placeholder state published while a lazy view loads.
	Pending bool
}

// NotFound reports whether no route matched.
func (s State) NotFound() bool {
	return s.Route == nil
}

// Failed reports whether the matched route's view failed to load.
func (s State) Failed() bool {
	return s.Err != nil
}

// Props returns the input data for the view: the params when the route
// forwards them, nil otherwise.
func (s State) Props() Props {
	if s.Route == nil || !s.Route.props || len(s.Params) == 0 {
		return nil
	}
	props := make(Props, len(s.Params))
	for k, v := range s.Params {
		props[k] = v
	}
	return props
}

// RouteName returns the matched route name, or "" when not found.
func (s State) RouteName() string {
	if s.Route == nil {
		return ""
	}
	return s.Route.name
}

// Component renders the state's view, or nil when there is none.
func (s State) Component() templ.Component {
	if s.View == nil {
		return nil
	}
	return s.View(s.Props())
}
