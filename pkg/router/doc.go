// Package router maps navigable paths to views.
//
// The router provides:
//   - A route tree with literal and parameter segments
//   - Parameter extraction with optional regexp constraints
//   - Eager views and lazily loaded views, loaded at most once
//   - Navigation sessions with history and supersession of stale navigations
//   - Reverse routing by route name
//
// # Patterns
//
// Dynamic segments start with a colon and may carry a constraint:
//
//	/facility/:id        → any non-empty segment, captured as "id"
//	/event/:id(\d+)      → digits only
//
// Literal segments match case-insensitively unless WithCaseSensitive(true)
// is given. A trailing slash, repeated slashes and "." or ".." segments in
// a navigated path are canonicalized away before matching.
//
// # Precedence
//
// Exactly one route matches a path. When several patterns accept it, the
// route with fewer parameter segments wins, so a literal segment beats a
// parameter at the same position ("/facility/new" over "/facility/:id").
// Remaining ties go to the route registered first. Two patterns accepting
// exactly the same set of paths are rejected at registration.
//
// # Usage
//
//	r := router.New()
//	err := r.Register(
//	    router.Entry{Path: "/", Name: "home", View: home},
//	    router.Entry{Path: "/about", Name: "about", Load: loadAbout},
//	    router.Entry{Path: "/facility/:id", Name: "FacilityDetail", View: facility, Props: true},
//	)
//	if err != nil {
//	    // *ConfigurationError: abort startup
//	}
//
//	state, err := r.Navigate(ctx, "/facility/42")
//	// state.Route.Name() == "FacilityDetail"
//	// state.Params["id"] == "42"
//	// state.Component() renders the view with Props{"id": "42"}
//
// # Errors
//
// A path without a matching route is not an error: the returned State has
// a nil Route and the caller renders a not-found view. A failing lazy
// loader is reported through State.Err as a *LoadError and only affects
// that navigation. Registration problems are *ConfigurationError values and
// must stop the application from starting.
package router
