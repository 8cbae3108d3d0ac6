package router

import (
	"context"
	"fmt"
	"net/url"
)

// NavigateOptions configures navigation behavior.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Query holds query parameters to add to the target path.
	Query map[string]any

	// delta is set for history traversals (Back/Forward).
	delta int
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithQuery adds query parameters to the navigation target.
func WithQuery(query map[string]any) NavigateOption {
	return func(o *NavigateOptions) {
		o.Query = query
	}
}

// Navigator changes the current view of a navigation session.
// Both *Router and *Session implement it.
type Navigator interface {
	// Navigate resolves path, loads its view and publishes the new state.
	Navigate(ctx context.Context, path string, opts ...NavigateOption) (State, error)

	// Back navigates to the previous history entry.
	Back(ctx context.Context) (State, error)

	// Forward navigates to the next history entry.
	Forward(ctx context.Context) (State, error)

	// Current returns the last published state.
	Current() State
}

var (
	_ Navigator = (*Router)(nil)
	_ Navigator = (*Session)(nil)
)

// target builds the navigation target from path and the query options.
func (o NavigateOptions) target(path string) (string, error) {
	if len(o.Query) == 0 {
		return path, nil
	}

	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %s", path)
	}

	q := u.Query()
	for k, v := range o.Query {
		q.Set(k, fmt.Sprintf("%v", v))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
