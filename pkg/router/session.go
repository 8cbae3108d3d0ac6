package router

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Session owns one "current view" slot and its history.
//
// Every Navigate call takes a new generation number in call order. A result
// is published only if its generation is still the latest when it completes,
// so the displayed state always belongs to the most recent navigation and a
// slow lazy load can never overwrite a newer state.
//
// Sessions share the route table and the view cache of their Router.
type Session struct {
	router  *Router
	history History

	gen atomic.Uint64

	mu      sync.Mutex
	current State

	listenersMu sync.Mutex
	listeners   map[int]func(State)
	nextID      int

	notifyMu sync.Mutex
	notified uint64
}

func newSession(r *Router, h History) *Session {
	if h == nil {
		h = NewMemoryHistory("")
	}
	return &Session{
		router:    r,
		history:   h,
		listeners: make(map[int]func(State)),
	}
}

// History returns the session's history.
func (s *Session) History() History {
	return s.history
}

// Current returns the last published state.
// Before the first navigation it is the zero State.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnChange registers fn to be called with every published state, and with
// Pending placeholder states when the Router has a placeholder view.
// States are delivered in generation order; a listener never sees an older
// navigation after a newer one. fn must not block for long.
// The returned function unregisters fn.
func (s *Session) OnChange(fn func(State)) (cancel func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// Navigate resolves path, ensures the matched view is loaded and publishes
// the resulting state.
//
// An unmatched path publishes a not-found state; a failed lazy load
// publishes a state carrying a *LoadError. Neither is returned as an error.
// Navigate returns ErrNavigationCancelled when a later navigation superseded
// it, and ctx.Err() when ctx ended while waiting for a lazy load; in both
// cases nothing is published.
func (s *Session) Navigate(ctx context.Context, path string, opts ...NavigateOption) (State, error) {
	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}
	return s.navigate(ctx, path, options)
}

// Back navigates to the previous history entry.
func (s *Session) Back(ctx context.Context) (State, error) {
	return s.traverse(ctx, -1)
}

// Forward navigates to the next history entry.
func (s *Session) Forward(ctx context.Context) (State, error) {
	return s.traverse(ctx, 1)
}

func (s *Session) traverse(ctx context.Context, delta int) (State, error) {
	loc, ok := s.history.Peek(delta)
	if !ok {
		return s.Current(), ErrNoHistory
	}
	return s.navigate(ctx, loc, NavigateOptions{delta: delta})
}

func (s *Session) navigate(ctx context.Context, path string, options NavigateOptions) (State, error) {
	gen := s.gen.Add(1)
	r := s.router

	ctx, span := r.tracer.Start(ctx, "router.navigate",
		trace.WithAttributes(
			attribute.String(attrPath, path),
			attribute.Int64(attrGeneration, int64(gen)),
		),
	)
	defer span.End()

	target, err := options.target(path)
	if err != nil {
		recordError(span, err)
		return State{}, err
	}

	state := r.Resolve(target)

	if state.Route != nil {
		span.SetAttributes(attribute.String(attrRoute, state.Route.name))

		if state.View == nil && r.placeholder != nil {
			pending := state
			pending.Pending = true
			pending.View = r.placeholder
			s.notify(gen, pending)
		}

		view, err := r.views.load(ctx, state.Route)
		var loadErr *LoadError
		switch {
		case err == nil:
			state.View = view
		case errors.As(err, &loadErr):
			state.Err = err
		default:
			r.metrics.observeNavigation(state.Route.name, OutcomeCancelled)
			span.SetAttributes(attribute.String(attrOutcome, OutcomeCancelled))
			recordError(span, err)
			return state, err
		}
	}

	if !s.publish(gen, state, options) {
		r.metrics.observeNavigation(state.RouteName(), OutcomeCancelled)
		span.SetAttributes(attribute.String(attrOutcome, OutcomeCancelled))
		r.logger.Debug("navigation superseded", "path", state.FullPath, "generation", gen)
		return state, ErrNavigationCancelled
	}

	outcome := outcomeOf(state)
	r.metrics.observeNavigation(state.RouteName(), outcome)
	span.SetAttributes(attribute.String(attrOutcome, outcome))

	switch outcome {
	case OutcomeNotFound:
		r.logger.Info("no route matched", "path", state.FullPath)
	case OutcomeLoadFailed:
		r.logger.Warn("navigated to failed view", "path", state.FullPath, "route", state.Route.name, "error", state.Err)
	default:
		r.logger.Debug("navigated", "path", state.FullPath, "route", state.Route.name)
	}

	return state, nil
}

// publish makes state current if gen is still the latest generation and
// records it in history.
func (s *Session) publish(gen uint64, state State, options NavigateOptions) bool {
	s.mu.Lock()
	if gen != s.gen.Load() {
		s.mu.Unlock()
		return false
	}

	loc := state.FullPath
	switch {
	case options.delta != 0:
		if got, ok := s.history.Go(options.delta); !ok || got != loc {
			s.history.Push(loc)
		}
	case options.Replace:
		s.history.Replace(loc)
	case s.history.Location() != loc:
		s.history.Push(loc)
	}
	s.current = state
	s.mu.Unlock()

	s.notify(gen, state)
	return true
}

// notify delivers state to the listeners unless a newer generation has
// already been delivered.
func (s *Session) notify(gen uint64, state State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if gen < s.notified {
		return
	}
	s.notified = gen

	s.listenersMu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
