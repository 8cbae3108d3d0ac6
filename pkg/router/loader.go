package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// LoadState is the lazy load status of a route's view.
type LoadState int

const (
	// LoadNone means the lazy view has never been requested.
	LoadNone LoadState = iota
	// LoadPending means a load is in flight.
	LoadPending
	// LoadLoaded means the view is cached. Eager routes are always loaded.
	LoadLoaded
	// LoadFailed means the last load failed; the next request retries.
	LoadFailed
)

// String returns the state name.
func (s LoadState) String() string {
	switch s {
	case LoadPending:
		return "pending"
	case LoadLoaded:
		return "loaded"
	case LoadFailed:
		return "failed"
	}
	return "none"
}

type cacheEntry struct {
	state LoadState
	view  View
	err   error
	calls int
}

// viewCache loads lazy views at most once. Concurrent requests for the same
// route share one loader call.
type viewCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	group   singleflight.Group

	timeout time.Duration
	metrics *Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

func newViewCache(o options) *viewCache {
	return &viewCache{
		entries: make(map[string]*cacheEntry),
		timeout: o.loadTimeout,
		metrics: o.metrics,
		tracer:  o.tracer,
		logger:  o.logger,
	}
}

// cached returns the view without loading.
func (c *viewCache) cached(route *Route) (View, bool) {
	if route.view != nil {
		return route.view, true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.entries[route.name]; e != nil && e.state == LoadLoaded {
		return e.view, true
	}
	return nil, false
}

// state reports the load status and the number of loader invocations.
func (c *viewCache) state(route *Route) (LoadState, int) {
	if route.view != nil {
		return LoadLoaded, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.entries[route.name]; e != nil {
		return e.state, e.calls
	}
	return LoadNone, 0
}

// load returns the route's view, invoking its loader if needed.
//
// The loader runs detached from ctx so that a caller giving up does not fail
// the load for everyone else; the caller only stops waiting and gets
// ctx.Err(). Loader failures are returned as *LoadError.
func (c *viewCache) load(ctx context.Context, route *Route) (View, error) {
	if view, ok := c.cached(route); ok {
		return view, nil
	}

	ch := c.group.DoChan(route.name, func() (any, error) {
		c.mu.Lock()
		e := c.entries[route.name]
		if e == nil {
			e = &cacheEntry{}
			c.entries[route.name] = e
		}
		if e.state == LoadLoaded {
			c.mu.Unlock()
			return e.view, nil
		}
		e.state = LoadPending
		e.calls++
		c.mu.Unlock()

		view, err := c.run(context.WithoutCancel(ctx), route)

		c.mu.Lock()
		if err != nil {
			e.state, e.view, e.err = LoadFailed, nil, err
		} else {
			e.state, e.view, e.err = LoadLoaded, view, nil
		}
		c.mu.Unlock()

		return view, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(View), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run invokes the loader once, converting panics and nil views to errors.
func (c *viewCache) run(ctx context.Context, route *Route) (view View, err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, "router.load",
		trace.WithAttributes(attribute.String(attrRoute, route.name)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			view, err = nil, fmt.Errorf("loader panicked: %v", r)
		}
		if err == nil && view == nil {
			err = errors.New("loader returned no view")
		}
		elapsed := time.Since(start)
		c.metrics.observeLoad(route.name, err, elapsed)

		if err != nil {
			err = &LoadError{Route: route.name, Err: err}
			recordError(span, err)
			c.logger.Warn("view load failed", "route", route.name, "duration", elapsed, "error", err)
			return
		}
		c.logger.Debug("view loaded", "route", route.name, "duration", elapsed)
	}()

	return route.load(ctx)
}
