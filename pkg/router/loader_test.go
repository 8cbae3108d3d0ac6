package router

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingLoader counts invocations and blocks until release is closed,
// when release is non-nil.
type countingLoader struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func newCountingLoader(block bool) *countingLoader {
	l := &countingLoader{started: make(chan struct{}, 16)}
	if block {
		l.release = make(chan struct{})
	}
	return l
}

func (l *countingLoader) load(ctx context.Context) (View, error) {
	l.calls.Add(1)
	l.started <- struct{}{}
	if l.release != nil {
		<-l.release
	}
	if l.err != nil {
		return nil, l.err
	}
	return textView("about"), nil
}

func newLazyRouter(t *testing.T, load Loader, opts ...Option) *Router {
	t.Helper()
	r := New(opts...)
	err := r.Register(
		Entry{Path: "/", Name: "home", View: textView("home")},
		Entry{Path: "/about", Name: "about", Load: load},
	)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	return r
}

func TestLazyLoaderInvokedOnce(t *testing.T) {
	l := newCountingLoader(false)
	r := newLazyRouter(t, l.load)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		state, err := r.Navigate(ctx, "/about")
		if err != nil {
			t.Fatalf("Navigate(/about) #%d error: %v", i, err)
		}
		if got := render(t, state.Component()); got != "about" {
			t.Fatalf("render = %q, want about", got)
		}
		if _, err := r.Navigate(ctx, "/"); err != nil {
			t.Fatalf("Navigate(/) error: %v", err)
		}
	}

	if got := l.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
	if got := r.LoadState("about"); got != LoadLoaded {
		t.Errorf("LoadState = %s, want loaded", got)
	}
	if r.Resolve("/about").View == nil {
		t.Error("Resolve should return the cached view once loaded")
	}
}

func TestLazyLoaderConcurrentCallersShareOneLoad(t *testing.T) {
	l := newCountingLoader(true)
	r := newLazyRouter(t, l.load)
	route, _ := r.Route("about")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Load(context.Background(), route)
			errs <- err
		}()
	}

	<-l.started
	if got := r.LoadState("about"); got != LoadPending {
		t.Errorf("LoadState while loading = %s, want pending", got)
	}
	// Give the other callers time to join the in-flight load.
	time.Sleep(20 * time.Millisecond)
	close(l.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Load() error: %v", err)
		}
	}
	if got := l.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
}

func TestLazyLoaderFailureIsRetried(t *testing.T) {
	assetErr := errors.New("asset fetch failed")
	l := newCountingLoader(false)
	l.err = assetErr
	r := newLazyRouter(t, l.load)
	ctx := context.Background()

	state, err := r.Navigate(ctx, "/about")
	if err != nil {
		t.Fatalf("Navigate() error = %v, load failures are reported in the state", err)
	}
	if !state.Failed() || state.View != nil {
		t.Fatalf("state = failed %v view %v, want failed without view", state.Failed(), state.View != nil)
	}
	var loadErr *LoadError
	if !errors.As(state.Err, &loadErr) || loadErr.Route != "about" || !errors.Is(state.Err, assetErr) {
		t.Errorf("state.Err = %v, want *LoadError wrapping the asset error", state.Err)
	}
	if r.Current().FullPath != "/about" {
		t.Errorf("failed navigation should still be published, current = %q", r.Current().FullPath)
	}
	if got := r.LoadState("about"); got != LoadFailed {
		t.Errorf("LoadState = %s, want failed", got)
	}

	// Other routes are unaffected.
	home, err := r.Navigate(ctx, "/")
	if err != nil || home.Failed() || home.View == nil {
		t.Fatalf("Navigate(/) = failed %v err %v", home.Failed(), err)
	}

	l.err = nil
	state, err = r.Navigate(ctx, "/about")
	if err != nil || state.Failed() {
		t.Fatalf("retry: failed %v err %v", state.Failed(), err)
	}
	if got := l.calls.Load(); got != 2 {
		t.Errorf("loader calls = %d, want 2", got)
	}
}

func TestLazyLoaderPanicAndNilView(t *testing.T) {
	tests := []struct {
		name string
		load Loader
	}{
		{name: "panic", load: func(ctx context.Context) (View, error) { panic("chunk corrupted") }},
		{name: "nil view", load: func(ctx context.Context) (View, error) { return nil, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newLazyRouter(t, tt.load)
			route, _ := r.Route("about")
			_, err := r.Load(context.Background(), route)
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("Load() error = %v, want *LoadError", err)
			}
		})
	}
}

func TestLoadCallerCancelDoesNotAbortLoad(t *testing.T) {
	l := newCountingLoader(true)
	r := newLazyRouter(t, l.load)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Navigate(ctx, "/about")
		done <- err
	}()

	<-l.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Navigate() error = %v, want context.Canceled", err)
	}
	if r.Current().Route != nil {
		t.Error("cancelled navigation must not be published")
	}

	close(l.release)
	route, _ := r.Route("about")
	if _, err := r.Load(context.Background(), route); err != nil {
		t.Fatalf("Load() after cancel error: %v", err)
	}
	if got := l.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want the detached load to be reused", got)
	}
}

func TestLoadTimeout(t *testing.T) {
	slow := func(ctx context.Context) (View, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	r := newLazyRouter(t, slow, WithLoadTimeout(10*time.Millisecond))

	state, err := r.Navigate(context.Background(), "/about")
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if !errors.Is(state.Err, context.DeadlineExceeded) {
		t.Errorf("state.Err = %v, want deadline exceeded", state.Err)
	}
}

func TestLoadStateString(t *testing.T) {
	tests := map[LoadState]string{
		LoadNone:    "none",
		LoadPending: "pending",
		LoadLoaded:  "loaded",
		LoadFailed:  "failed",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}

	r := newFinderRouter(t)
	if got := r.LoadState("home"); got != LoadLoaded {
		t.Errorf("eager LoadState = %s, want loaded", got)
	}
	if got := r.LoadState("unknown"); got != LoadNone {
		t.Errorf("unknown LoadState = %s, want none", got)
	}
}
