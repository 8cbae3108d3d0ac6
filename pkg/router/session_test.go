package router

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNavigateSupersededBySlowerLoad(t *testing.T) {
	l := newCountingLoader(true)
	r := newLazyRouter(t, l.load)
	ctx := context.Background()

	type result struct {
		state State
		err   error
	}
	aboutDone := make(chan result, 1)
	go func() {
		state, err := r.Navigate(ctx, "/about")
		aboutDone <- result{state, err}
	}()

	<-l.started
	home, err := r.Navigate(ctx, "/")
	if err != nil {
		t.Fatalf("Navigate(/) error: %v", err)
	}
	if home.RouteName() != "home" {
		t.Fatalf("Navigate(/) route = %q", home.RouteName())
	}

	close(l.release)
	about := <-aboutDone
	if !errors.Is(about.err, ErrNavigationCancelled) {
		t.Fatalf("superseded Navigate error = %v, want ErrNavigationCancelled", about.err)
	}

	if got := r.Current().RouteName(); got != "home" {
		t.Errorf("Current route = %q, want home", got)
	}
	entries, _ := r.Session().History().(*MemoryHistory).Entries()
	if diff := cmp.Diff([]string{"/"}, entries); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	// The load itself completed and is cached for the next navigation.
	if got := r.LoadState("about"); got != LoadLoaded {
		t.Errorf("LoadState = %s, want loaded", got)
	}
}

func TestNavigateBackForward(t *testing.T) {
	r := newFinderRouter(t)
	ctx := context.Background()

	for _, p := range []string{"/", "/FindFacility_Event", "/facility/42"} {
		if _, err := r.Navigate(ctx, p); err != nil {
			t.Fatalf("Navigate(%s) error: %v", p, err)
		}
	}

	steps := []struct {
		name    string
		step    func(context.Context) (State, error)
		want    string
		wantErr error
	}{
		{"back", r.Back, "/FindFacility_Event", nil},
		{"back", r.Back, "/", nil},
		{"back at start", r.Back, "/", ErrNoHistory},
		{"forward", r.Forward, "/FindFacility_Event", nil},
		{"forward", r.Forward, "/facility/42", nil},
		{"forward at end", r.Forward, "/facility/42", ErrNoHistory},
	}

	for _, s := range steps {
		state, err := s.step(ctx)
		if !errors.Is(err, s.wantErr) {
			t.Fatalf("%s: error = %v, want %v", s.name, err, s.wantErr)
		}
		if state.FullPath != s.want {
			t.Fatalf("%s: state = %q, want %q", s.name, state.FullPath, s.want)
		}
		if got := r.Current().FullPath; got != s.want {
			t.Fatalf("%s: current = %q, want %q", s.name, got, s.want)
		}
	}

	if got := render(t, r.Current().Component()); got != "facility:42" {
		t.Errorf("render = %q, want facility:42", got)
	}

	// Navigating after going back drops forward entries.
	if _, err := r.Back(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Navigate(ctx, "/learnenglish"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Forward(ctx); !errors.Is(err, ErrNoHistory) {
		t.Errorf("Forward after push error = %v, want ErrNoHistory", err)
	}
	entries, _ := r.Session().History().(*MemoryHistory).Entries()
	want := []string{"/", "/FindFacility_Event", "/learnenglish"}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestNavigateHistoryEntries(t *testing.T) {
	tests := []struct {
		name  string
		steps func(ctx context.Context, r *Router)
		want  []string
	}{
		{
			name: "same location is not pushed twice",
			steps: func(ctx context.Context, r *Router) {
				r.Navigate(ctx, "/")
				r.Navigate(ctx, "/")
				r.Navigate(ctx, "/learnenglish/")
				r.Navigate(ctx, "/learnenglish")
			},
			want: []string{"/", "/learnenglish"},
		},
		{
			name: "replace",
			steps: func(ctx context.Context, r *Router) {
				r.Navigate(ctx, "/")
				r.Navigate(ctx, "/FindFacility_Event")
				r.Navigate(ctx, "/facility/42", WithReplace())
			},
			want: []string{"/", "/facility/42"},
		},
		{
			name: "not found is recorded",
			steps: func(ctx context.Context, r *Router) {
				r.Navigate(ctx, "/")
				r.Navigate(ctx, "/nope")
			},
			want: []string{"/", "/nope"},
		},
		{
			name: "query is part of the location",
			steps: func(ctx context.Context, r *Router) {
				r.Navigate(ctx, "/FindFacility_Event")
				r.Navigate(ctx, "/FindFacility_Event", WithQuery(map[string]any{"type": "library"}))
			},
			want: []string{"/FindFacility_Event", "/FindFacility_Event?type=library"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFinderRouter(t)
			tt.steps(context.Background(), r)
			entries, _ := r.Session().History().(*MemoryHistory).Entries()
			if diff := cmp.Diff(tt.want, entries); diff != "" {
				t.Errorf("history mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNavigateNotFound(t *testing.T) {
	r := newFinderRouter(t)

	state, err := r.Navigate(context.Background(), "/facility")
	if err != nil {
		t.Fatalf("Navigate() error = %v, not found is not an error", err)
	}
	if !state.NotFound() || state.View != nil || state.Component() != nil {
		t.Errorf("state = %+v, want not found without view", state)
	}
	if got := r.Current(); !got.NotFound() || got.FullPath != "/facility" {
		t.Errorf("Current = %+v, want published not-found state", got)
	}
}

func TestNavigateCaseInsensitiveAndQuery(t *testing.T) {
	r := newFinderRouter(t)

	state, err := r.Navigate(context.Background(), "/findfacility_event",
		WithQuery(map[string]any{"type": "library", "radius": 5}))
	if err != nil {
		t.Fatal(err)
	}
	if state.RouteName() != "/facility_event" {
		t.Errorf("route = %q, want /facility_event", state.RouteName())
	}
	if state.Query.Get("type") != "library" || state.Query.Get("radius") != "5" {
		t.Errorf("Query = %v", state.Query)
	}
}

func TestOnChange(t *testing.T) {
	r := newFinderRouter(t)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	cancel := r.OnChange(func(s State) {
		mu.Lock()
		seen = append(seen, s.FullPath)
		mu.Unlock()
	})

	r.Navigate(ctx, "/")
	r.Navigate(ctx, "/event/7")
	cancel()
	r.Navigate(ctx, "/learnenglish")

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"/", "/event/7"}, seen); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceholderPublishedWhileLoading(t *testing.T) {
	r := New(WithPlaceholder(textView("loading")))
	if err := r.Register(finderEntries()...); err != nil {
		t.Fatal(err)
	}

	var seen []State
	r.OnChange(func(s State) { seen = append(seen, s) })

	if _, err := r.Navigate(context.Background(), "/about"); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 {
		t.Fatalf("got %d notifications, want 2", len(seen))
	}
	if !seen[0].Pending || render(t, seen[0].Component()) != "loading" {
		t.Errorf("first notification should be the pending placeholder")
	}
	if seen[1].Pending || render(t, seen[1].Component()) != "about" {
		t.Errorf("second notification should be the loaded view")
	}

	// Cached views publish without a placeholder.
	seen = nil
	r.Navigate(context.Background(), "/")
	r.Navigate(context.Background(), "/about")
	for _, s := range seen {
		if s.Pending {
			t.Error("cached view should not publish a placeholder")
		}
	}
}

func TestSessionsShareCacheNotState(t *testing.T) {
	l := newCountingLoader(false)
	r := newLazyRouter(t, l.load)
	ctx := context.Background()

	var a, b Navigator = r.NewSession(nil), r.NewSession(NewMemoryHistory("/app"))

	if _, err := a.Navigate(ctx, "/about"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Navigate(ctx, "/about"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Navigate(ctx, "/"); err != nil {
		t.Fatal(err)
	}

	if got := l.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
	if a.Current().RouteName() != "about" || b.Current().RouteName() != "home" {
		t.Errorf("sessions leaked state: a=%q b=%q", a.Current().RouteName(), b.Current().RouteName())
	}
	if r.Current().Route != nil {
		t.Error("default session should be untouched")
	}
	if got := b.(*Session).History().Base(); got != "/app" {
		t.Errorf("Base() = %q, want /app", got)
	}
}

func TestNavigateConcurrentLastWins(t *testing.T) {
	r := newFinderRouter(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Navigate(ctx, "/event/1")
		}()
	}
	wg.Wait()

	final, err := r.Navigate(ctx, "/facility/9")
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Current(); got.FullPath != final.FullPath {
		t.Errorf("Current = %q, want %q", got.FullPath, final.FullPath)
	}
}
