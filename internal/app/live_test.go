package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/facilityfinder/pkg/assets"
	"github.com/vango-dev/facilityfinder/pkg/middleware"
	"github.com/vango-dev/facilityfinder/pkg/router"
)

// blockingSource serves the about template once release is closed.
type blockingSource struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newBlockingSource() *blockingSource {
	return &blockingSource{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (s *blockingSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	s.calls.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}
	select {
	case <-s.release:
		return []byte(aboutHTML), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func dial(t *testing.T, srv *httptest.Server, base, initial string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + base + "/ws"
	if initial != "" {
		u += "?path=" + url.QueryEscape(initial)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, op, path string) {
	t.Helper()
	if err := conn.WriteJSON(ClientMessage{Op: op, Path: path}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

// expectState reads the next message and checks it is a settled state for
// route.
func expectState(t *testing.T, conn *websocket.Conn, route string) ServerMessage {
	t.Helper()
	msg := receive(t, conn)
	if msg.Type != TypeState || msg.Pending || msg.Route != route {
		t.Fatalf("got %+v, want settled state for %q", msg, route)
	}
	return msg
}

func TestLiveNavigate(t *testing.T) {
	srv, _ := newTestShell(t, testViews(aboutSource()), ShellOptions{})
	conn := dial(t, srv, "", "/")

	home := expectState(t, conn, RouteHome)
	if home.Status != 200 || home.Title != "Home | Facility Finder" || !strings.Contains(home.HTML, "<h1>Facility Finder</h1>") {
		t.Errorf("home = %+v", home)
	}

	send(t, conn, OpNavigate, "/facility/42?tab=map")
	detail := expectState(t, conn, RouteFacility)
	if detail.Params["id"] != "42" || detail.FullPath != "/facility/42?tab=map" || detail.URL != "/facility/42?tab=map" {
		t.Errorf("detail = %+v", detail)
	}
	if !strings.Contains(detail.HTML, "Facility 42</h1>") {
		t.Errorf("detail html = %s", detail.HTML)
	}

	send(t, conn, OpNavigate, "/nowhere")
	missing := receive(t, conn)
	if missing.Type != TypeState || missing.Route != "" || missing.Status != 404 {
		t.Errorf("not found = %+v", missing)
	}

	send(t, conn, OpBack, "")
	expectState(t, conn, RouteFacility)
	send(t, conn, OpBack, "")
	expectState(t, conn, RouteHome)
	send(t, conn, OpForward, "")
	expectState(t, conn, RouteFacility)
}

func TestLiveBackAtStart(t *testing.T) {
	srv, _ := newTestShell(t, testViews(aboutSource()), ShellOptions{})
	conn := dial(t, srv, "", "/")
	expectState(t, conn, RouteHome)

	send(t, conn, OpBack, "")
	msg := receive(t, conn)
	if msg.Type != TypeError || msg.Op != OpBack {
		t.Errorf("got %+v, want back error", msg)
	}
}

func TestLiveInvalidMessages(t *testing.T) {
	srv, _ := newTestShell(t, testViews(aboutSource()), ShellOptions{})
	conn := dial(t, srv, "", "")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if msg := receive(t, conn); msg.Type != TypeError || msg.Error != "invalid message" {
		t.Errorf("got %+v, want invalid message error", msg)
	}

	send(t, conn, "teleport", "/")
	if msg := receive(t, conn); msg.Type != TypeError || !strings.Contains(msg.Error, "teleport") {
		t.Errorf("got %+v, want unknown op error", msg)
	}
}

func TestLiveLazyViewShowsPlaceholder(t *testing.T) {
	src := newBlockingSource()
	srv, _ := newTestShell(t, testViews(src), ShellOptions{})
	conn := dial(t, srv, "", "/")
	expectState(t, conn, RouteHome)

	send(t, conn, OpNavigate, "/about")
	pending := receive(t, conn)
	if pending.Type != TypeState || !pending.Pending || pending.Route != RouteAbout {
		t.Fatalf("got %+v, want pending about state", pending)
	}
	if !strings.Contains(pending.HTML, `aria-busy="true"`) {
		t.Errorf("placeholder html = %s", pending.HTML)
	}

	close(src.release)
	about := expectState(t, conn, RouteAbout)
	if !strings.Contains(about.HTML, "About Facility Finder") {
		t.Errorf("about html = %s", about.HTML)
	}
}

func TestLiveNewerNavigationWins(t *testing.T) {
	src := newBlockingSource()
	srv, r := newTestShell(t, testViews(src), ShellOptions{})
	conn := dial(t, srv, "", "/")
	expectState(t, conn, RouteHome)

	send(t, conn, OpNavigate, "/about")
	if msg := receive(t, conn); !msg.Pending {
		t.Fatalf("got %+v, want pending about state", msg)
	}
	<-src.started

	send(t, conn, OpNavigate, "/event/7")
	expectState(t, conn, RouteEvent)

	// The load finishes after the newer navigation; it is cached but never
	// shown on this connection.
	close(src.release)
	deadline := time.Now().Add(2 * time.Second)
	for r.LoadState(RouteAbout) != router.LoadLoaded && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var stray ServerMessage
	if err := conn.ReadJSON(&stray); err == nil {
		t.Errorf("unexpected message after superseded navigation: %+v", stray)
	}
}

func TestLivePrefetch(t *testing.T) {
	src := newBlockingSource()
	close(src.release)
	srv, _ := newTestShell(t, testViews(src), ShellOptions{})
	conn := dial(t, srv, "", "")

	send(t, conn, OpPrefetch, "/about")
	msg := receive(t, conn)
	if msg.Type != TypePrefetched || msg.Route != RouteAbout {
		t.Fatalf("got %+v, want prefetched about", msg)
	}

	// The navigation reuses the loaded view without a placeholder.
	send(t, conn, OpNavigate, "/about")
	expectState(t, conn, RouteAbout)
	if n := src.calls.Load(); n != 1 {
		t.Errorf("template fetched %d times, want 1", n)
	}
}

func TestLiveRejectsExternalTargets(t *testing.T) {
	srv, _ := newTestShell(t, testViews(aboutSource()), ShellOptions{})
	conn := dial(t, srv, "", "/")
	expectState(t, conn, RouteHome)

	for _, target := range []string{"//evil.example/facility/1", "https://evil.example/", "facility/1"} {
		send(t, conn, OpNavigate, target)
		msg := receive(t, conn)
		if msg.Type != TypeError || msg.Op != OpNavigate || msg.Path != target {
			t.Errorf("navigate %q: got %+v, want error", target, msg)
		}
	}

	// The connection keeps working.
	send(t, conn, OpNavigate, "/facility/100%25")
	if msg := expectState(t, conn, RouteFacility); msg.Params["id"] != "100%" {
		t.Errorf("params = %v", msg.Params)
	}
}

func TestLiveRenderFailureSendsErrorView(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	v := testViews(aboutSource())
	r := newTestRouter(t, v)
	c := &liveConn{live: NewLive(r, v, LiveConfig{}, logger, nil), logger: logger}

	s := r.Resolve("/learnenglish")
	s.View = func(router.Props) templ.Component {
		return templ.ComponentFunc(func(context.Context, io.Writer) error {
			return errors.New("template exploded")
		})
	}

	msg := c.stateMessage(context.Background(), s)
	if msg.Status != http.StatusInternalServerError || msg.Route != RouteLearnEnglish {
		t.Errorf("status = %d route = %q, want 500 for %q", msg.Status, msg.Route, RouteLearnEnglish)
	}
	if !strings.Contains(msg.HTML, "This page could not be loaded") || !strings.Contains(msg.HTML, "template exploded") {
		t.Errorf("html = %s", msg.HTML)
	}
	if !strings.Contains(logs.String(), "render failed") {
		t.Errorf("render failure not logged:\n%s", logs.String())
	}
}

func TestLiveBase(t *testing.T) {
	v := testViews(aboutSource())
	v.Base = "/finder"
	srv, _ := newTestShell(t, v, ShellOptions{})
	conn := dial(t, srv, "/finder", "/finder/learnenglish")

	msg := expectState(t, conn, RouteLearnEnglish)
	if msg.URL != "/finder/learnenglish" || msg.FullPath != "/learnenglish" {
		t.Errorf("state = %+v", msg)
	}

	send(t, conn, OpNavigate, "/elsewhere")
	if msg := receive(t, conn); msg.Type != TypeError || msg.Op != OpNavigate {
		t.Errorf("got %+v, want error for a path outside the base", msg)
	}
}

func TestLiveMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := middleware.NewMetrics(middleware.WithRegistry(reg))
	srv, _ := newTestShell(t, testViews(aboutSource()), ShellOptions{Metrics: m, Gatherer: reg})

	conn := dial(t, srv, "", "")
	send(t, conn, OpNavigate, "/")
	expectState(t, conn, RouteHome)

	_, body := fetch(t, srv.URL+"/metrics")
	for _, want := range []string{
		"facilityfinder_http_live_connections 1",
		`facilityfinder_http_live_messages_total{op="navigate"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

var _ assets.Source = (*blockingSource)(nil)
