package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/facilityfinder/pkg/middleware"
	"github.com/vango-dev/facilityfinder/pkg/routepath"
	"github.com/vango-dev/facilityfinder/pkg/router"
)

// Live message operations sent by the browser.
const (
	OpNavigate = "navigate"
	OpReplace  = "replace"
	OpBack     = "back"
	OpForward  = "forward"
	OpPrefetch = "prefetch"
)

// Live message types sent to the browser.
const (
	TypeState      = "state"
	TypeError      = "error"
	TypePrefetched = "prefetched"
)

// ClientMessage is a request from the browser.
type ClientMessage struct {
	Op   string `json:"op"`
	Path string `json:"path,omitempty"`
}

// ServerMessage is sent to the browser for every navigation state and for
// failed requests.
type ServerMessage struct {
	Type     string            `json:"type"`
	Path     string            `json:"path,omitempty"`
	FullPath string            `json:"fullPath,omitempty"`
	URL      string            `json:"url,omitempty"`
	Route    string            `json:"route,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Title    string            `json:"title,omitempty"`
	Status   int               `json:"status,omitempty"`
	Pending  bool              `json:"pending,omitempty"`
	HTML     string            `json:"html,omitempty"`
	Op       string            `json:"op,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// LiveConfig configures live navigation connections.
type LiveConfig struct {
	// MaxMessageSize bounds a client message in bytes.
	MaxMessageSize int64

	// ReadTimeout closes connections that send nothing, not even a pong.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single write.
	WriteTimeout time.Duration

	// HeartbeatInterval is the ping period. It must be below ReadTimeout.
	HeartbeatInterval time.Duration

	// CheckOrigin validates the Origin header. Nil allows same-origin
	// requests only.
	CheckOrigin func(r *http.Request) bool
}

// DefaultLiveConfig returns the default live connection settings.
func DefaultLiveConfig() LiveConfig {
	return LiveConfig{
		MaxMessageSize:    4 * 1024,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
	}
}

// Live serves live navigation over WebSocket. Every connection gets its own
// router.Session, so browsers navigate independently while sharing the
// route table and the loaded views.
type Live struct {
	router   *router.Router
	views    *Views
	config   LiveConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *middleware.Metrics
}

// NewLive creates the live navigation handler. Zero fields of config take
// their DefaultLiveConfig values.
func NewLive(r *router.Router, v *Views, config LiveConfig, logger *slog.Logger, metrics *middleware.Metrics) *Live {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultLiveConfig()
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.HeartbeatInterval == 0 {
		config.HeartbeatInterval = defaults.HeartbeatInterval
	}
	return &Live{
		router: r,
		views:  v,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:  logger.With("component", "live"),
		metrics: metrics,
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
//
// The optional "path" query parameter is the page the browser is showing;
// it becomes the first history entry of the session.
func (l *Live) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.metrics.RecordWebSocketError("upgrade")
		l.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	l.metrics.LiveConnected()
	defer l.metrics.LiveDisconnected()

	c := &liveConn{
		live:    l,
		conn:    conn,
		session: l.router.NewSession(router.NewMemoryHistory(l.router.Base())),
		send:    make(chan ServerMessage, 16),
		logger:  l.logger.With("remote", r.RemoteAddr),
	}
	c.serve(r.Context(), r.URL.Query().Get("path"))
}

// appPath turns a browser location into an app-relative location.
// Absolute URLs and "//host" targets are rejected.
func (l *Live) appPath(loc string) (string, error) {
	target, err := routepath.ValidateNavPath(loc)
	if err != nil {
		return "", fmt.Errorf("navigate to %q: %w", loc, err)
	}
	stripped, ok := l.router.StripBase(target.Path)
	if !ok {
		return "", fmt.Errorf("%s is outside %s", loc, l.router.Base())
	}
	target.Path = stripped
	return target.FullPath(), nil
}

// liveConn is one browser connection.
//
// Navigation requests run one at a time, in arrival order, on the
// navigate goroutine. A new request cancels the one still waiting for a
// lazy view; the load itself carries on and the view is cached for later.
type liveConn struct {
	live    *Live
	conn    *websocket.Conn
	session *router.Session
	send    chan ServerMessage
	logger  *slog.Logger

	requests chan request

	mu            sync.Mutex
	cancelPending context.CancelFunc

	// prefetches tracks the goroutines running prefetch requests.
	prefetches sync.WaitGroup
}

// request is a navigation request with its own cancellation.
type request struct {
	ctx context.Context
	msg ClientMessage
}

func (c *liveConn) serve(ctx context.Context, initial string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.requests = make(chan request, 8)

	unsubscribe := c.session.OnChange(func(s router.State) {
		c.enqueue(ctx, c.stateMessage(ctx, s))
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop(ctx, cancel)
	}()

	navigatorDone := make(chan struct{})
	go func() {
		defer close(navigatorDone)
		c.navigateLoop(ctx)
	}()

	if initial != "" {
		c.dispatch(ctx, ClientMessage{Op: OpReplace, Path: initial})
	}
	c.readLoop(ctx)

	cancel()
	<-navigatorDone
	c.prefetches.Wait()
	unsubscribe()
	<-writerDone
	c.conn.Close()
}

// readLoop reads client messages until the connection fails.
func (c *liveConn) readLoop(ctx context.Context) {
	cfg := c.live.config
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.live.metrics.RecordWebSocketError("read")
				c.logger.Warn("read error", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.enqueue(ctx, ServerMessage{Type: TypeError, Error: "invalid message"})
			continue
		}
		c.dispatch(ctx, msg)
	}
}

// dispatch routes msg. Prefetches run concurrently; everything else is
// queued for the navigate loop after cancelling the pending request.
func (c *liveConn) dispatch(ctx context.Context, msg ClientMessage) {
	switch msg.Op {
	case OpNavigate, OpReplace, OpBack, OpForward:
		c.live.metrics.RecordLiveMessage(msg.Op)
	case OpPrefetch:
		c.live.metrics.RecordLiveMessage(msg.Op)
		c.prefetches.Add(1)
		go func() {
			defer c.prefetches.Done()
			c.reply(ctx, msg, c.prefetch(ctx, msg.Path))
		}()
		return
	default:
		c.live.metrics.RecordLiveMessage("unknown")
		c.reply(ctx, msg, fmt.Errorf("unknown op %q", msg.Op))
		return
	}

	reqCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.cancelPending != nil {
		c.cancelPending()
	}
	c.cancelPending = cancel
	c.mu.Unlock()

	select {
	case c.requests <- request{ctx: reqCtx, msg: msg}:
	case <-ctx.Done():
		cancel()
	}
}

// navigateLoop runs navigation requests in arrival order.
func (c *liveConn) navigateLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-c.requests:
			if req.ctx.Err() != nil {
				// Superseded before it started.
				continue
			}
			c.reply(ctx, req.msg, c.handle(req.ctx, req.msg))
		}
	}
}

// reply reports err to the browser. Cancellations are not errors.
func (c *liveConn) reply(ctx context.Context, msg ClientMessage, err error) {
	if err == nil ||
		errors.Is(err, router.ErrNavigationCancelled) ||
		errors.Is(err, context.Canceled) {
		return
	}
	c.enqueue(ctx, ServerMessage{Type: TypeError, Op: msg.Op, Path: msg.Path, Error: err.Error()})
}

func (c *liveConn) handle(ctx context.Context, msg ClientMessage) error {
	var err error
	if msg.Path != "" {
		if msg.Path, err = c.live.appPath(msg.Path); err != nil {
			return err
		}
	}

	switch msg.Op {
	case OpNavigate:
		_, err = c.session.Navigate(ctx, msg.Path)
	case OpReplace:
		_, err = c.session.Navigate(ctx, msg.Path, router.WithReplace())
	case OpBack:
		_, err = c.session.Back(ctx)
	case OpForward:
		_, err = c.session.Forward(ctx)
	default:
		err = fmt.Errorf("unknown op %q", msg.Op)
	}
	return err
}

// prefetch loads the view of path without navigating.
func (c *liveConn) prefetch(ctx context.Context, loc string) error {
	path, err := c.live.appPath(loc)
	if err != nil {
		return err
	}
	state := c.live.router.Resolve(path)
	if state.NotFound() {
		return nil
	}
	if _, err := c.live.router.Load(ctx, state.Route); err != nil {
		return err
	}
	c.enqueue(ctx, ServerMessage{Type: TypePrefetched, Path: state.Path, Route: state.RouteName()})
	return nil
}

func (c *liveConn) stateMessage(ctx context.Context, s router.State) ServerMessage {
	page := c.live.views.Page(s)
	msg := ServerMessage{
		Type:     TypeState,
		Path:     s.Path,
		FullPath: s.FullPath,
		URL:      c.live.router.Href(s.FullPath),
		Route:    s.RouteName(),
		Params:   s.Params,
		Title:    page.Title,
		Status:   page.Status,
		Pending:  s.Pending,
	}

	var buf bytes.Buffer
	if err := page.Body.Render(ctx, &buf); err != nil {
		c.logger.Error("render failed", "path", s.FullPath, "error", err)
		failed := c.live.views.Failure(s.FullPath, err)
		buf.Reset()
		if err := failed.Render(ctx, &buf); err != nil {
			c.logger.Error("render error view failed", "path", s.FullPath, "error", err)
		}
		msg.Status = http.StatusInternalServerError
	}
	msg.HTML = buf.String()
	return msg
}

// enqueue hands msg to the write loop. It gives up when the connection
// is closing.
func (c *liveConn) enqueue(ctx context.Context, msg ServerMessage) {
	select {
	case c.send <- msg:
	case <-ctx.Done():
	}
}

// writeLoop is the only writer on the connection. It also sends the
// heartbeat pings.
func (c *liveConn) writeLoop(ctx context.Context, cancel context.CancelFunc) {
	cfg := c.live.config
	ticker := time.NewTicker(cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.live.metrics.RecordWebSocketError("write")
				c.logger.Warn("write error", "error", err)
				cancel()
				c.conn.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				c.conn.Close()
				return
			}
		}
	}
}
