// Package network carries sensor messages from WebSocket and MQTT clients into the ingest hub
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/sensorloop/core"
	"github.com/lixenwraith/sensorloop/ingest"
	"github.com/lixenwraith/sensorloop/status"
)

// ErrConnectionClosed wraps the cause of an ended sensor connection
var ErrConnectionClosed = errors.New("connection closed")

// Option configures a transport
type Option func(*options)

type options struct {
	log *slog.Logger
	reg *status.Registry
}

// WithLogger sets the transport logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRegistry publishes connection metrics into reg
func WithRegistry(reg *status.Registry) Option {
	return func(o *options) { o.reg = reg }
}

func buildOptions(opts []Option) options {
	o := options{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	if o.reg == nil {
		o.reg = status.NewRegistry()
	}
	return o
}

// WebSocketServer accepts phone sensor streams on the route named after the hub's schema
type WebSocketServer struct {
	cfg      Config
	hub      *ingest.Hub
	log      *slog.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	srv     *http.Server
	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}

	statConns    *status.Gauge
	statAccepted *status.Counter
}

// NewWebSocketServer creates a server; routes are "/<schema>" and "/sensor"
func NewWebSocketServer(cfg Config, hub *ingest.Hub, opts ...Option) *WebSocketServer {
	o := buildOptions(opts)
	s := &WebSocketServer{
		cfg: cfg,
		hub: hub,
		log: o.log,
		upgrader: websocket.Upgrader{
			// Phone apps connect without a browser origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux:          http.NewServeMux(),
		conns:        make(map[*websocket.Conn]struct{}),
		statConns:    o.reg.Gauge("network.ws_connections"),
		statAccepted: o.reg.Counter("network.ws_accepted"),
	}
	s.mux.HandleFunc("/"+hub.Schema().Name, s.handle)
	s.mux.HandleFunc("/sensor", s.handle)
	return s
}

// Name implements service.Service
func (s *WebSocketServer) Name() string { return "websocket" }

// Handler exposes the route mux, used directly by tests
func (s *WebSocketServer) Handler() http.Handler { return s.mux }

// Addr returns the bound address once started
func (s *WebSocketServer) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Start binds the listener and serves in the background
func (s *WebSocketServer) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Address)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: s.cfg.WriteTimeout,
	}

	s.wg.Add(1)
	core.Go(func() {
		defer s.wg.Done()
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("websocket server failed", "error", err)
		}
	})
	s.log.Info("websocket listening", "addr", ln.Addr().String(), "route", "/"+s.hub.Schema().Name)
	return nil
}

// Stop closes the listener and every open sensor connection
func (s *WebSocketServer) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)

	// Hijacked connections are not tracked by http.Server
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *WebSocketServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.track(conn, true)
	defer s.track(conn, false)
	defer conn.Close()

	s.statAccepted.Inc()
	in := s.hub.Attach(r.RemoteAddr)
	cause := s.serve(conn, in)
	s.hub.Detach(in, cause)
}

// serve runs the read loop until the peer goes away or the ingestor is superseded
func (s *WebSocketServer) serve(conn *websocket.Conn, in *ingest.Ingestor) error {
	conn.SetReadLimit(s.cfg.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(conn, in, done)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-in.Done():
				return fmt.Errorf("%w: %w", ErrConnectionClosed, ingest.ErrSuperseded)
			default:
			}
			return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		if err := in.Push(msg); errors.Is(err, ingest.ErrSuperseded) {
			return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
		}
		// Decode errors are counted and logged by the hub; keep reading
	}
}

// keepAlive pings the peer and closes the connection once the ingestor is superseded
func (s *WebSocketServer) keepAlive(conn *websocket.Conn, in *ingest.Ingestor, done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				return
			}
		case <-in.Done():
			s.log.Info("websocket superseded", "source", in.ID(), "remote", in.Remote())
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "superseded by newer source")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteTimeout))
			_ = conn.Close()
			return
		case <-done:
			return
		}
	}
}

func (s *WebSocketServer) track(c *websocket.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
	s.statConns.Set(float64(len(s.conns)))
}
