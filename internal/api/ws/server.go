// Package ws serves the live channel: one websocket per client, a read pump
// and a write pump per connection, bound to a user after "join".
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Alijeyrad/internhub_backend/config"
	"github.com/Alijeyrad/internhub_backend/internal/presence"
	"github.com/Alijeyrad/internhub_backend/internal/service/relay"
)

type Options struct {
	Path            string
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	SendQueueSize   int
	// AllowedOrigins restricts browser origins. Empty allows any.
	AllowedOrigins []string
}

func OptionsFromConfig(cfg config.RelayConfig) Options {
	return Options{
		Path:            cfg.Path,
		PingInterval:    time.Duration(cfg.PingIntervalSeconds) * time.Second,
		WriteTimeout:    time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxMessageBytes: cfg.MaxMessageBytes,
		SendQueueSize:   cfg.SendQueueSize,
		AllowedOrigins:  cfg.AllowedOrigins,
	}
}

func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = "/ws"
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 64 << 10
	}
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = 64
	}
	return o
}

type Server struct {
	reg      *presence.Registry
	relay    relay.Service
	opts     Options
	upgrader websocket.Upgrader

	// ctx bounds every frame handler and is cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	clients map[*client]struct{}
	closing bool
	wg      sync.WaitGroup
}

func NewServer(reg *presence.Registry, svc relay.Service, opts Options) *Server {
	s := &Server{
		reg:     reg,
		relay:   svc,
		opts:    opts.withDefaults(),
		clients: make(map[*client]struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the mux serving the live channel path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.opts.Path, s)
	return mux
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.opts.AllowedOrigins, origin)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("ws: upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		srv:  s,
		conn: conn,
		send: make(chan presence.Event, s.opts.SendQueueSize),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.closing {
		c.close()
	}
	s.mu.Unlock()

	c.run()

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// Shutdown aborts in-flight frame handlers, closes every live connection and
// waits for their pumps to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	for c := range s.clients {
		c.close()
	}
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
