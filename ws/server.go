// Package ws is the websocket transport for an arena: it accepts client
// sockets, creates arena connections for them, relays mailbox events onto
// the wire and translates inbound frames into room events.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/arena-go/arena"
)

// CheckOriginFn validates the origin of a websocket handshake. Return true
// to allow the connection.
type CheckOriginFn = func(r *http.Request) bool

// RateLimitConfig defines per-client inbound rate limiting.
type RateLimitConfig struct {
	// MessagesPerSecond is the sustained inbound message rate per client.
	MessagesPerSecond rate.Limit
	// Burst is the token bucket capacity.
	Burst int
	// Enabled determines if rate limiting is active.
	Enabled bool
}

// DefaultRateLimitConfig allows 100 messages per second with burst of 200.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 100,
		Burst:             200,
		Enabled:           true,
	}
}

// NoRateLimit disables rate limiting.
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{Enabled: false}
}

// AllOrigins allows every handshake origin. Development only.
func AllOrigins() CheckOriginFn {
	return func(r *http.Request) bool { return true }
}

// ServerConfig configures a transport server.
type ServerConfig struct {
	Addr        string
	Arena       *arena.Arena
	Logger      zerolog.Logger
	RateLimit   *RateLimitConfig
	CheckOrigin CheckOriginFn
}

// Server accepts websocket clients on /ws and serves /healthz and /metrics.
type Server struct {
	addr      string
	arena     *arena.Arena
	log       zerolog.Logger
	rateLimit *RateLimitConfig
	upgrader  websocket.Upgrader
	router    chi.Router

	mu      sync.Mutex
	running bool
	server  *http.Server
}

// New creates a transport server bound to an arena. The arena's event loop
// must be running (Arena.Run) for inbound traffic to be processed.
func New(cfg *ServerConfig) *Server {
	if cfg.RateLimit == nil {
		cfg.RateLimit = DefaultRateLimitConfig()
	}
	s := &Server{
		addr:      cfg.Addr,
		arena:     cfg.Arena,
		log:       cfg.Logger,
		rateLimit: cfg.RateLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWebSocket)
	s.router = r

	return s
}

// Handler exposes the router for embedding into an existing server or test
// harness.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening. It returns once the listener is up, or with the
// startup error, or after ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.running = true
	s.server = &http.Server{Addr: s.addr, Handler: s.router}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(stopCtx)
	case <-time.After(100 * time.Millisecond):
		s.log.Info().Str("addr", s.addr).Msg("websocket server listening")
		return nil
	}
}

// Stop shuts the listener down. Client sessions end as their sockets close;
// each read loop reports a CloseConnection event to the arena on its way
// out.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	return s.server.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn, joinErr := s.arena.NewConnection()
	if conn == nil {
		// No main room: nothing to route into, refuse the socket.
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, joinErr.Error())
		_ = sock.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = sock.Close()
		return
	}

	var limiter *rate.Limiter
	if s.rateLimit.Enabled {
		limiter = rate.NewLimiter(s.rateLimit.MessagesPerSecond, s.rateLimit.Burst)
	}

	sess := &session{
		sock:    sock,
		conn:    conn,
		arena:   s.arena,
		limiter: limiter,
		log:     s.log.With().Str("conn", conn.ID()).Str("remote", r.RemoteAddr).Logger(),
	}

	// The init frame goes out before the relay starts so the client learns
	// its id before any queued room event reaches it.
	sess.sendInit(joinErr)
	go sess.writeLoop()
	sess.readLoop()
}
