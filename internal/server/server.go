package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CoolCat467/Neuro-API/internal/adapters/ws"
	"github.com/CoolCat467/Neuro-API/internal/logging"
	"github.com/CoolCat467/Neuro-API/internal/metrics"
	"github.com/CoolCat467/Neuro-API/pkg/ports"
)

// Server accepts game connections over websocket and exposes a small
// inspection surface next to the protocol endpoint. Every accepted
// connection gets its own Conn with an isolated registry and correlator;
// the decider and context sink are shared.
type Server struct {
	addr     string
	certFile string
	keyFile  string

	decider ports.Decider
	sink    ports.ContextSink
	journal ports.Journal
	logger  *slog.Logger
	metrics *metrics.Metrics
	reg     *prometheus.Registry

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*Conn
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithJournal sets a journal used by the inspection endpoints; it is also
// added as a context sink.
func WithJournal(journal ports.Journal) Option {
	return func(s *Server) {
		s.journal = journal
	}
}

// WithContextSink adds an extra sink the server fans context entries out to.
func WithContextSink(sink ports.ContextSink) Option {
	return func(s *Server) {
		if s.sink == nil {
			s.sink = sink
			return
		}
		if multi, ok := s.sink.(ports.MultiSink); ok {
			s.sink = append(multi, sink)
			return
		}
		s.sink = ports.MultiSink{s.sink, sink}
	}
}

// WithTLS makes Run serve TLS with the given certificate pair.
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) {
		s.certFile = certFile
		s.keyFile = keyFile
	}
}

// New builds a Server listening on addr once Run is called. The decider is
// the only mandatory collaborator; without a journal or extra sinks,
// context entries are dropped.
func New(addr string, decider ports.Decider, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		decider: decider,
		logger:  logging.NewNop(),
		reg:     prometheus.NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Games connect from arbitrary local processes, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*Conn),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.journal != nil {
		WithContextSink(s.journal)(s)
	}
	if s.sink == nil {
		s.sink = ports.MultiSink{}
	}
	s.metrics = metrics.New(s.reg)
	return s
}

// Handler returns the HTTP surface: the websocket protocol endpoint at /,
// liveness and metrics, and the read-only inspection API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleUpgrade)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/games", s.handleListGames)
		r.Get("/games/{game}/actions", s.handleGameActions)
		r.Get("/games/{game}/context", s.handleGameContext)
	})

	return r
}

// Run serves until ctx is canceled, then shuts the listener down and closes
// every live connection.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("listening for game connections", "addr", s.addr, "tls", s.certFile != "")
		if s.certFile != "" {
			serverErrors <- srv.ListenAndServeTLS(s.certFile, s.keyFile)
			return
		}
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeClients()
		return err
	}
}

// Games lists the titles of currently connected games, sorted.
func (s *Server) Games() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	titles := make([]string, 0, len(s.clients))
	for title := range s.clients {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Client returns the live connection bound to a game title, if any.
func (s *Server) Client(gameTitle string) (*Conn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.clients[gameTitle]
	return conn, ok
}

// Journal exposes the configured journal for inspection frontends; nil when
// the server runs without one.
func (s *Server) Journal() ports.Journal {
	return s.journal
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade rejected", "remote", r.RemoteAddr, "err", err)
		return
	}

	s.metrics.ConnectionsTotal.Inc()
	s.metrics.ConnectionsActive.Inc()
	defer s.metrics.ConnectionsActive.Dec()

	transport := ws.NewTransport(raw)
	conn := NewConn(transport, s.decider, s.sink,
		WithConnLogger(s.logger),
		WithConnMetrics(s.metrics),
	)
	defer s.forget(conn)
	defer transport.Close() //nolint:errcheck

	// Track the connection under its game title once startup binds one.
	go s.trackTitle(r.Context(), conn)

	if err := conn.Run(r.Context()); err != nil && !errors.Is(err, ports.ErrTransportClosed) {
		s.logger.Warn("connection ended with error", "remote", transport.RemoteAddr(), "err", err)
		return
	}
	s.logger.Info("connection closed", "remote", transport.RemoteAddr(), "game", conn.GameTitle())
}

// trackTitle polls until the connection binds a game title, then registers
// it in the client map. Polling keeps the dispatch loop free of callbacks.
func (s *Server) trackTitle(ctx context.Context, conn *Conn) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			title := conn.GameTitle()
			if title == "" {
				continue
			}
			s.mu.Lock()
			if previous, ok := s.clients[title]; ok && previous != conn {
				s.logger.Warn("replacing existing connection for game", "game", title)
			}
			s.clients[title] = conn
			s.mu.Unlock()
			return
		}
	}
}

func (s *Server) forget(conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for title, candidate := range s.clients {
		if candidate == conn {
			delete(s.clients, title)
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.clients))
	for _, conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.transport.Close()
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListGames(w http.ResponseWriter, _ *http.Request) {
	type gameInfo struct {
		Game    string `json:"game"`
		Remote  string `json:"remote"`
		Actions int    `json:"actions"`
		Pending int    `json:"pending_actions"`
	}

	s.mu.Lock()
	games := make([]gameInfo, 0, len(s.clients))
	for title, conn := range s.clients {
		games = append(games, gameInfo{
			Game:    title,
			Remote:  conn.RemoteAddr(),
			Actions: len(conn.Actions()),
			Pending: conn.PendingActions(),
		})
	}
	s.mu.Unlock()

	sort.Slice(games, func(i, j int) bool { return games[i].Game < games[j].Game })
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleGameActions(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.Client(chi.URLParam(r, "game"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "game not connected"})
		return
	}
	writeJSON(w, http.StatusOK, conn.Actions())
}

func (s *Server) handleGameContext(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no journal configured"})
		return
	}
	entries, err := s.journal.Recent(r.Context(), chi.URLParam(r, "game"), 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
