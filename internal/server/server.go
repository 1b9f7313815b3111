// Package server exposes the advisor over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjack-advisor/internal/advisor"
	"github.com/lox/blackjack-advisor/internal/report"
	"github.com/lox/blackjack-advisor/internal/sessionid"
	"github.com/lox/blackjack-advisor/internal/store"
)

const (
	maxBodyBytes    = 1 << 20
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// StatsSource is the read side of the recording store
type StatsSource interface {
	report.Source
	DealerPatterns(ctx context.Context) ([]store.DealerPattern, error)
}

// Server serves advice and statistics
type Server struct {
	addr        string
	advisor     *advisor.Advisor
	stats       StatsSource
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	mu          sync.RWMutex
	logger      *log.Logger
	clock       quartz.Clock
	sessions    *sessionid.Generator
	certFile    string
	keyFile     string
	router      chi.Router
}

// Option configures a Server
type Option func(*Server)

// WithClock sets the clock used for timestamps
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithTLS serves HTTPS with the given certificate pair
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) {
		s.certFile = certFile
		s.keyFile = keyFile
	}
}

// NewServer creates a server. stats may be nil when nothing is recorded, in
// which case the statistics endpoints answer 503.
func NewServer(addr string, adv *advisor.Advisor, stats StatsSource, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		advisor: adv,
		stats:   stats,
		upgrader: websocket.Upgrader{
			// Casino pages connect from their own origin
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		clock:       quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = sessionid.NewGenerator(s.clock, nil)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		// Casino pages call in from their own origin
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:               300,
		OptionsSuccessStatus: http.StatusNoContent,
	}))

	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/health", s.handleHealth)
		r.Post("/game_state", s.handleGameState)
		r.Get("/stats", s.handleStats)
		r.Get("/report", s.handleReport)
		r.Get("/dealer_patterns", s.handleDealerPatterns)
	})

	return r
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if s.certFile != "" && s.keyFile != "" {
			s.logger.Info("Starting HTTPS server", "addr", s.addr)
			err = srv.ListenAndServeTLS(s.certFile, s.keyFile)
		} else {
			s.logger.Info("Starting HTTP server", "addr", s.addr)
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.closeConnections()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "session", conn.ID(), "total", total)
}

func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	_, ok := s.connections[conn]
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()
	if ok {
		s.logger.Info("Client disconnected", "session", conn.ID(), "total", total)
	}
}

func (s *Server) closeConnections() {
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// ConnectionCount returns the number of open WebSocket connections
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.Next()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to allocate session")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(id, conn, s.advisor, s.stats, s.clock, s.logger)
	s.register(client)
	client.Start()

	go func() {
		<-client.Done()
		s.unregister(client)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthData{
		Status:      "healthy",
		Timestamp:   s.clock.Now().UTC(),
		Message:     "blackjack advisor is running",
		Connections: s.ConnectionCount(),
	})
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	var req advisor.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid game state: "+err.Error())
		return
	}

	resp, err := s.advisor.HandleState(r.Context(), req)
	if err != nil {
		s.logger.Error("Failed to handle game state", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireStats(w) {
		return
	}
	snap, err := report.Summarize(r.Context(), s.stats, filterFrom(r))
	if err != nil {
		s.logger.Error("Failed to load statistics", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !s.requireStats(w) {
		return
	}
	rep, err := report.Load(r.Context(), s.stats, filterFrom(r), time.UTC)
	if err != nil {
		s.logger.Error("Failed to build report", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDealerPatterns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStats(w) {
		return
	}
	patterns, err := s.stats.DealerPatterns(r.Context())
	if err != nil {
		s.logger.Error("Failed to load dealer patterns", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if patterns == nil {
		patterns = []store.DealerPattern{}
	}
	writeJSON(w, http.StatusOK, patterns)
}

func (s *Server) requireStats(w http.ResponseWriter) bool {
	if s.stats == nil {
		writeError(w, http.StatusServiceUnavailable, "recording is disabled")
		return false
	}
	return true
}

func filterFrom(r *http.Request) store.Filter {
	return store.Filter{FormKey: r.URL.Query().Get("formkey")}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := s.clock.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", s.clock.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
