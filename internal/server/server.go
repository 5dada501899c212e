package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Le-Vincent56/Procedural-Generation/internal/config"
	"github.com/Le-Vincent56/Procedural-Generation/internal/database"
	"github.com/Le-Vincent56/Procedural-Generation/internal/logger"
	"github.com/Le-Vincent56/Procedural-Generation/internal/tileset"
)

// Server exposes the solver over HTTP and WebSocket: solve submission,
// archive queries, catalog listing, live run streaming, and metrics.
type Server struct {
	address      string
	httpServer   *http.Server
	store        *tileset.Store
	db           *database.Database
	serverConfig *config.Config
	runs         map[string]*activeRun
	mu           sync.RWMutex
	shutdown     chan struct{}
	shutdownOnce sync.Once
	StartTime    time.Time
}

func NewServer(address string, store *tileset.Store, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		address:      address,
		store:        store,
		serverConfig: cfg,
		runs:         make(map[string]*activeRun),
		shutdown:     make(chan struct{}),
		StartTime:    time.Now(),
	}
}

// SetDatabase sets the run archive for the server
func (s *Server) SetDatabase(db *database.Database) {
	s.db = db
}

// GetServerConfig returns the server configuration
func (s *Server) GetServerConfig() *config.Config {
	return s.serverConfig
}

// GetUptime returns how long the server has been running
func (s *Server) GetUptime() time.Duration {
	return time.Since(s.StartTime)
}

// ActiveRunCount returns how many solver runs are currently in flight
func (s *Server) ActiveRunCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Handler builds the route table. Exposed so tests can mount it on an
// httptest server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/solve", s.handleSolve)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /api/runs/{id}", s.handleDeleteRun)
	mux.HandleFunc("GET /api/catalogs", s.handleCatalogs)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

// Start runs the HTTP listener until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	logger.Info("HTTP server listening", "address", s.address)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the listener and cancels in-flight runs. Each cancelled
// run observes its context at the solver's yield point, reports a failed
// result, and is archived like any other outcome before Shutdown returns.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)

		s.mu.RLock()
		runs := make([]*activeRun, 0, len(s.runs))
		for _, run := range s.runs {
			runs = append(runs, run)
		}
		s.mu.RUnlock()

		for _, run := range runs {
			run.cancel()
			<-run.done
		}

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.httpServer.Shutdown(ctx); err != nil {
				logger.Error("HTTP server shutdown error", "error", err)
			}
		}

		logger.Info("Server shutdown complete", "runs_cancelled", len(runs))
	})
}

// getRealIP extracts the real client IP from an HTTP request.
// It checks X-Forwarded-For header first (for reverse proxy setups),
// then falls back to the direct remote address.
func getRealIP(r *http.Request) string {
	// Check X-Forwarded-For header (set by reverse proxies like nginx)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
		// The first one is the original client
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			clientIP := strings.TrimSpace(ips[0])
			if clientIP != "" {
				return clientIP
			}
		}
	}

	// Check X-Real-IP header (alternative header used by some proxies)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to direct remote address
	return extractIP(r.RemoteAddr)
}

// extractIP strips the port from a remote address.
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr // Return as-is if can't split
	}
	return host
}
