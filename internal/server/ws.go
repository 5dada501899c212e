package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Le-Vincent56/Procedural-Generation/internal/database"
	"github.com/Le-Vincent56/Procedural-Generation/internal/logger"
)

// handleWebSocket upgrades the connection and streams the events of one
// run. Watching a finished run replays its archived result as a single
// event; watching an in-flight run streams narrowings, collapses, and
// backtracks live until the result event ends the stream.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "missing run parameter", http.StatusBadRequest)
		return
	}

	run, live := s.lookupRun(runID)

	var replay *Event
	if !live {
		if s.db == nil {
			http.Error(w, "unknown run: "+runID, http.StatusNotFound)
			return
		}
		rec, err := s.db.GetRun(runID)
		if errors.Is(err, database.ErrRunNotFound) {
			http.Error(w, "unknown run: "+runID, http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("Failed to load run for watcher", "run_id", runID, "error", err)
			http.Error(w, "failed to load run", http.StatusInternalServerError)
			return
		}
		replay = &Event{Type: EventResult, RunID: runID, Result: recordResult(rec)}
	}

	// Create upgrader with origin check based on server config
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			cfg := s.GetServerConfig()
			allowed := cfg.Server.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	if max := s.serverConfig.Server.WebSocket.MaxMessageSize; max > 0 {
		conn.SetReadLimit(max)
	}

	logger.Debug("Run watcher connected", "run_id", runID, "client_ip", getRealIP(r), "live", live)

	if !live {
		if err := conn.WriteJSON(replay); err != nil {
			logger.Debug("Failed to replay archived run", "run_id", runID, "error", err)
		}
		conn.Close()
		return
	}

	go s.streamRun(conn, run)
}

// streamRun pumps one watcher's event channel into its connection. The
// channel closing — run finished, or this watcher dropped for falling
// behind — ends the stream.
func (s *Server) streamRun(conn *websocket.Conn, run *activeRun) {
	ch := run.subscribe()
	defer conn.Close()
	defer run.unsubscribe(ch)

	// Reader goroutine: discard client frames, notice disconnects.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-clientGone:
			return
		case <-s.shutdown:
			return
		}
	}
}
