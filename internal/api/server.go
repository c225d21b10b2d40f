// Package api serves stored runs over HTTP and streams the turns of a live
// run over a websocket. Every endpoint is read-only.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/flowergarden/internal/persistence"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
	maxStreamConns  = 16
	pingInterval    = 15 * time.Second
	writeTimeout    = 5 * time.Second
)

// Server serves run data over HTTP. DB and Hub are both optional; the
// endpoints that need a missing one answer 503.
type Server struct {
	DB   *persistence.DB
	Hub  *Hub
	Port int

	started     time.Time
	streamConns atomic.Int32
	upgrader    websocket.Upgrader
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	detailLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/run/", RateLimitMiddleware(detailLimiter, s.handleRunRoutes))
	mux.HandleFunc("/api/v1/stream", s.handleStream)
	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "db", s.DB != nil, "stream", s.Hub != nil)

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// CORS_ORIGINS adds a comma-separated list to the localhost dev servers.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	status := map[string]any{
		"name":    "flowergarden",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"db":      s.DB != nil,
		"clients": 0,
		"dropped": uint64(0), // Messages skipped for slow stream clients
		"live":    nil,
	}
	if s.Hub != nil {
		status["clients"] = s.Hub.ClientCount()
		status["dropped"] = s.Hub.Dropped()
		if latest := s.Hub.Latest(); latest != nil {
			status["live"] = latest
		}
	}
	writeJSON(w, status)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) || !s.requireDB(w) {
		return
	}
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := s.DB.ListRuns(limit)
	if err != nil {
		slog.Error("list runs", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []persistence.RunRow{}
	}
	writeJSON(w, runs)
}

// handleRunRoutes dispatches between run detail (GET /api/v1/run/:id) and a
// plant snapshot (GET /api/v1/run/:id/snapshot/:turn).
func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) || !s.requireDB(w) {
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/run/"), "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleRunDetail(w, parts[0])
	case len(parts) == 3 && parts[1] == "snapshot":
		turn, err := strconv.Atoi(parts[2])
		if err != nil || turn < 1 {
			http.Error(w, "turn must be a positive integer", http.StatusBadRequest)
			return
		}
		s.handleSnapshot(w, parts[0], turn)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleRunDetail(w http.ResponseWriter, id string) {
	run, err := s.DB.GetRun(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("get run", "run_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	history, err := s.DB.History(id)
	if err != nil {
		slog.Error("run history", "run_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	turns, err := s.DB.SnapshotTurns(id)
	if err != nil {
		slog.Error("snapshot turns", "run_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []float64{}
	}
	if turns == nil {
		turns = []int{}
	}

	writeJSON(w, map[string]any{
		"run":            run,
		"history":        history,
		"snapshot_turns": turns,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, id string, turn int) {
	rows, err := s.DB.Snapshots(id, turn)
	if err != nil {
		slog.Error("snapshots", "run_id", id, "turn", turn, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if len(rows) == 0 {
		http.Error(w, "snapshot not found", http.StatusNotFound)
		return
	}
	writeJSON(w, rows)
}

// handleStream upgrades to a websocket and forwards every published turn
// report, starting with the most recent one.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "no live run", http.StatusServiceUnavailable)
		return
	}
	if s.streamConns.Add(1) > maxStreamConns {
		s.streamConns.Add(-1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.streamConns.Add(-1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, ch := s.Hub.subscribe()
	defer s.Hub.unsubscribe(id)
	slog.Info("stream client connected", "client", id)

	// The reader only watches for the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if latest := s.Hub.Latest(); latest != nil {
		if err := writeMessage(conn, latest); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case msg := <-ch:
			if err := writeMessage(conn, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-gone:
			slog.Info("stream client disconnected", "client", id)
			return
		}
	}
}

func writeMessage(conn *websocket.Conn, msg []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, msg)
}

func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.DB == nil {
		http.Error(w, "no database configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
