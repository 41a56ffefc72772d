// Package httpapi exposes a read-only local observation surface: health,
// metrics, a session snapshot, recent history, and a live notification
// stream. The avatar frontend proper listens on the bus; these routes
// never drive the session.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/thotsl4yer69/sentient-core-sub001/internal/config"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/history"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/observability"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/session"
)

// SessionSource provides the live session snapshot.
type SessionSource interface {
	Snapshot() session.Snapshot
}

type Server struct {
	cfg      config.Config
	source   SessionSource
	store    history.Store
	upgrader websocket.Upgrader
	hub      *hub
}

func New(cfg config.Config, source SessionSource, store history.Store) *Server {
	return &Server{
		cfg:    cfg,
		source: source,
		store:  store,
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections unless explicitly
				// opened up; non-browser clients omit Origin and pass.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/session", s.handleSession)
	r.Get("/v1/session/ws", s.handleSessionWS)
	r.Get("/v1/history", s.handleHistory)

	return r
}

// Notify fans one avatar notification out to all websocket listeners.
// Wired as the session machine's observer.
func (s *Server) Notify(n session.Notification) {
	s.hub.broadcast(n)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.source.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"bus_connected": snap.BusConnected,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.source.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	turns, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("httpapi: websocket upgrade failed: %v", err)
		return
	}

	ch := s.hub.add()
	defer func() {
		s.hub.remove(ch)
		_ = conn.Close()
	}()

	// Reader loop only detects close; clients send nothing meaningful.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Seed the stream with the current snapshot so late joiners render
	// immediately.
	snap := s.source.Snapshot()
	if err := conn.WriteJSON(session.Notification{State: snap.State}); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case n := <-ch:
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		}
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("httpapi: response encode failed: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, detail string) {
	respondJSON(w, status, map[string]string{"code": code, "detail": detail})
}
