// internal/httpserver/server.go
//
// HTTP server wiring for the LetterDash backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/dict".
//   - Realtime endpoint: GET /ws (optional auth) — upgrades to WebSocket and
//     hands the connection to the game gateway.
//   - Leaderboard + match history endpoints backed by SQLite.
//   - Auth endpoints: /auth/*, /stats/me (require auth where noted).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is
//     present; /ws still runs for guests.
//   - The request timeout middleware wraps only the REST routes; a timeout on
//     /ws would tear down long-lived game connections.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/letterdash/go-server/internal/dict"
	"github.com/letterdash/go-server/internal/history"
	"github.com/letterdash/go-server/internal/ws"
)

// Server bundles router, DB handle, dictionary, and the realtime gateway.
type Server struct {
	r       *chi.Mux
	db      *sql.DB
	dict    *dict.Dictionary
	hub     *ws.Hub
	handler ws.Handler
	matches *history.Store
}

// New constructs a Server, installs middleware, and registers routes.
func New(db *sql.DB, d *dict.Dictionary, hub *ws.Hub, handler ws.Handler, matches *history.Store) *Server {
	s := &Server{r: chi.NewRouter(), db: db, dict: d, hub: hub, handler: handler, matches: matches}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(corsFromEnv)     // credentials-friendly CORS

	// Realtime endpoint — no timeout, optional auth so guests can play.
	s.r.With(s.withOptionalAuth()).Get("/ws", s.handleWS)

	// REST routes get JSON defaults and a bounded handler time.
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"letterdash-go","endpoints":["/health","GET /ws","GET /leaderboard","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		// Debug: dictionary readiness and size
		r.Get("/debug/dict", func(w http.ResponseWriter, req *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ready": s.dict.Ready(),
				"words": s.dict.Size(),
			})
		})

		// Leaderboard + match history
		s.mountHistory(r)

		// Auth + profile/stats
		s.mountAuthRoutes(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			http.Error(w, `{"error":"not_found","path":"`+req.URL.Path+`"}`, http.StatusNotFound)
		})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
