// internal/httpserver/routes_history.go
//
// HTTP routes for recorded matches:
//   - GET /leaderboard   → top players by wins, then total score (public)
//   - GET /matches/mine  → the authenticated user's recent matches
//
// Live game state never appears here; these read only what the coordinator's
// match recorder persisted when games ended.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/letterdash/go-server/internal/history"
)

// mountHistory registers the match history routes.
func (s *Server) mountHistory(r chi.Router) {
	r.Get("/leaderboard", s.handleLeaderboard)
	r.With(s.requireAuth()).Get("/matches/mine", s.handleMyMatches)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	rows, err := s.matches.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard query")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}

func (s *Server) handleMyMatches(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	if me == nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	rows, err := s.matches.MatchesForUser(r.Context(), me.ID, 50)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("matches query")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []history.Match{}
	}
	_ = json.NewEncoder(w).Encode(rows)
}
