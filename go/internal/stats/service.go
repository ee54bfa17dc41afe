package stats

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service exposes pot stats and the leaderboard. Both are public reads.
type Service struct {
	app *App
}

// NewService creates a new stats HTTP service
func NewService(app *App) *Service {
	return &Service{app: app}
}

// RegisterRoutes registers stats routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/leaderboard", s.handleLeaderboard)
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	stats, err := s.app.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to compute stats")
		writeError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Service) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	leaderboard, err := s.app.Leaderboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to compute leaderboard")
		writeError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, leaderboard)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
