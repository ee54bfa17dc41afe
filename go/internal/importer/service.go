package importer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/bracketpool/calcutta/go/internal/models"
)

// Authorizer resolves the requesting identity.
type Authorizer interface {
	UserFromRequest(r *http.Request) (*models.User, error)
}

// Service exposes tournament import over HTTP.
type Service struct {
	app  *App
	auth Authorizer
}

// NewService creates a new importer HTTP service
func NewService(app *App, auth Authorizer) *Service {
	return &Service{app: app, auth: auth}
}

// RegisterRoutes registers importer routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/import-tournament", s.handleImport)
}

type importRequest struct {
	Year int `json:"year"`
}

// handleImport handles POST (import a year) and DELETE (reset all results).
func (s *Service) handleImport(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req importRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Year == 0 {
			writeError(w, http.StatusBadRequest, "Year is required")
			return
		}

		report, err := s.app.ImportYear(r.Context(), req.Year)
		if err != nil {
			if errors.Is(err, ErrNoGamesFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			log.Error().Err(err).Int("year", req.Year).Msg("tournament import failed")
			writeError(w, http.StatusInternalServerError, "Failed to import tournament data")
			return
		}
		writeJSON(w, http.StatusOK, report)

	case http.MethodDelete:
		if err := s.app.ResetResults(r.Context()); err != nil {
			log.Error().Err(err).Msg("failed to reset tournament results")
			writeError(w, http.StatusInternalServerError, "Failed to reset tournament results")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "All tournament results have been reset",
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Service) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	user, err := s.auth.UserFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	if !user.IsAdmin() {
		writeError(w, http.StatusForbidden, "Admin access required")
		return false
	}
	return true
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
