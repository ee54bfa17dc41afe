package teams

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bracketpool/calcutta/go/internal/models"
)

// Authorizer resolves the requesting identity; the catalog only needs the
// admin predicate for write operations.
type Authorizer interface {
	UserFromRequest(r *http.Request) (*models.User, error)
}

// Service exposes the team catalog over HTTP.
type Service struct {
	app  *App
	auth Authorizer
}

// NewService creates a new teams HTTP service
func NewService(app *App, auth Authorizer) *Service {
	return &Service{app: app, auth: auth}
}

// RegisterRoutes registers team catalog routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/teams", s.handleTeams)
	mux.HandleFunc("/api/teams/", s.handleTeamByID)
}

// handleTeams handles GET (list) and POST (create) on /api/teams
func (s *Service) handleTeams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		teams, err := s.app.ListTeams(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to list teams")
			writeError(w, http.StatusInternalServerError, "Failed to fetch teams")
			return
		}
		writeJSON(w, http.StatusOK, teams)

	case http.MethodPost:
		if !s.requireAdmin(w, r) {
			return
		}
		var req CreateTeamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		team, err := s.app.CreateTeam(r.Context(), req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, team)

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleTeamByID handles GET and PUT on /api/teams/{id}
func (s *Service) handleTeamByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/teams/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid team ID format")
		return
	}

	switch r.Method {
	case http.MethodGet:
		team, err := s.app.GetTeam(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "Team not found")
			return
		}
		writeJSON(w, http.StatusOK, team)

	case http.MethodPut:
		if !s.requireAdmin(w, r) {
			return
		}
		var req UpdateTeamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		team, err := s.app.UpdateTeam(r.Context(), id, req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, team)

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
