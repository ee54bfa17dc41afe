package owners

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bracketpool/calcutta/go/internal/models"
)

// Authorizer resolves the requesting identity for admin-gated writes.
type Authorizer interface {
	UserFromRequest(r *http.Request) (*models.User, error)
}

// Service exposes owner records over HTTP.
type Service struct {
	app  *App
	auth Authorizer
}

// NewService creates a new owners HTTP service
func NewService(app *App, auth Authorizer) *Service {
	return &Service{app: app, auth: auth}
}

// RegisterRoutes registers owner routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/owners", s.handleOwners)
	mux.HandleFunc("/api/owners/", s.handleOwnerByID)
}

func (s *Service) handleOwners(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		owners, err := s.app.ListOwners(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to list owners")
			writeError(w, http.StatusInternalServerError, "Failed to fetch owners")
			return
		}
		writeJSON(w, http.StatusOK, owners)

	case http.MethodPost:
		if !s.requireAdmin(w, r) {
			return
		}
		var req CreateOwnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		owner, err := s.app.CreateOwner(r.Context(), req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, owner)

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Service) handleOwnerByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/owners/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid owner ID format")
		return
	}

	switch r.Method {
	case http.MethodGet:
		owner, err := s.app.GetOwner(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "Owner not found")
			return
		}
		writeJSON(w, http.StatusOK, owner)

	case http.MethodPut:
		if !s.requireAdmin(w, r) {
			return
		}
		var req UpdateOwnerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		owner, err := s.app.UpdateOwner(r.Context(), id, req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, owner)

	case http.MethodDelete:
		if !s.requireAdmin(w, r) {
			return
		}
		if err := s.app.DeleteOwner(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to delete owner")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

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
