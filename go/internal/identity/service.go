package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bracketpool/calcutta/go/internal/models"
	"github.com/bracketpool/calcutta/go/internal/users"
)

const (
	sessionCookie = "auth_token"
	sessionTTL    = 7 * 24 * time.Hour
)

// SessionRepository defines what the service needs from session storage
type SessionRepository interface {
	CreateSession(ctx context.Context, tokenHash string, userID uuid.UUID, expiresAt time.Time) error
	GetSessionUser(ctx context.Context, tokenHash string) (uuid.UUID, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

// Service issues opaque bearer credentials and resolves them back to users.
// The rest of the system consumes only UserFromRequest and User.IsAdmin.
type Service struct {
	sessions SessionRepository
	users    *users.App
}

// NewService creates a new identity service
func NewService(sessions SessionRepository, usersApp *users.App) *Service {
	return &Service{sessions: sessions, users: usersApp}
}

// RegisterRoutes registers authentication routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/signup", s.handleSignup)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/logout", s.handleLogout)
	mux.HandleFunc("/api/auth/me", s.handleMe)
}

// UserFromRequest resolves the request's bearer credential (Authorization
// header or session cookie) to a user.
func (s *Service) UserFromRequest(r *http.Request) (*models.User, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, fmt.Errorf("no credentials supplied")
	}
	userID, err := s.sessions.GetSessionUser(r.Context(), hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	return s.users.GetUser(r.Context(), userID)
}

// IsAdmin reports whether the request carries an admin identity.
func (s *Service) IsAdmin(r *http.Request) bool {
	user, err := s.UserFromRequest(r)
	return err == nil && user.IsAdmin()
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Service) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.users.CreateUser(r.Context(), users.CreateUserRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.issueSession(w, r, user)
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	s.issueSession(w, r, user)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if token := tokenFromRequest(r); token != "" {
		if err := s.sessions.DeleteSession(r.Context(), hashToken(token)); err != nil {
			log.Warn().Err(err).Msg("failed to delete session on logout")
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	user, err := s.UserFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Service) issueSession(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := newToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session token")
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	expiresAt := time.Now().Add(sessionTTL)
	if err := s.sessions.CreateSession(r.Context(), hashToken(token), user.ID, expiresAt); err != nil {
		log.Error().Err(err).Msg("failed to store session")
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

// newToken returns a 32-byte random token, hex encoded. Tokens are opaque;
// only their SHA-256 hash is stored.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
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
