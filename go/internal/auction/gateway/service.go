package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/bracketpool/calcutta/go/internal/auction/engine"
	"github.com/bracketpool/calcutta/go/internal/models"
)

// Authorizer resolves the requesting identity.
type Authorizer interface {
	UserFromRequest(r *http.Request) (*models.User, error)
}

// Waker lets the service prod the sweeper after an action moves the
// countdown. Nil is allowed for setups without a sweeper.
type Waker interface {
	Wake()
}

// Service exposes the auction over HTTP: GET for the polled snapshot, POST
// for actions, and a separate restart endpoint since restart destroys data.
type Service struct {
	engine *engine.Engine
	auth   Authorizer
	waker  Waker
}

// NewService creates a new auction HTTP service
func NewService(eng *engine.Engine, auth Authorizer, waker Waker) *Service {
	return &Service{engine: eng, auth: auth, waker: waker}
}

// RegisterRoutes registers auction routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auction", s.handleAuction)
	mux.HandleFunc("/api/auction/restart", s.handleRestart)
}

type actionRequest struct {
	Action string  `json:"action"`
	Amount float64 `json:"amount,omitempty"`
	Bidder string  `json:"bidder,omitempty"`
}

type actionResponse struct {
	Success        bool                 `json:"success"`
	State          *models.AuctionState `json:"state"`
	RemainingTeams *int                 `json:"remainingTeams,omitempty"`
}

// stateResponse is the polled snapshot: the raw state plus the resolved lot
// and the auto-settlement deadline.
type stateResponse struct {
	*models.AuctionState
	CurrentTeam *models.Team `json:"currentTeam"`
	ExpiresAt   *time.Time   `json:"expiresAt,omitempty"`
}

func (s *Service) handleAuction(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetState(w, r)
	case http.MethodPost:
		s.handleAction(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Service) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load auction state")
		writeError(w, http.StatusInternalServerError, "Failed to fetch auction state")
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{
		AuctionState: snap.State,
		CurrentTeam:  snap.CurrentTeam,
		ExpiresAt:    snap.ExpiresAt,
	})
}

func (s *Service) handleAction(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.UserFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	action := engine.Action(req.Action)
	payload := engine.Payload{Bidder: req.Bidder, Amount: req.Amount}

	switch action {
	case engine.ActionBid:
		// Anyone logged in can bid; the bidder defaults to the caller.
		if payload.Bidder == "" {
			payload.Bidder = user.Username
		}
	case engine.ActionStart, engine.ActionNext, engine.ActionSold, engine.ActionStop, engine.ActionResume:
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "Invalid action")
		return
	}

	result, err := s.engine.Apply(r.Context(), action, payload)
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	if s.waker != nil {
		s.waker.Wake()
	}

	writeJSON(w, http.StatusOK, actionResponse{
		Success:        true,
		State:          result.State,
		RemainingTeams: result.RemainingTeams,
	})
}

func (s *Service) handleRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	user, err := s.auth.UserFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !user.IsAdmin() {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	result, err := s.engine.Restart(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to restart auction")
		writeError(w, http.StatusInternalServerError, "Failed to restart auction")
		return
	}
	if s.waker != nil {
		s.waker.Wake()
	}

	writeJSON(w, http.StatusOK, actionResponse{Success: true, State: result.State})
}

// writeActionError maps the engine's error taxonomy onto HTTP statuses.
// Rejected bids carry the current bid so clients can reprompt.
func (s *Service) writeActionError(w http.ResponseWriter, err error) {
	var tooLow *engine.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      tooLow.Error(),
			"currentBid": tooLow.CurrentBid,
		})
	case engine.IsDomainError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("auction action failed")
		writeError(w, http.StatusInternalServerError, "Auction action failed")
	}
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
