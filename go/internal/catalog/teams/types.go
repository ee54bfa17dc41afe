package teams

import "github.com/google/uuid"

// CreateTeamRequest represents the data needed to create a new team
type CreateTeamRequest struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Region string    `json:"region"`
	Seed   int       `json:"seed"`
}

// UpdateTeamRequest represents the data that can be updated for a team.
// Nil fields are left untouched.
type UpdateTeamRequest struct {
	Name         *string `json:"name,omitempty"`
	Region       *string `json:"region,omitempty"`
	Seed         *int    `json:"seed,omitempty"`
	Round64      *bool   `json:"round64,omitempty"`
	Round32      *bool   `json:"round32,omitempty"`
	Sweet16      *bool   `json:"sweet16,omitempty"`
	Elite8       *bool   `json:"elite8,omitempty"`
	Final4       *bool   `json:"final4,omitempty"`
	Championship *bool   `json:"championship,omitempty"`
}
