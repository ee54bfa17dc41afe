package models

import (
	"time"

	"github.com/google/uuid"
)

// Round identifies a tournament round a team can win.
type Round string

const (
	Round64      Round = "round64"
	Round32      Round = "round32"
	Sweet16      Round = "sweet16"
	Elite8       Round = "elite8"
	Final4       Round = "final4"
	Championship Round = "championship"
)

// Rounds lists all tournament rounds in bracket order.
var Rounds = []Round{Round64, Round32, Sweet16, Elite8, Final4, Championship}

// Team represents an auctionable tournament team. OwnerID is nil until the
// team is sold; Cost is the winning bid (zero while unsold).
type Team struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Region       string     `json:"region"`
	Seed         int        `json:"seed"`
	OwnerID      *uuid.UUID `json:"ownerId,omitempty"`
	Cost         float64    `json:"cost"`
	Round64      bool       `json:"round64"`
	Round32      bool       `json:"round32"`
	Sweet16      bool       `json:"sweet16"`
	Elite8       bool       `json:"elite8"`
	Final4       bool       `json:"final4"`
	Championship bool       `json:"championship"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Sold reports whether the team has been settled to an owner.
func (t *Team) Sold() bool {
	return t.OwnerID != nil
}

// WonRound reports whether the team won the given round.
func (t *Team) WonRound(r Round) bool {
	switch r {
	case Round64:
		return t.Round64
	case Round32:
		return t.Round32
	case Sweet16:
		return t.Sweet16
	case Elite8:
		return t.Elite8
	case Final4:
		return t.Final4
	case Championship:
		return t.Championship
	}
	return false
}
