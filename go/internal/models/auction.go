package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid is one accepted bid on the current lot.
type Bid struct {
	Bidder    string    `json:"bidder"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// AuctionState is the singleton record driving the live auction. Exactly one
// row exists; every mutation bumps Version so pollers can detect change
// without diffing the whole payload.
//
// Invariants: CurrentBid > 0 iff CurrentBidder != nil; Bids is append-only
// and strictly increasing in Amount for the lifetime of one lot, and resets
// exactly when CurrentTeamID changes; LastBidTime is nil until the first bid
// on a lot (no countdown runs before any bid).
type AuctionState struct {
	ID            uuid.UUID  `json:"id"`
	IsActive      bool       `json:"isActive"`
	CurrentTeamID *uuid.UUID `json:"currentTeamId,omitempty"`
	CurrentBid    float64    `json:"currentBid"`
	CurrentBidder *string    `json:"currentBidder,omitempty"`
	Bids          []Bid      `json:"bids"`
	LastBidTime   *time.Time `json:"lastBidTime,omitempty"`
	Version       int64      `json:"version"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// HasStandingBid reports whether a bid is currently on the table.
func (s *AuctionState) HasStandingBid() bool {
	return s.CurrentBidder != nil && s.CurrentBid > 0
}

// LotOpen reports whether a lot is selected for bidding.
func (s *AuctionState) LotOpen() bool {
	return s.CurrentTeamID != nil
}
