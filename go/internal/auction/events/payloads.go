package events

import (
	"time"

	"github.com/google/uuid"
)

// Event payload types shared between the engine, outbox relay, and gateway.

// LotOpenedPayload is the payload for a LotOpened event
type LotOpenedPayload struct {
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	Region    string    `json:"region"`
	Seed      int       `json:"seed"`
	Remaining int       `json:"remaining"`
	OpenedAt  time.Time `json:"opened_at"`
}

// BidPlacedPayload is the payload for a BidPlaced event
type BidPlacedPayload struct {
	TeamID   string    `json:"team_id"`
	Bidder   string    `json:"bidder"`
	Amount   float64   `json:"amount"`
	BidCount int       `json:"bid_count"`
	BidAt    time.Time `json:"bid_at"`
}

// LotSoldPayload is the payload for a LotSold event
type LotSoldPayload struct {
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	Amount    float64   `json:"amount"`
	Remaining int       `json:"remaining"`
	SoldAt    time.Time `json:"sold_at"`
}

// LotPassedPayload is the payload for a LotPassed event (lot abandoned with
// no bids)
type LotPassedPayload struct {
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	Remaining int       `json:"remaining"`
	PassedAt  time.Time `json:"passed_at"`
}

// AuctionPausedPayload is the payload for an AuctionPaused event
type AuctionPausedPayload struct {
	PausedAt time.Time `json:"paused_at"`
	Reason   string    `json:"reason"`
}

// AuctionResumedPayload is the payload for an AuctionResumed event
type AuctionResumedPayload struct {
	ResumedAt time.Time `json:"resumed_at"`
}

// AuctionCompletedPayload is the payload for an AuctionCompleted event
type AuctionCompletedPayload struct {
	CompletedAt time.Time `json:"completed_at"`
	TotalSold   int       `json:"total_sold"`
}

// AuctionRestartedPayload is the payload for an AuctionRestarted event
type AuctionRestartedPayload struct {
	RestartedAt time.Time `json:"restarted_at"`
}

// EventType identifies a kind of auction event.
type EventType string

const (
	EventTypeLotOpened        EventType = "LotOpened"
	EventTypeBidPlaced        EventType = "BidPlaced"
	EventTypeLotSold          EventType = "LotSold"
	EventTypeLotPassed        EventType = "LotPassed"
	EventTypeAuctionPaused    EventType = "AuctionPaused"
	EventTypeAuctionResumed   EventType = "AuctionResumed"
	EventTypeAuctionCompleted EventType = "AuctionCompleted"
	EventTypeAuctionRestarted EventType = "AuctionRestarted"
)

// NewEventID generates an event identifier.
func NewEventID() uuid.UUID {
	return uuid.New()
}
