package watcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bracketpool/calcutta/go/clients"
	"github.com/bracketpool/calcutta/go/internal/models"
)

// AuctionAPI is what the watcher needs from the server. Split out so tests
// can drive the loop with scripted states.
type AuctionAPI interface {
	FetchState(ctx context.Context) (*AuctionView, error)
	MarkSold(ctx context.Context) error
}

// AuctionView is the polled snapshot as served by GET /api/auction.
type AuctionView struct {
	IsActive      bool         `json:"isActive"`
	CurrentTeamID *string      `json:"currentTeamId,omitempty"`
	CurrentBid    float64      `json:"currentBid"`
	CurrentBidder *string      `json:"currentBidder,omitempty"`
	Bids          []models.Bid `json:"bids"`
	LastBidTime   *time.Time   `json:"lastBidTime,omitempty"`
	Version       int64        `json:"version"`
	CurrentTeam   *models.Team `json:"currentTeam"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
}

// Client talks to the auction server's JSON API.
type Client struct {
	*clients.BaseClient
}

// NewClient creates an auction API client. token is the session token used
// to authorize the sold action.
func NewClient(baseURL, token string) *Client {
	base := clients.NewBaseClient(baseURL)
	base.SetHeader("Content-Type", "application/json")
	if token != "" {
		base.SetHeader("Authorization", "Bearer "+token)
	}
	return &Client{BaseClient: base}
}

func (c *Client) FetchState(ctx context.Context) (*AuctionView, error) {
	body, err := c.Get(ctx, "/api/auction")
	if err != nil {
		return nil, fmt.Errorf("fetch auction state: %w", err)
	}
	var view AuctionView
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("decode auction state: %w", err)
	}
	return &view, nil
}

func (c *Client) MarkSold(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{"action": "sold"})
	if err != nil {
		return err
	}
	if _, err := c.Post(ctx, "/api/auction", bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("mark sold: %w", err)
	}
	return nil
}
