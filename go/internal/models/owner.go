package models

import (
	"time"

	"github.com/google/uuid"
)

// Owner is a pool participant account that accumulates purchased teams.
// Owners are created lazily the first time a bidder name wins a lot, so Name
// is the unique lookup key and need not match a login identity.
type Owner struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	PaymentReceived bool      `json:"paymentReceived"`
	PayoutSent      bool      `json:"payoutSent"`
	CreatedAt       time.Time `json:"created_at"`
}
