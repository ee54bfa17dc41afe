package owners

import "github.com/google/uuid"

// CreateOwnerRequest represents the data needed to create a new owner
type CreateOwnerRequest struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// UpdateOwnerRequest represents the data that can be updated for an owner.
// Nil fields are left untouched.
type UpdateOwnerRequest struct {
	Name            *string `json:"name,omitempty"`
	PaymentReceived *bool   `json:"paymentReceived,omitempty"`
	PayoutSent      *bool   `json:"payoutSent,omitempty"`
}
