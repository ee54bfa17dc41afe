package users

import "github.com/bracketpool/calcutta/go/internal/models"

// CreateUserRequest represents the data needed to create a new user
type CreateUserRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role,omitempty"`
}

// UpdateUserRequest represents the data that can be updated for a user.
// Nil fields are left untouched.
type UpdateUserRequest struct {
	Role *models.Role `json:"role,omitempty"`
}
