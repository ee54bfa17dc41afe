package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bracketpool/calcutta/go/internal/sqlutil"
)

// Repository implements session data access operations
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new sessions repository
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// CreateSession stores a session token hash for a user.
func (r *Repository) CreateSession(ctx context.Context, tokenHash string, userID uuid.UUID, expiresAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)`,
		tokenHash, userID, expiresAt,
	); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSessionUser resolves a token hash to the user ID of a live session.
func (r *Repository) GetSessionUser(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	if err := r.db.QueryRowContext(ctx, `
		SELECT user_id FROM sessions
		WHERE token_hash = $1 AND expires_at > now()`,
		tokenHash,
	).Scan(&userID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to get session: %w", err)
	}
	return userID, nil
}

// DeleteSession revokes a session by token hash.
func (r *Repository) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry.
func (r *Repository) PurgeExpiredSessions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= now()`); err != nil {
		return fmt.Errorf("failed to purge sessions: %w", err)
	}
	return nil
}
