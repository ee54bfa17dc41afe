package owners

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bracketpool/calcutta/go/internal/models"
	"github.com/bracketpool/calcutta/go/internal/sqlutil"
)

const ownerColumns = `id, name, payment_received, payout_sent, created_at`

// Repository implements owner data access operations
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new owners repository
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// CreateOwner creates a new owner
func (r *Repository) CreateOwner(ctx context.Context, req CreateOwnerRequest) (*models.Owner, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO owners (id, name)
		VALUES ($1, $2)
		RETURNING `+ownerColumns,
		req.ID, req.Name,
	)
	owner, err := scanOwner(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create owner: %w", err)
	}
	return owner, nil
}

// GetOwner retrieves an owner by ID
func (r *Repository) GetOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ownerColumns+` FROM owners WHERE id = $1`, id)
	owner, err := scanOwner(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	return owner, nil
}

// GetOwnerByName retrieves an owner by display name. Returns sql.ErrNoRows
// (wrapped) when no owner matches; settlement uses that to create lazily.
func (r *Repository) GetOwnerByName(ctx context.Context, name string) (*models.Owner, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ownerColumns+` FROM owners WHERE name = $1`, name)
	owner, err := scanOwner(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner by name: %w", err)
	}
	return owner, nil
}

// ListOwners retrieves all owners ordered by name.
func (r *Repository) ListOwners(ctx context.Context) ([]models.Owner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ownerColumns+` FROM owners ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	defer rows.Close()

	var owners []models.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		owners = append(owners, *o)
	}
	return owners, rows.Err()
}

// UpdateOwner updates an owner's bookkeeping flags and name.
func (r *Repository) UpdateOwner(ctx context.Context, id uuid.UUID, req UpdateOwnerRequest) (*models.Owner, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE owners SET
			name             = COALESCE($2, name),
			payment_received = COALESCE($3, payment_received),
			payout_sent      = COALESCE($4, payout_sent)
		WHERE id = $1
		RETURNING `+ownerColumns,
		id, sqlutil.ToSqlString(req.Name),
		toSqlBool(req.PaymentReceived), toSqlBool(req.PayoutSent),
	)
	owner, err := scanOwner(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update owner: %w", err)
	}
	return owner, nil
}

// DeleteOwner deletes an owner by ID. Their teams revert to unsold via the
// FK's ON DELETE SET NULL.
func (r *Repository) DeleteOwner(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete owner: %w", err)
	}
	return nil
}

// DeleteAllOwners removes every owner. Used by auction restart.
func (r *Repository) DeleteAllOwners(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM owners`); err != nil {
		return fmt.Errorf("failed to delete owners: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOwner(row rowScanner) (*models.Owner, error) {
	var o models.Owner
	if err := row.Scan(&o.ID, &o.Name, &o.PaymentReceived, &o.PayoutSent, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func toSqlBool(val *bool) sql.NullBool {
	if val == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *val, Valid: true}
}
