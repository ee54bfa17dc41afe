package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bracketpool/calcutta/go/internal/models"
	"github.com/bracketpool/calcutta/go/internal/sqlutil"
)

// singletonID is the fixed primary key of the one auction_state row. A fixed
// key makes the create-if-absent path race-free across processes (the insert
// is ON CONFLICT DO NOTHING).
var singletonID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

const stateColumns = `id, is_active, current_team_id, current_bid,
	current_bidder, bids, last_bid_time, version, updated_at`

// Repository implements auction state persistence. All engine mutations go
// through GetForUpdate inside a transaction so concurrent invocations
// serialize on the row lock; Version increments on every write.
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new auction state repository
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// GetOrCreate returns the singleton auction state, creating the initial idle
// row on first read.
func (r *Repository) GetOrCreate(ctx context.Context) (*models.AuctionState, error) {
	if err := r.ensureRow(ctx); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+stateColumns+` FROM auction_state WHERE id = $1`, singletonID)
	st, err := scanState(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction state: %w", err)
	}
	return st, nil
}

// GetForUpdate returns the singleton state under a row lock. Must be called
// on a transaction-bound repository; the lock holds until commit/rollback.
func (r *Repository) GetForUpdate(ctx context.Context) (*models.AuctionState, error) {
	if err := r.ensureRow(ctx); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+stateColumns+` FROM auction_state WHERE id = $1 FOR UPDATE`, singletonID)
	st, err := scanState(row)
	if err != nil {
		return nil, fmt.Errorf("failed to lock auction state: %w", err)
	}
	return st, nil
}

// Update writes the state back and bumps its version. The returned state
// carries the new version and updated_at.
func (r *Repository) Update(ctx context.Context, st *models.AuctionState) (*models.AuctionState, error) {
	bids, err := json.Marshal(st.Bids)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bids: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE auction_state SET
			is_active       = $2,
			current_team_id = $3,
			current_bid     = $4,
			current_bidder  = $5,
			bids            = $6,
			last_bid_time   = $7,
			version         = version + 1,
			updated_at      = now()
		WHERE id = $1
		RETURNING `+stateColumns,
		singletonID, st.IsActive, sqlutil.ToNullUUID(st.CurrentTeamID),
		st.CurrentBid, sqlutil.ToSqlString(st.CurrentBidder), bids,
		sqlutil.ToSqlTime(st.LastBidTime),
	)
	updated, err := scanState(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update auction state: %w", err)
	}
	return updated, nil
}

func (r *Repository) ensureRow(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO auction_state (id, bids) VALUES ($1, '[]')
		ON CONFLICT (id) DO NOTHING`, singletonID); err != nil {
		return fmt.Errorf("failed to ensure auction state row: %w", err)
	}
	return nil
}

func scanState(row *sql.Row) (*models.AuctionState, error) {
	var st models.AuctionState
	var teamID uuid.NullUUID
	var bidder sql.NullString
	var lastBid sql.NullTime
	var bids []byte
	if err := row.Scan(
		&st.ID, &st.IsActive, &teamID, &st.CurrentBid,
		&bidder, &bids, &lastBid, &st.Version, &st.UpdatedAt,
	); err != nil {
		return nil, err
	}
	st.CurrentTeamID = sqlutil.FromNullUUID(teamID)
	st.CurrentBidder = sqlutil.FromSqlStringPtr(bidder)
	st.LastBidTime = sqlutil.FromSqlTime(lastBid)
	if err := json.Unmarshal(bids, &st.Bids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bids: %w", err)
	}
	if st.Bids == nil {
		st.Bids = []models.Bid{}
	}
	return &st, nil
}
