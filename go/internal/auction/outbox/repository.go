package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/bracketpool/calcutta/go/internal/sqlutil"
)

// Repository persists outbox rows. Insert runs on the engine's transaction
// via WithTx so events commit atomically with the state change.
type Repository struct {
	db sqlutil.DBTX
}

func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// Insert stages an event for delivery. payload is marshaled to JSON.
func (r *Repository) Insert(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO auction_outbox (id, event_type, payload) VALUES ($1, $2, $3)`,
		uuid.New(), eventType, data)
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

// FetchUnsentForUpdate returns unsent events in creation order, locking the
// rows so concurrent workers skip past each other's batches.
func (r *Repository) FetchUnsentForUpdate(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_type, payload, created_at, sent_at
		 FROM auction_outbox
		 WHERE sent_at IS NULL
		 ORDER BY created_at
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		var sentAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.Payload, &ev.CreatedAt, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		ev.SentAt = sqlutil.FromSqlTime(sentAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// MarkSent stamps the given events as delivered.
func (r *Repository) MarkSent(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE auction_outbox SET sent_at = now() WHERE id = ANY($1)`,
		pq.Array(strs))
	if err != nil {
		return fmt.Errorf("failed to mark outbox events as sent: %w", err)
	}
	return nil
}
