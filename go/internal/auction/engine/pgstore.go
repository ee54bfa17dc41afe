package engine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/bracketpool/calcutta/go/internal/auction/events"
	"github.com/bracketpool/calcutta/go/internal/auction/outbox"
	"github.com/bracketpool/calcutta/go/internal/auction/state"
	"github.com/bracketpool/calcutta/go/internal/catalog/owners"
	"github.com/bracketpool/calcutta/go/internal/catalog/teams"
	"github.com/bracketpool/calcutta/go/internal/models"
	"github.com/bracketpool/calcutta/go/internal/sqlutil"
)

// PgStore backs the engine with Postgres. Each RunTx call binds the
// repositories to a single transaction so state, team, owner, and outbox
// writes commit together.
type PgStore struct {
	db     *sql.DB
	state  *state.Repository
	teams  *teams.Repository
	owners *owners.Repository
	outbox *outbox.Repository
}

func NewPgStore(db *sql.DB, stateRepo *state.Repository, teamsRepo *teams.Repository, ownersRepo *owners.Repository, outboxRepo *outbox.Repository) *PgStore {
	return &PgStore{
		db:     db,
		state:  stateRepo,
		teams:  teamsRepo,
		owners: ownersRepo,
		outbox: outboxRepo,
	}
}

func (s *PgStore) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	return sqlutil.Run(ctx, s.db, func(txn *sql.Tx) error {
		return fn(&pgTx{
			state:  s.state.WithTx(txn),
			teams:  s.teams.WithTx(txn),
			owners: s.owners.WithTx(txn),
			outbox: s.outbox.WithTx(txn),
		})
	})
}

type pgTx struct {
	state  *state.Repository
	teams  *teams.Repository
	owners *owners.Repository
	outbox *outbox.Repository
}

func (t *pgTx) State(ctx context.Context) (*models.AuctionState, error) {
	return t.state.GetOrCreate(ctx)
}

func (t *pgTx) StateForUpdate(ctx context.Context) (*models.AuctionState, error) {
	return t.state.GetForUpdate(ctx)
}

func (t *pgTx) UpdateState(ctx context.Context, st *models.AuctionState) (*models.AuctionState, error) {
	return t.state.Update(ctx, st)
}

func (t *pgTx) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return t.teams.GetTeam(ctx, id)
}

func (t *pgTx) ListUnsoldTeams(ctx context.Context) ([]models.Team, error) {
	return t.teams.ListUnsoldTeams(ctx)
}

func (t *pgTx) CountSoldTeams(ctx context.Context) (int, error) {
	return t.teams.CountSoldTeams(ctx)
}

func (t *pgTx) AssignOwner(ctx context.Context, teamID, ownerID uuid.UUID, cost float64) (*models.Team, error) {
	return t.teams.AssignOwner(ctx, teamID, ownerID, cost)
}

func (t *pgTx) ResetAllTeams(ctx context.Context) error {
	return t.teams.ResetAllTeams(ctx)
}

// GetOwnerByName reports a missing owner as (nil, nil) so the engine can
// create one lazily at settlement.
func (t *pgTx) GetOwnerByName(ctx context.Context, name string) (*models.Owner, error) {
	owner, err := t.owners.GetOwnerByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return owner, nil
}

func (t *pgTx) CreateOwner(ctx context.Context, name string) (*models.Owner, error) {
	return t.owners.CreateOwner(ctx, owners.CreateOwnerRequest{
		ID:   uuid.New(),
		Name: name,
	})
}

func (t *pgTx) DeleteAllOwners(ctx context.Context) error {
	return t.owners.DeleteAllOwners(ctx)
}

func (t *pgTx) InsertEvent(ctx context.Context, eventType events.EventType, payload any) error {
	return t.outbox.Insert(ctx, string(eventType), payload)
}
