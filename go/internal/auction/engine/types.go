package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/bracketpool/calcutta/go/internal/auction/events"
	"github.com/bracketpool/calcutta/go/internal/models"
)

// Action names an auction operation requested by a client.
type Action string

const (
	ActionStart  Action = "start"
	ActionNext   Action = "next"
	ActionBid    Action = "bid"
	ActionSold   Action = "sold"
	ActionStop   Action = "stop"
	ActionResume Action = "resume"
)

// Payload carries the per-action parameters. Bidder and Amount are only
// consulted for bid actions.
type Payload struct {
	Bidder string
	Amount float64
}

// Result is returned from a successful Apply. RemainingTeams is populated
// after settlement actions so clients can report progress.
type Result struct {
	State          *models.AuctionState
	RemainingTeams *int
}

// Snapshot is the read view served to polling clients. CurrentTeam is
// resolved from the lot pointer; ExpiresAt is the auto-settlement deadline
// and is only set while a standing bid exists.
type Snapshot struct {
	State       *models.AuctionState `json:"state"`
	CurrentTeam *models.Team         `json:"currentTeam"`
	ExpiresAt   *time.Time           `json:"expiresAt,omitempty"`
}

// Tx is the set of storage operations the engine performs inside a single
// transaction. StateForUpdate must lock the state row so that concurrent
// actions serialize.
type Tx interface {
	State(ctx context.Context) (*models.AuctionState, error)
	StateForUpdate(ctx context.Context) (*models.AuctionState, error)
	UpdateState(ctx context.Context, st *models.AuctionState) (*models.AuctionState, error)

	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListUnsoldTeams(ctx context.Context) ([]models.Team, error)
	CountSoldTeams(ctx context.Context) (int, error)
	AssignOwner(ctx context.Context, teamID, ownerID uuid.UUID, cost float64) (*models.Team, error)
	ResetAllTeams(ctx context.Context) error

	GetOwnerByName(ctx context.Context, name string) (*models.Owner, error)
	CreateOwner(ctx context.Context, name string) (*models.Owner, error)
	DeleteAllOwners(ctx context.Context) error

	InsertEvent(ctx context.Context, eventType events.EventType, payload any) error
}

// Store runs engine transactions. Implementations must roll back when fn
// returns an error.
type Store interface {
	RunTx(ctx context.Context, fn func(tx Tx) error) error
}
