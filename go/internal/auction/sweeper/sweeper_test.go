package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/peterldowns/testy/check"

	"github.com/bracketpool/calcutta/go/internal/auction/engine"
	"github.com/bracketpool/calcutta/go/internal/auction/events"
	"github.com/bracketpool/calcutta/go/internal/models"
)

// staticStore serves a fixed state; sweeper tests only exercise the read
// path and settlement gating.
type staticStore struct {
	state models.AuctionState
	team  models.Team
}

func (s *staticStore) RunTx(ctx context.Context, fn func(tx engine.Tx) error) error {
	return fn(&staticTx{s})
}

type staticTx struct{ s *staticStore }

func (t *staticTx) State(ctx context.Context) (*models.AuctionState, error) {
	st := t.s.state
	return &st, nil
}

func (t *staticTx) StateForUpdate(ctx context.Context) (*models.AuctionState, error) {
	return t.State(ctx)
}

func (t *staticTx) UpdateState(ctx context.Context, st *models.AuctionState) (*models.AuctionState, error) {
	st.Version++
	t.s.state = *st
	updated := *st
	return &updated, nil
}

func (t *staticTx) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team := t.s.team
	return &team, nil
}

func (t *staticTx) ListUnsoldTeams(ctx context.Context) ([]models.Team, error) {
	if t.s.team.OwnerID == nil {
		return []models.Team{t.s.team}, nil
	}
	return nil, nil
}

func (t *staticTx) CountSoldTeams(ctx context.Context) (int, error) { return 0, nil }

func (t *staticTx) AssignOwner(ctx context.Context, teamID, ownerID uuid.UUID, cost float64) (*models.Team, error) {
	id := ownerID
	t.s.team.OwnerID = &id
	t.s.team.Cost = cost
	team := t.s.team
	return &team, nil
}

func (t *staticTx) ResetAllTeams(ctx context.Context) error { return nil }

func (t *staticTx) GetOwnerByName(ctx context.Context, name string) (*models.Owner, error) {
	return nil, nil
}

func (t *staticTx) CreateOwner(ctx context.Context, name string) (*models.Owner, error) {
	return &models.Owner{ID: uuid.New(), Name: name}, nil
}

func (t *staticTx) DeleteAllOwners(ctx context.Context) error { return nil }

func (t *staticTx) InsertEvent(ctx context.Context, eventType events.EventType, payload any) error {
	return nil
}

func newSweeperUnderTest(store *staticStore, clock clockwork.Clock) *Sweeper {
	eng := engine.NewEngine(store, clock, 5*time.Second,
		engine.WithRand(func(n int) int { return 0 }))
	return NewSweeper(eng, clock)
}

func TestNextWait_NoDeadlineResyncs(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := &staticStore{
		state: models.AuctionState{ID: uuid.New()},
		team:  models.Team{ID: uuid.New(), Name: "Duke"},
	}
	s := newSweeperUnderTest(store, clock)

	// Idle auction: no deadline.
	check.Equal(t, resyncInterval, s.nextWait(context.Background()))

	// Active but no standing bid: still no deadline.
	teamID := store.team.ID
	store.state.IsActive = true
	store.state.CurrentTeamID = &teamID
	check.Equal(t, resyncInterval, s.nextWait(context.Background()))
}

func TestNextWait_TracksSettlementDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	teamID := uuid.New()
	bidder := "alice"
	bidTime := clock.Now()
	store := &staticStore{
		state: models.AuctionState{
			ID:            uuid.New(),
			IsActive:      true,
			CurrentTeamID: &teamID,
			CurrentBid:    10,
			CurrentBidder: &bidder,
			LastBidTime:   &bidTime,
		},
		team: models.Team{ID: teamID, Name: "Duke"},
	}
	s := newSweeperUnderTest(store, clock)

	// Deadline is 3W after the bid.
	check.Equal(t, 15*time.Second, s.nextWait(context.Background()))

	clock.Advance(10 * time.Second)
	check.Equal(t, 5*time.Second, s.nextWait(context.Background()))

	// Past the deadline: sweep immediately.
	clock.Advance(10 * time.Second)
	check.Equal(t, time.Duration(0), s.nextWait(context.Background()))
}

func TestWake_NeverBlocks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := &staticStore{state: models.AuctionState{ID: uuid.New()}}
	s := newSweeperUnderTest(store, clock)

	// Repeated wakes with no running loop coalesce instead of blocking.
	for i := 0; i < 10; i++ {
		s.Wake()
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := &staticStore{state: models.AuctionState{ID: uuid.New()}}
	s := newSweeperUnderTest(store, clock)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	// Wait for the loop to arm its timer, then cancel.
	clock.BlockUntil(1)
	cancel()

	select {
	case err := <-errCh:
		check.Equal(t, context.Canceled, err, cmpopts.EquateErrors())
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
