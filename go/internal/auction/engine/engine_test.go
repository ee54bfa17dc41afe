package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/peterldowns/testy/check"

	"github.com/bracketpool/calcutta/go/internal/auction/events"
	"github.com/bracketpool/calcutta/go/internal/models"
)

// memStore is an in-memory Store. Single-threaded tests need no locking;
// version bumps mirror the real repository.
type memStore struct {
	state  models.AuctionState
	teams  []models.Team
	owners []models.Owner
	events []events.EventType
}

func newMemStore(teams ...models.Team) *memStore {
	return &memStore{
		state: models.AuctionState{
			ID:   uuid.New(),
			Bids: []models.Bid{},
		},
		teams: teams,
	}
}

func (m *memStore) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	return fn(&memTx{m})
}

type memTx struct{ s *memStore }

func (t *memTx) State(ctx context.Context) (*models.AuctionState, error) {
	st := t.s.state
	return &st, nil
}

func (t *memTx) StateForUpdate(ctx context.Context) (*models.AuctionState, error) {
	return t.State(ctx)
}

func (t *memTx) UpdateState(ctx context.Context, st *models.AuctionState) (*models.AuctionState, error) {
	st.Version++
	t.s.state = *st
	updated := *st
	return &updated, nil
}

func (t *memTx) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	for i := range t.s.teams {
		if t.s.teams[i].ID == id {
			team := t.s.teams[i]
			return &team, nil
		}
	}
	return nil, errors.New("team not found")
}

func (t *memTx) ListUnsoldTeams(ctx context.Context) ([]models.Team, error) {
	var unsold []models.Team
	for _, team := range t.s.teams {
		if team.OwnerID == nil {
			unsold = append(unsold, team)
		}
	}
	return unsold, nil
}

func (t *memTx) CountSoldTeams(ctx context.Context) (int, error) {
	count := 0
	for _, team := range t.s.teams {
		if team.OwnerID != nil {
			count++
		}
	}
	return count, nil
}

func (t *memTx) AssignOwner(ctx context.Context, teamID, ownerID uuid.UUID, cost float64) (*models.Team, error) {
	for i := range t.s.teams {
		if t.s.teams[i].ID == teamID {
			id := ownerID
			t.s.teams[i].OwnerID = &id
			t.s.teams[i].Cost = cost
			team := t.s.teams[i]
			return &team, nil
		}
	}
	return nil, errors.New("team not found")
}

func (t *memTx) ResetAllTeams(ctx context.Context) error {
	for i := range t.s.teams {
		t.s.teams[i].OwnerID = nil
		t.s.teams[i].Cost = 0
	}
	return nil
}

func (t *memTx) GetOwnerByName(ctx context.Context, name string) (*models.Owner, error) {
	for i := range t.s.owners {
		if t.s.owners[i].Name == name {
			owner := t.s.owners[i]
			return &owner, nil
		}
	}
	return nil, nil
}

func (t *memTx) CreateOwner(ctx context.Context, name string) (*models.Owner, error) {
	owner := models.Owner{ID: uuid.New(), Name: name}
	t.s.owners = append(t.s.owners, owner)
	return &owner, nil
}

func (t *memTx) DeleteAllOwners(ctx context.Context) error {
	t.s.owners = nil
	return nil
}

func (t *memTx) InsertEvent(ctx context.Context, eventType events.EventType, payload any) error {
	t.s.events = append(t.s.events, eventType)
	return nil
}

func testTeams(n int) []models.Team {
	teams := make([]models.Team, n)
	for i := range teams {
		teams[i] = models.Team{
			ID:     uuid.New(),
			Name:   "Team " + string(rune('A'+i)),
			Region: "South",
			Seed:   i + 1,
		}
	}
	return teams
}

func newTestEngine(store *memStore, clock clockwork.Clock) *Engine {
	// Deterministic lot selection: always pick the first unsold team.
	return NewEngine(store, clock, 5*time.Second, WithRand(func(n int) int { return 0 }))
}

func TestStart_OpensLot(t *testing.T) {
	store := newMemStore(testTeams(4)...)
	clock := clockwork.NewFakeClock()
	eng := newTestEngine(store, clock)

	res, err := eng.Apply(context.Background(), ActionStart, Payload{})
	check.Nil(t, err)
	check.True(t, res.State.IsActive)
	check.NotNil(t, res.State.CurrentTeamID)
	check.Equal(t, 0.0, res.State.CurrentBid)
	check.Nil(t, res.State.CurrentBidder)
	check.Nil(t, res.State.LastBidTime)
	check.Equal(t, 0, len(res.State.Bids))
	check.Equal(t, 3, *res.RemainingTeams)
	check.Equal(t, []events.EventType{events.EventTypeLotOpened}, store.events)
}

func TestStart_NoTeams(t *testing.T) {
	store := newMemStore()
	eng := newTestEngine(store, clockwork.NewFakeClock())

	_, err := eng.Apply(context.Background(), ActionStart, Payload{})
	check.True(t, errors.Is(err, ErrNoLotsAvailable))
}

func TestBid_RequiresActiveLot(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())

	_, err := eng.Apply(context.Background(), ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.True(t, errors.Is(err, ErrInactiveAuction))
}

func TestBid_StrictIncrease(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	clock := clockwork.NewFakeClock()
	eng := newTestEngine(store, clock)
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)

	res, err := eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.Nil(t, err)
	check.Equal(t, 10.0, res.State.CurrentBid)
	check.Equal(t, "alice", *res.State.CurrentBidder)
	check.NotNil(t, res.State.LastBidTime)
	check.Equal(t, 1, len(res.State.Bids))

	// Equal amount is rejected, ties do not steal the lot.
	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "bob", Amount: 10})
	var tooLow *BidTooLowError
	check.True(t, errors.As(err, &tooLow))
	check.Equal(t, 10.0, tooLow.CurrentBid)

	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "bob", Amount: 5})
	check.True(t, errors.As(err, &tooLow))

	res, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "bob", Amount: 15})
	check.Nil(t, err)
	check.Equal(t, "bob", *res.State.CurrentBidder)
	check.Equal(t, 2, len(res.State.Bids))
}

func TestBid_LedgerMonotonic(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)

	amounts := []float64{3, 7, 12, 20}
	for _, amount := range amounts {
		_, err := eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: amount})
		check.Nil(t, err)
	}

	bids := store.state.Bids
	check.Equal(t, len(amounts), len(bids))
	for i := 1; i < len(bids); i++ {
		check.True(t, bids[i].Amount > bids[i-1].Amount)
	}
}

func TestSold_CreatesOwnerAndAdvances(t *testing.T) {
	store := newMemStore(testTeams(3)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	firstLot := *store.state.CurrentTeamID

	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 25})
	check.Nil(t, err)

	res, err := eng.Apply(ctx, ActionSold, Payload{})
	check.Nil(t, err)

	// Owner created lazily and assigned with the winning bid as cost.
	check.Equal(t, 1, len(store.owners))
	check.Equal(t, "alice", store.owners[0].Name)
	sold, _ := (&memTx{store}).GetTeam(ctx, firstLot)
	check.NotNil(t, sold.OwnerID)
	check.Equal(t, 25.0, sold.Cost)

	// Fresh lot with a clean ledger.
	check.NotNil(t, res.State.CurrentTeamID)
	check.True(t, *res.State.CurrentTeamID != firstLot)
	check.Equal(t, 0.0, res.State.CurrentBid)
	check.Nil(t, res.State.CurrentBidder)
	check.Nil(t, res.State.LastBidTime)
	check.Equal(t, 2, *res.RemainingTeams)
}

func TestSold_ReusesExistingOwner(t *testing.T) {
	store := newMemStore(testTeams(3)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)

	for i := 0; i < 2; i++ {
		_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
		check.Nil(t, err)
		_, err = eng.Apply(ctx, ActionSold, Payload{})
		check.Nil(t, err)
	}

	check.Equal(t, 1, len(store.owners))
}

func TestSold_LastTeamCompletesAuction(t *testing.T) {
	store := newMemStore(testTeams(1)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 50})
	check.Nil(t, err)

	res, err := eng.Apply(ctx, ActionSold, Payload{})
	check.Nil(t, err)
	check.False(t, res.State.IsActive)
	check.Nil(t, res.State.CurrentTeamID)
	check.Equal(t, 0, *res.RemainingTeams)
	check.Equal(t, events.EventTypeAuctionCompleted, store.events[len(store.events)-1])
}

func TestSold_NoLotSelected(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())

	_, err := eng.Apply(context.Background(), ActionSold, Payload{})
	check.True(t, errors.Is(err, ErrInactiveAuction))
}

func TestSold_NoBidSkipsLot(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)

	// No interest in the lot: sold abandons it unowned and moves on.
	res, err := eng.Apply(ctx, ActionSold, Payload{})
	check.Nil(t, err)
	check.NotNil(t, res.State.CurrentTeamID)
	check.Equal(t, 0, len(store.owners))
	unsold, _ := (&memTx{store}).ListUnsoldTeams(ctx)
	check.Equal(t, 2, len(unsold))
	check.True(t, containsEvent(store.events, events.EventTypeLotPassed))
}

func TestSold_ValidWhilePaused(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.Nil(t, err)
	_, err = eng.Apply(ctx, ActionStop, Payload{})
	check.Nil(t, err)

	_, err = eng.Apply(ctx, ActionSold, Payload{})
	check.Nil(t, err)
	check.Equal(t, 1, len(store.owners))
}

func TestStopAndResume(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	clock := clockwork.NewFakeClock()
	eng := newTestEngine(store, clock)
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionResume, Payload{})
	check.True(t, errors.Is(err, ErrNoLotToResume))

	_, err = eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	lot := *store.state.CurrentTeamID

	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.Nil(t, err)
	bidTime := *store.state.LastBidTime

	res, err := eng.Apply(ctx, ActionStop, Payload{})
	check.Nil(t, err)
	check.False(t, res.State.IsActive)
	// Lot and ledger survive the pause.
	check.Equal(t, lot, *res.State.CurrentTeamID)
	check.Equal(t, 1, len(res.State.Bids))

	_, err = eng.Apply(ctx, ActionStop, Payload{})
	check.True(t, errors.Is(err, ErrInactiveAuction))

	// The countdown restarts from resume, not from the pre-pause bid.
	clock.Advance(time.Minute)
	res, err = eng.Apply(ctx, ActionResume, Payload{})
	check.Nil(t, err)
	check.True(t, res.State.IsActive)
	check.True(t, res.State.LastBidTime.After(bidTime))
}

func TestResume_NoStandingBidKeepsNilLastBidTime(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	_, err = eng.Apply(ctx, ActionStop, Payload{})
	check.Nil(t, err)

	res, err := eng.Apply(ctx, ActionResume, Payload{})
	check.Nil(t, err)
	check.Nil(t, res.State.LastBidTime)
}

func TestNext_PassesLot(t *testing.T) {
	store := newMemStore(testTeams(3)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.Nil(t, err)

	res, err := eng.Apply(ctx, ActionNext, Payload{})
	check.Nil(t, err)

	// The abandoned lot's ledger is gone and the new lot starts clean.
	check.NotNil(t, res.State.CurrentTeamID)
	check.Equal(t, 0.0, res.State.CurrentBid)
	check.Nil(t, res.State.CurrentBidder)
	check.Equal(t, 0, len(res.State.Bids))

	// Passed team stays unsold and a pass event was recorded.
	unsold, _ := (&memTx{store}).ListUnsoldTeams(ctx)
	check.Equal(t, 3, len(unsold))
	check.True(t, containsEvent(store.events, events.EventTypeLotPassed))
}

func containsEvent(evs []events.EventType, want events.EventType) bool {
	for _, ev := range evs {
		if ev == want {
			return true
		}
	}
	return false
}

func TestRestart_WipesEverything(t *testing.T) {
	store := newMemStore(testTeams(3)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.Nil(t, err)
	_, err = eng.Apply(ctx, ActionSold, Payload{})
	check.Nil(t, err)

	res, err := eng.Restart(ctx)
	check.Nil(t, err)
	check.False(t, res.State.IsActive)
	check.Nil(t, res.State.CurrentTeamID)
	check.Equal(t, 0, len(res.State.Bids))
	check.Equal(t, 0, len(store.owners))
	unsold, _ := (&memTx{store}).ListUnsoldTeams(ctx)
	check.Equal(t, 3, len(unsold))
}

func TestVersion_BumpsOnEveryWrite(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())
	ctx := context.Background()

	res, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	v1 := res.State.Version

	res, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.Nil(t, err)
	check.True(t, res.State.Version > v1)
}

func TestExpireLapsed(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	clock := clockwork.NewFakeClock()
	eng := newTestEngine(store, clock)
	ctx := context.Background()

	// Nothing to expire on an idle auction.
	settled, err := eng.ExpireLapsed(ctx)
	check.Nil(t, err)
	check.False(t, settled)

	_, err = eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)

	// No standing bid, no countdown.
	clock.Advance(time.Hour)
	settled, err = eng.ExpireLapsed(ctx)
	check.Nil(t, err)
	check.False(t, settled)

	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.Nil(t, err)

	clock.Advance(14 * time.Second)
	settled, err = eng.ExpireLapsed(ctx)
	check.Nil(t, err)
	check.False(t, settled)

	clock.Advance(time.Second)
	settled, err = eng.ExpireLapsed(ctx)
	check.Nil(t, err)
	check.True(t, settled)
	check.Equal(t, 1, len(store.owners))

	// Idempotent: the lot is already settled.
	settled, err = eng.ExpireLapsed(ctx)
	check.Nil(t, err)
	check.False(t, settled)
}

func TestExpireLapsed_NewBidRestartsWindow(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	clock := clockwork.NewFakeClock()
	eng := newTestEngine(store, clock)
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.Nil(t, err)

	clock.Advance(14 * time.Second)
	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "bob", Amount: 15})
	check.Nil(t, err)

	clock.Advance(2 * time.Second)
	settled, err := eng.ExpireLapsed(ctx)
	check.Nil(t, err)
	check.False(t, settled)

	clock.Advance(13 * time.Second)
	settled, err = eng.ExpireLapsed(ctx)
	check.Nil(t, err)
	check.True(t, settled)
	check.Equal(t, "bob", store.owners[0].Name)
	sold := store.teams[0]
	check.Equal(t, 15.0, sold.Cost)
}

func TestSnapshot(t *testing.T) {
	store := newMemStore(testTeams(2)...)
	clock := clockwork.NewFakeClock()
	eng := newTestEngine(store, clock)
	ctx := context.Background()

	snap, err := eng.Snapshot(ctx)
	check.Nil(t, err)
	check.Nil(t, snap.CurrentTeam)
	check.Nil(t, snap.ExpiresAt)

	_, err = eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.Nil(t, err)

	snap, err = eng.Snapshot(ctx)
	check.Nil(t, err)
	check.NotNil(t, snap.CurrentTeam)
	check.Equal(t, *store.state.CurrentTeamID, snap.CurrentTeam.ID)
	check.NotNil(t, snap.ExpiresAt)
	check.Equal(t, store.state.LastBidTime.Add(15*time.Second), *snap.ExpiresAt)
}

func TestAuctionLifecycle(t *testing.T) {
	store := newMemStore(testTeams(4)...)
	clock := clockwork.NewFakeClock()
	eng := newTestEngine(store, clock)
	ctx := context.Background()

	_, err := eng.Apply(ctx, ActionStart, Payload{})
	check.Nil(t, err)
	lot := *store.state.CurrentTeamID

	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "alice", Amount: 10})
	check.Nil(t, err)

	var tooLow *BidTooLowError
	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "bob", Amount: 5})
	check.True(t, errors.As(err, &tooLow))

	_, err = eng.Apply(ctx, ActionBid, Payload{Bidder: "bob", Amount: 15})
	check.Nil(t, err)

	// 15 seconds of silence and the lot goes to bob at 15.
	clock.Advance(15 * time.Second)
	settled, err := eng.ExpireLapsed(ctx)
	check.Nil(t, err)
	check.True(t, settled)

	sold, _ := (&memTx{store}).GetTeam(ctx, lot)
	check.NotNil(t, sold.OwnerID)
	check.Equal(t, 15.0, sold.Cost)
	check.Equal(t, "bob", store.owners[0].Name)
	check.Equal(t, *sold.OwnerID, store.owners[0].ID)

	// A new lot opened from the remaining three.
	check.NotNil(t, store.state.CurrentTeamID)
	check.True(t, *store.state.CurrentTeamID != lot)
	unsold, _ := (&memTx{store}).ListUnsoldTeams(ctx)
	check.Equal(t, 3, len(unsold))
}

func TestInvalidAction(t *testing.T) {
	store := newMemStore(testTeams(1)...)
	eng := newTestEngine(store, clockwork.NewFakeClock())

	_, err := eng.Apply(context.Background(), Action("dance"), Payload{})
	check.True(t, errors.Is(err, ErrInvalidAction))
}
