package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/bracketpool/calcutta/go/internal/auction/events"
	"github.com/bracketpool/calcutta/go/internal/models"
)

// Engine is the auction state machine. Every action runs as a single
// transaction that locks the state row, validates against the loaded state,
// mutates, bumps the version, and records events for the outbox relay. Two
// concurrent actions therefore serialize on the row lock and the loser
// revalidates against the winner's writes.
type Engine struct {
	store        Store
	clock        clockwork.Clock
	warnInterval time.Duration
	randIntN     func(n int) int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand overrides the lot selection source. Tests use this to make
// selection deterministic.
func WithRand(fn func(n int) int) Option {
	return func(e *Engine) {
		e.randIntN = fn
	}
}

// NewEngine creates an auction engine. warnInterval is the warning interval
// W; a lot auto-settles once 3W elapses after its latest bid.
func NewEngine(store Store, clock clockwork.Clock, warnInterval time.Duration, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		clock:        clock,
		warnInterval: warnInterval,
		randIntN:     rand.IntN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WarnInterval returns the configured warning interval W.
func (e *Engine) WarnInterval() time.Duration {
	return e.warnInterval
}

// Apply executes a named auction action and returns the resulting state.
func (e *Engine) Apply(ctx context.Context, action Action, p Payload) (*Result, error) {
	var res *Result
	err := e.store.RunTx(ctx, func(tx Tx) error {
		st, err := tx.StateForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("lock auction state: %w", err)
		}

		now := e.clock.Now()
		switch action {
		case ActionStart:
			res, err = e.start(ctx, tx, st, now)
		case ActionNext:
			res, err = e.next(ctx, tx, st, now)
		case ActionBid:
			res, err = e.bid(ctx, tx, st, p, now)
		case ActionSold:
			res, err = e.sold(ctx, tx, st, now)
		case ActionStop:
			res, err = e.stop(ctx, tx, st, now)
		case ActionResume:
			res, err = e.resume(ctx, tx, st, now)
		default:
			return fmt.Errorf("%w: %q", ErrInvalidAction, action)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("action", string(action)).
		Int64("version", res.State.Version).
		Msg("auction action applied")
	return res, nil
}

// start activates the auction and opens the first lot. The bid ledger and
// lot fields are cleared regardless of what a previous session left behind.
func (e *Engine) start(ctx context.Context, tx Tx, st *models.AuctionState, now time.Time) (*Result, error) {
	team, remaining, err := e.pickLot(ctx, tx)
	if err != nil {
		return nil, err
	}

	st.IsActive = true
	e.openLot(st, team)
	updated, err := tx.UpdateState(ctx, st)
	if err != nil {
		return nil, err
	}
	if err := e.emitLotOpened(ctx, tx, team, remaining, now); err != nil {
		return nil, err
	}
	return &Result{State: updated, RemainingTeams: &remaining}, nil
}

// next abandons the current lot without a sale and opens a fresh one.
func (e *Engine) next(ctx context.Context, tx Tx, st *models.AuctionState, now time.Time) (*Result, error) {
	if !st.IsActive {
		return nil, ErrInactiveAuction
	}
	return e.pass(ctx, tx, st, now)
}

// pass records the current lot (if any) as abandoned and opens a fresh one.
// The abandoned team goes back to the unsold pool.
func (e *Engine) pass(ctx context.Context, tx Tx, st *models.AuctionState, now time.Time) (*Result, error) {
	if st.CurrentTeamID != nil {
		passed, err := tx.GetTeam(ctx, *st.CurrentTeamID)
		if err != nil {
			return nil, err
		}
		unsold, err := tx.ListUnsoldTeams(ctx)
		if err != nil {
			return nil, err
		}
		if err := tx.InsertEvent(ctx, events.EventTypeLotPassed, events.LotPassedPayload{
			TeamID:    passed.ID.String(),
			TeamName:  passed.Name,
			Remaining: len(unsold),
			PassedAt:  now,
		}); err != nil {
			return nil, err
		}
	}

	team, remaining, err := e.pickLot(ctx, tx)
	if err != nil {
		return nil, err
	}

	e.openLot(st, team)
	updated, err := tx.UpdateState(ctx, st)
	if err != nil {
		return nil, err
	}
	if err := e.emitLotOpened(ctx, tx, team, remaining, now); err != nil {
		return nil, err
	}
	return &Result{State: updated, RemainingTeams: &remaining}, nil
}

// bid records a strictly higher bid on the open lot and restarts the
// countdown clock.
func (e *Engine) bid(ctx context.Context, tx Tx, st *models.AuctionState, p Payload, now time.Time) (*Result, error) {
	if !st.IsActive || st.CurrentTeamID == nil {
		return nil, ErrInactiveAuction
	}
	if p.Amount <= st.CurrentBid {
		return nil, &BidTooLowError{CurrentBid: st.CurrentBid}
	}

	bidder := p.Bidder
	st.CurrentBid = p.Amount
	st.CurrentBidder = &bidder
	st.LastBidTime = &now
	st.Bids = append(st.Bids, models.Bid{
		Bidder:    bidder,
		Amount:    p.Amount,
		Timestamp: now,
	})

	updated, err := tx.UpdateState(ctx, st)
	if err != nil {
		return nil, err
	}
	if err := tx.InsertEvent(ctx, events.EventTypeBidPlaced, events.BidPlacedPayload{
		TeamID:   st.CurrentTeamID.String(),
		Bidder:   bidder,
		Amount:   p.Amount,
		BidCount: len(updated.Bids),
		BidAt:    now,
	}); err != nil {
		return nil, err
	}
	return &Result{State: updated}, nil
}

// sold settles the open lot to the standing bidder. Settlement stays valid
// while the auction is paused: a lot that was mid-sale when the auctioneer
// hit stop can still be closed out. With no bid on the table, sold is the
// skip: the lot is abandoned unowned and the next one opens.
func (e *Engine) sold(ctx context.Context, tx Tx, st *models.AuctionState, now time.Time) (*Result, error) {
	if st.CurrentTeamID == nil {
		return nil, ErrInactiveAuction
	}
	if !st.HasStandingBid() {
		return e.pass(ctx, tx, st, now)
	}
	return e.settle(ctx, tx, st, now)
}

// settle assigns the lot to the standing bidder, creating the owner record
// on first sale, then advances to the next lot or completes the auction.
func (e *Engine) settle(ctx context.Context, tx Tx, st *models.AuctionState, now time.Time) (*Result, error) {
	owner, err := tx.GetOwnerByName(ctx, *st.CurrentBidder)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		owner, err = tx.CreateOwner(ctx, *st.CurrentBidder)
		if err != nil {
			return nil, err
		}
	}

	team, err := tx.AssignOwner(ctx, *st.CurrentTeamID, owner.ID, st.CurrentBid)
	if err != nil {
		return nil, err
	}

	unsold, err := tx.ListUnsoldTeams(ctx)
	if err != nil {
		return nil, err
	}
	remaining := len(unsold)

	if err := tx.InsertEvent(ctx, events.EventTypeLotSold, events.LotSoldPayload{
		TeamID:    team.ID.String(),
		TeamName:  team.Name,
		OwnerID:   owner.ID.String(),
		OwnerName: owner.Name,
		Amount:    st.CurrentBid,
		Remaining: remaining,
		SoldAt:    now,
	}); err != nil {
		return nil, err
	}

	if remaining == 0 {
		st.IsActive = false
		e.clearLot(st)
		updated, err := tx.UpdateState(ctx, st)
		if err != nil {
			return nil, err
		}
		totalSold, err := tx.CountSoldTeams(ctx)
		if err != nil {
			return nil, err
		}
		if err := tx.InsertEvent(ctx, events.EventTypeAuctionCompleted, events.AuctionCompletedPayload{
			CompletedAt: now,
			TotalSold:   totalSold,
		}); err != nil {
			return nil, err
		}
		log.Info().Msg("auction complete, all teams sold")
		return &Result{State: updated, RemainingTeams: &remaining}, nil
	}

	nextTeam := unsold[e.randIntN(remaining)]
	e.openLot(st, &nextTeam)
	updated, err := tx.UpdateState(ctx, st)
	if err != nil {
		return nil, err
	}
	if err := e.emitLotOpened(ctx, tx, &nextTeam, remaining, now); err != nil {
		return nil, err
	}
	return &Result{State: updated, RemainingTeams: &remaining}, nil
}

// stop pauses the auction. The lot and its bids stay in place so resume can
// continue where the room left off.
func (e *Engine) stop(ctx context.Context, tx Tx, st *models.AuctionState, now time.Time) (*Result, error) {
	if !st.IsActive {
		return nil, ErrInactiveAuction
	}

	st.IsActive = false
	updated, err := tx.UpdateState(ctx, st)
	if err != nil {
		return nil, err
	}
	if err := tx.InsertEvent(ctx, events.EventTypeAuctionPaused, events.AuctionPausedPayload{
		PausedAt: now,
		Reason:   "stopped by auctioneer",
	}); err != nil {
		return nil, err
	}
	return &Result{State: updated}, nil
}

// resume reactivates a paused auction on its preserved lot. With a standing
// bid the countdown restarts from now rather than charging bidders for time
// spent paused.
func (e *Engine) resume(ctx context.Context, tx Tx, st *models.AuctionState, now time.Time) (*Result, error) {
	if st.CurrentTeamID == nil {
		return nil, ErrNoLotToResume
	}

	st.IsActive = true
	if st.HasStandingBid() {
		st.LastBidTime = &now
	}
	updated, err := tx.UpdateState(ctx, st)
	if err != nil {
		return nil, err
	}
	if err := tx.InsertEvent(ctx, events.EventTypeAuctionResumed, events.AuctionResumedPayload{
		ResumedAt: now,
	}); err != nil {
		return nil, err
	}
	return &Result{State: updated}, nil
}

// Restart wipes all auction progress: owners are deleted, teams return to
// the unsold pool, and the state resets to inactive with an empty ledger.
func (e *Engine) Restart(ctx context.Context) (*Result, error) {
	var res *Result
	err := e.store.RunTx(ctx, func(tx Tx) error {
		st, err := tx.StateForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("lock auction state: %w", err)
		}

		if err := tx.ResetAllTeams(ctx); err != nil {
			return err
		}
		if err := tx.DeleteAllOwners(ctx); err != nil {
			return err
		}

		st.IsActive = false
		e.clearLot(st)
		updated, err := tx.UpdateState(ctx, st)
		if err != nil {
			return err
		}
		if err := tx.InsertEvent(ctx, events.EventTypeAuctionRestarted, events.AuctionRestartedPayload{
			RestartedAt: e.clock.Now(),
		}); err != nil {
			return err
		}
		res = &Result{State: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("version", res.State.Version).Msg("auction restarted")
	return res, nil
}

// ExpireLapsed settles the open lot if its countdown has fully lapsed
// (3W since the latest bid). It reports whether a settlement happened and is
// idempotent: once a sweep settles a lot, concurrent or repeated sweeps see
// fresh state and do nothing.
func (e *Engine) ExpireLapsed(ctx context.Context) (bool, error) {
	settled := false
	err := e.store.RunTx(ctx, func(tx Tx) error {
		st, err := tx.StateForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("lock auction state: %w", err)
		}

		if !st.IsActive || st.CurrentTeamID == nil || !st.HasStandingBid() || st.LastBidTime == nil {
			return nil
		}
		now := e.clock.Now()
		if now.Sub(*st.LastBidTime) < 3*e.warnInterval {
			return nil
		}

		if _, err := e.settle(ctx, tx, st, now); err != nil {
			return err
		}
		settled = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if settled {
		log.Info().Msg("lapsed lot auto-settled")
	}
	return settled, nil
}

// Snapshot returns the current state with the lot's team resolved and the
// auto-settlement deadline computed. It takes no row lock.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	err := e.store.RunTx(ctx, func(tx Tx) error {
		st, err := tx.State(ctx)
		if err != nil {
			return err
		}
		snap = &Snapshot{State: st}
		if st.CurrentTeamID != nil {
			team, err := tx.GetTeam(ctx, *st.CurrentTeamID)
			if err != nil {
				return err
			}
			snap.CurrentTeam = team
		}
		if st.IsActive && st.HasStandingBid() && st.LastBidTime != nil {
			deadline := st.LastBidTime.Add(3 * e.warnInterval)
			snap.ExpiresAt = &deadline
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// pickLot selects a random unsold team. remaining counts the pool after the
// pick is opened, so it excludes the picked team.
func (e *Engine) pickLot(ctx context.Context, tx Tx) (*models.Team, int, error) {
	unsold, err := tx.ListUnsoldTeams(ctx)
	if err != nil {
		return nil, 0, err
	}
	if len(unsold) == 0 {
		return nil, 0, ErrNoLotsAvailable
	}
	team := unsold[e.randIntN(len(unsold))]
	return &team, len(unsold) - 1, nil
}

// openLot points the state at a fresh lot with a clean ledger. LastBidTime
// stays nil until the first bid so the countdown does not run on a bidless
// lot.
func (e *Engine) openLot(st *models.AuctionState, team *models.Team) {
	id := team.ID
	st.CurrentTeamID = &id
	st.CurrentBid = 0
	st.CurrentBidder = nil
	st.Bids = []models.Bid{}
	st.LastBidTime = nil
}

func (e *Engine) clearLot(st *models.AuctionState) {
	st.CurrentTeamID = nil
	st.CurrentBid = 0
	st.CurrentBidder = nil
	st.Bids = []models.Bid{}
	st.LastBidTime = nil
}

func (e *Engine) emitLotOpened(ctx context.Context, tx Tx, team *models.Team, remaining int, now time.Time) error {
	return tx.InsertEvent(ctx, events.EventTypeLotOpened, events.LotOpenedPayload{
		TeamID:    team.ID.String(),
		TeamName:  team.Name,
		Region:    team.Region,
		Seed:      team.Seed,
		Remaining: remaining,
		OpenedAt:  now,
	})
}
