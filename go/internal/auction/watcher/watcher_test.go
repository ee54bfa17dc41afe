package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/peterldowns/testy/check"

	"github.com/bracketpool/calcutta/go/internal/models"
)

// scriptedAPI serves a mutable view and records sold calls.
type scriptedAPI struct {
	view      *AuctionView
	fetchErr  error
	soldErr   error
	soldCalls int
}

func (s *scriptedAPI) FetchState(ctx context.Context) (*AuctionView, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	view := *s.view
	return &view, nil
}

func (s *scriptedAPI) MarkSold(ctx context.Context) error {
	s.soldCalls++
	return s.soldErr
}

func activeView(teamID string, bids ...models.Bid) *AuctionView {
	view := &AuctionView{
		IsActive:      true,
		CurrentTeamID: &teamID,
		Bids:          bids,
		CurrentTeam:   &models.Team{Name: "Duke", Region: "East", Seed: 1},
	}
	if len(bids) > 0 {
		last := bids[len(bids)-1]
		view.CurrentBid = last.Amount
		view.CurrentBidder = &last.Bidder
		t := last.Timestamp
		view.LastBidTime = &t
	}
	return view
}

func newTestWatcher(t *testing.T, api AuctionAPI, clock clockwork.Clock) (*Watcher, *EventLog) {
	t.Helper()
	eventLog, err := OpenEventLog(filepath.Join(t.TempDir(), "events.json"))
	check.Nil(t, err)
	w := New(api, clock, eventLog, WithWarnInterval(5*time.Second))
	return w, eventLog
}

func messages(eventLog *EventLog) []string {
	var out []string
	for _, e := range eventLog.Entries() {
		out = append(out, e.Message)
	}
	return out
}

func TestTick_AnnouncesLotAndBids(t *testing.T) {
	clock := clockwork.NewFakeClock()
	api := &scriptedAPI{view: activeView("t1")}
	w, eventLog := newTestWatcher(t, api, clock)
	ctx := context.Background()

	w.Tick(ctx)
	check.Equal(t, []string{"Now up: Duke (East, 1 seed)"}, messages(eventLog))

	api.view = activeView("t1", models.Bid{Bidder: "alice", Amount: 10, Timestamp: clock.Now()})
	w.Tick(ctx)
	check.Equal(t, []string{
		"Now up: Duke (East, 1 seed)",
		"alice bid 10",
	}, messages(eventLog))

	// Only the new tail of the ledger is narrated.
	api.view = activeView("t1",
		models.Bid{Bidder: "alice", Amount: 10, Timestamp: clock.Now()},
		models.Bid{Bidder: "bob", Amount: 15, Timestamp: clock.Now()},
		models.Bid{Bidder: "carol", Amount: 20, Timestamp: clock.Now()},
	)
	w.Tick(ctx)
	check.Equal(t, 4, len(eventLog.Entries()))
	check.Equal(t, "carol bid 20", eventLog.Entries()[3].Message)
}

func TestTick_WarningLadderAndAutoSold(t *testing.T) {
	clock := clockwork.NewFakeClock()
	bid := models.Bid{Bidder: "alice", Amount: 10, Timestamp: clock.Now()}
	api := &scriptedAPI{view: activeView("t1", bid)}
	w, eventLog := newTestWatcher(t, api, clock)
	ctx := context.Background()

	w.Tick(ctx)
	check.Equal(t, 0, api.soldCalls)

	clock.Advance(5 * time.Second)
	w.Tick(ctx)
	clock.Advance(2 * time.Second)
	w.Tick(ctx) // still inside the second window, no repeat
	clock.Advance(3 * time.Second)
	w.Tick(ctx)

	msgs := messages(eventLog)
	check.Equal(t, "Going once!", msgs[len(msgs)-2])
	check.Equal(t, "Going twice!", msgs[len(msgs)-1])
	check.Equal(t, 0, api.soldCalls)

	clock.Advance(5 * time.Second)
	w.Tick(ctx)
	check.Equal(t, 1, api.soldCalls)

	// Guard holds: the lapsed view keeps arriving but sold fires once.
	w.Tick(ctx)
	check.Equal(t, 1, api.soldCalls)
}

func TestTick_AutoSoldRetriesAfterFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	bid := models.Bid{Bidder: "alice", Amount: 10, Timestamp: clock.Now()}
	api := &scriptedAPI{view: activeView("t1", bid), soldErr: errors.New("boom")}
	w, _ := newTestWatcher(t, api, clock)
	ctx := context.Background()

	w.Tick(ctx)
	clock.Advance(15 * time.Second)
	w.Tick(ctx)
	check.Equal(t, 1, api.soldCalls)

	// The guard was released, so the next tick retries and succeeds.
	api.soldErr = nil
	w.Tick(ctx)
	check.Equal(t, 2, api.soldCalls)
	w.Tick(ctx)
	check.Equal(t, 2, api.soldCalls)
}

func TestTick_NewBidResetsWarnings(t *testing.T) {
	clock := clockwork.NewFakeClock()
	first := models.Bid{Bidder: "alice", Amount: 10, Timestamp: clock.Now()}
	api := &scriptedAPI{view: activeView("t1", first)}
	w, eventLog := newTestWatcher(t, api, clock)
	ctx := context.Background()

	w.Tick(ctx)
	clock.Advance(6 * time.Second)
	w.Tick(ctx) // Going once!

	second := models.Bid{Bidder: "bob", Amount: 15, Timestamp: clock.Now()}
	api.view = activeView("t1", first, second)
	w.Tick(ctx)

	// Fresh epoch: the ladder restarts from the new bid.
	clock.Advance(6 * time.Second)
	w.Tick(ctx)

	msgs := messages(eventLog)
	warnings := 0
	for _, m := range msgs {
		if m == "Going once!" {
			warnings++
		}
	}
	check.Equal(t, 2, warnings)
	check.Equal(t, 0, api.soldCalls)
}

func TestTick_LotTransitionNarratesSale(t *testing.T) {
	clock := clockwork.NewFakeClock()
	bid := models.Bid{Bidder: "alice", Amount: 25, Timestamp: clock.Now()}
	api := &scriptedAPI{view: activeView("t1", bid)}
	w, eventLog := newTestWatcher(t, api, clock)
	ctx := context.Background()

	w.Tick(ctx)

	next := activeView("t2")
	next.CurrentTeam = &models.Team{Name: "Gonzaga", Region: "West", Seed: 4}
	api.view = next
	w.Tick(ctx)

	msgs := messages(eventLog)
	check.Equal(t, "Sold Duke to alice for 25", msgs[len(msgs)-2])
	check.Equal(t, "Now up: Gonzaga (West, 4 seed)", msgs[len(msgs)-1])
}

func TestTick_CompletionAndPause(t *testing.T) {
	clock := clockwork.NewFakeClock()
	bid := models.Bid{Bidder: "alice", Amount: 25, Timestamp: clock.Now()}
	api := &scriptedAPI{view: activeView("t1", bid)}
	w, eventLog := newTestWatcher(t, api, clock)
	ctx := context.Background()

	w.Tick(ctx)

	// Pause: lot survives, no sold entry.
	paused := activeView("t1", bid)
	paused.IsActive = false
	api.view = paused
	w.Tick(ctx)
	msgs := messages(eventLog)
	check.Equal(t, "Auction paused", msgs[len(msgs)-1])

	api.view = activeView("t1", bid)
	w.Tick(ctx)
	msgs = messages(eventLog)
	check.Equal(t, "Auction resumed", msgs[len(msgs)-1])

	// Completion: lot gone, the final sale is narrated exactly once.
	api.view = &AuctionView{IsActive: false}
	w.Tick(ctx)
	msgs = messages(eventLog)
	check.Equal(t, "Sold Duke to alice for 25", msgs[len(msgs)-2])
	check.Equal(t, "Auction complete", msgs[len(msgs)-1])
}

func TestTick_FreshStartClearsLog(t *testing.T) {
	clock := clockwork.NewFakeClock()
	api := &scriptedAPI{view: &AuctionView{IsActive: false}}
	w, eventLog := newTestWatcher(t, api, clock)
	ctx := context.Background()

	check.Nil(t, eventLog.Append(EntrySystem, "stale commentary", clock.Now()))
	w.Tick(ctx)

	api.view = activeView("t1")
	w.Tick(ctx)

	check.Equal(t, []string{
		"Auction started",
		"Now up: Duke (East, 1 seed)",
	}, messages(eventLog))
}

func TestTick_PollFailureKeepsState(t *testing.T) {
	clock := clockwork.NewFakeClock()
	api := &scriptedAPI{view: activeView("t1")}
	w, eventLog := newTestWatcher(t, api, clock)
	ctx := context.Background()

	w.Tick(ctx)
	before := len(eventLog.Entries())

	api.fetchErr = errors.New("connection refused")
	w.Tick(ctx)
	check.Equal(t, before, len(eventLog.Entries()))

	// Recovery picks up where the watcher left off, no duplicate lot entry.
	api.fetchErr = nil
	w.Tick(ctx)
	check.Equal(t, before, len(eventLog.Entries()))
}

func TestCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	bid := models.Bid{Bidder: "alice", Amount: 10, Timestamp: clock.Now()}
	api := &scriptedAPI{view: activeView("t1", bid)}
	w, _ := newTestWatcher(t, api, clock)

	remaining, ok := w.Countdown(api.view)
	check.True(t, ok)
	check.Equal(t, 5*time.Second, remaining)

	clock.Advance(3 * time.Second)
	remaining, ok = w.Countdown(api.view)
	check.True(t, ok)
	check.Equal(t, 2*time.Second, remaining)

	// The display wraps each warning window.
	clock.Advance(4 * time.Second)
	remaining, ok = w.Countdown(api.view)
	check.True(t, ok)
	check.Equal(t, 3*time.Second, remaining)

	_, ok = w.Countdown(activeView("t1"))
	check.False(t, ok)
}

func TestEventLog_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")

	eventLog, err := OpenEventLog(path)
	check.Nil(t, err)
	at := time.Date(2026, 3, 19, 19, 0, 0, 0, time.UTC)
	check.Nil(t, eventLog.Append(EntryBid, "alice bid 10", at))
	check.Nil(t, eventLog.Append(EntryWarning, "Going once!", at.Add(5*time.Second)))

	reopened, err := OpenEventLog(path)
	check.Nil(t, err)
	check.Equal(t, 2, len(reopened.Entries()))
	check.Equal(t, EntryBid, reopened.Entries()[0].Kind)
	check.Equal(t, "alice bid 10", reopened.Entries()[0].Message)

	check.Nil(t, reopened.Clear())
	again, err := OpenEventLog(path)
	check.Nil(t, err)
	check.Equal(t, 0, len(again.Entries()))
}
