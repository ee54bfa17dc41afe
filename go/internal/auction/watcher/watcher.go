package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPollInterval is how often the watcher refreshes state.
	DefaultPollInterval = time.Second

	// DefaultWarnInterval is the warning interval W: going once at W after
	// the latest bid, going twice at 2W, sold at 3W.
	DefaultWarnInterval = 5 * time.Second
)

// Watcher is the auctioneer's room controller. It polls the server, narrates
// what it sees into the event log, counts down from the latest bid, and
// calls the lot sold when the countdown fully lapses.
//
// The watcher holds no authority of its own: every observation is recomputed
// from served state, and the sold it sends is validated server side like any
// other action. Running zero, one, or many watchers changes responsiveness,
// not correctness.
type Watcher struct {
	api      AuctionAPI
	clock    clockwork.Clock
	eventLog *EventLog

	pollInterval time.Duration
	warnInterval time.Duration

	prev *AuctionView

	// Per-bid-epoch flags. An epoch is one (lot, bid count) pair; any new
	// bid or lot resets all three.
	announcedOnce  bool
	announcedTwice bool
	autoSoldSent   bool
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

func WithWarnInterval(d time.Duration) Option {
	return func(w *Watcher) { w.warnInterval = d }
}

// New creates a watcher.
func New(api AuctionAPI, clock clockwork.Clock, eventLog *EventLog, opts ...Option) *Watcher {
	w := &Watcher{
		api:          api,
		clock:        clock,
		eventLog:     eventLog,
		pollInterval: DefaultPollInterval,
		warnInterval: DefaultWarnInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled. A failed poll keeps the previous
// observations and retries on the next tick at the same interval.
func (w *Watcher) Run(ctx context.Context) error {
	log.Info().
		Dur("poll_interval", w.pollInterval).
		Dur("warn_interval", w.warnInterval).
		Msg("watcher started")

	ticker := w.clock.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("watcher stopped")
			return ctx.Err()
		case <-ticker.Chan():
			w.Tick(ctx)
		}
	}
}

// Tick performs one poll-and-react cycle.
func (w *Watcher) Tick(ctx context.Context) {
	view, err := w.api.FetchState(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("poll failed, retrying next tick")
		return
	}

	w.observe(view)
	w.countdown(ctx, view)
	w.prev = view
}

// observe narrates state transitions into the event log.
func (w *Watcher) observe(view *AuctionView) {
	now := w.clock.Now()

	if w.freshStart(view) {
		// New auction: the old room's commentary is stale.
		if err := w.eventLog.Clear(); err != nil {
			log.Warn().Err(err).Msg("failed to clear event log")
		}
		w.logEntry(EntrySystem, "Auction started", now)
	}

	switch {
	case w.lotChanged(view):
		w.closePrevLot(now)
		if view.CurrentTeam != nil {
			w.logEntry(EntryLot, fmt.Sprintf("Now up: %s (%s, %d seed)",
				view.CurrentTeam.Name, view.CurrentTeam.Region, view.CurrentTeam.Seed), now)
		}
		w.resetEpoch()

	case w.bidCountGrew(view):
		for _, bid := range view.Bids[len(w.prev.Bids):] {
			w.logEntry(EntryBid, fmt.Sprintf("%s bid %.0f", bid.Bidder, bid.Amount), now)
		}
		w.resetEpoch()
	}

	if w.prev != nil && w.prev.IsActive && !view.IsActive {
		if view.CurrentTeamID == nil {
			w.closePrevLot(now)
			w.logEntry(EntrySystem, "Auction complete", now)
		} else {
			w.logEntry(EntrySystem, "Auction paused", now)
		}
	}
	if w.prev != nil && !w.prev.IsActive && view.IsActive && !w.freshStart(view) {
		w.logEntry(EntrySystem, "Auction resumed", now)
	}
}

// countdown runs the warning ladder against the latest bid and fires the
// sold action when the full 3W window lapses.
func (w *Watcher) countdown(ctx context.Context, view *AuctionView) {
	if !view.IsActive || view.CurrentTeamID == nil ||
		view.CurrentBidder == nil || view.LastBidTime == nil {
		return
	}

	elapsed := w.clock.Now().Sub(*view.LastBidTime)
	now := w.clock.Now()

	switch {
	case elapsed >= 3*w.warnInterval:
		if w.autoSoldSent {
			return
		}
		w.autoSoldSent = true
		if err := w.api.MarkSold(ctx); err != nil {
			// Release the guard so the next tick retries.
			w.autoSoldSent = false
			log.Warn().Err(err).Msg("auto-sold failed, will retry")
			return
		}
		log.Info().
			Str("bidder", *view.CurrentBidder).
			Float64("amount", view.CurrentBid).
			Msg("lot auto-sold")

	case elapsed >= 2*w.warnInterval:
		if !w.announcedTwice {
			w.announcedTwice = true
			w.logEntry(EntryWarning, "Going twice!", now)
		}

	case elapsed >= w.warnInterval:
		if !w.announcedOnce {
			w.announcedOnce = true
			w.logEntry(EntryWarning, "Going once!", now)
		}
	}
}

// Countdown reports the seconds remaining in the current warning window:
// W - (elapsed mod W). ok is false when no countdown is running.
func (w *Watcher) Countdown(view *AuctionView) (remaining time.Duration, ok bool) {
	if !view.IsActive || view.CurrentBidder == nil || view.LastBidTime == nil {
		return 0, false
	}
	elapsed := w.clock.Now().Sub(*view.LastBidTime)
	if elapsed < 0 {
		elapsed = 0
	}
	return w.warnInterval - elapsed%w.warnInterval, true
}

// freshStart reports whether this view is the first sight of a new auction:
// active with a lot, after an idle state that had no lot.
func (w *Watcher) freshStart(view *AuctionView) bool {
	if w.prev == nil {
		return false
	}
	return view.IsActive && !w.prev.IsActive && w.prev.CurrentTeamID == nil
}

func (w *Watcher) lotChanged(view *AuctionView) bool {
	if w.prev == nil {
		return view.CurrentTeamID != nil
	}
	prev, cur := w.prev.CurrentTeamID, view.CurrentTeamID
	switch {
	case prev == nil && cur == nil:
		return false
	case prev == nil || cur == nil:
		return cur != nil
	default:
		return *prev != *cur
	}
}

func (w *Watcher) bidCountGrew(view *AuctionView) bool {
	return w.prev != nil && len(view.Bids) > len(w.prev.Bids)
}

// closePrevLot logs the outcome of the lot we were watching, if any.
func (w *Watcher) closePrevLot(now time.Time) {
	if w.prev == nil || w.prev.CurrentTeam == nil {
		return
	}
	if w.prev.CurrentBidder != nil {
		w.logEntry(EntrySold, fmt.Sprintf("Sold %s to %s for %.0f",
			w.prev.CurrentTeam.Name, *w.prev.CurrentBidder, w.prev.CurrentBid), now)
	} else {
		w.logEntry(EntrySystem, fmt.Sprintf("Passed on %s", w.prev.CurrentTeam.Name), now)
	}
}

func (w *Watcher) resetEpoch() {
	w.announcedOnce = false
	w.announcedTwice = false
	w.autoSoldSent = false
}

func (w *Watcher) logEntry(kind EntryKind, message string, at time.Time) {
	if err := w.eventLog.Append(kind, message, at); err != nil {
		log.Warn().Err(err).Msg("failed to append event log entry")
	}
	log.Info().Str("kind", string(kind)).Msg(message)
}
