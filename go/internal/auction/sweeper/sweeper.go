package sweeper

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/bracketpool/calcutta/go/internal/auction/engine"
)

// resyncInterval bounds how long the sweeper sleeps without a settlement
// deadline. Missed wakes (or another process placing a bid) are picked up on
// the next resync.
const resyncInterval = 30 * time.Second

// Sweeper enforces auto-settlement server side. It arms a one-shot timer for
// the current lot's deadline and calls the engine's lapse sweep when it
// fires. The sweep itself revalidates under the row lock, so a stale timer
// firing after a newer bid is harmless.
type Sweeper struct {
	engine *engine.Engine
	clock  clockwork.Clock
	wakeCh chan struct{}
}

func NewSweeper(eng *engine.Engine, clock clockwork.Clock) *Sweeper {
	return &Sweeper{
		engine: eng,
		clock:  clock,
		wakeCh: make(chan struct{}, 1),
	}
}

// Wake prods the sweeper to recompute its deadline. Called after any action
// that moves the countdown. Never blocks; a pending wake coalesces.
func (s *Sweeper) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	log.Info().Dur("resync_interval", resyncInterval).Msg("sweeper started")

	for {
		duration := s.nextWait(ctx)
		timer := s.clock.NewTimer(duration)

		select {
		case <-ctx.Done():
			stopAndDrainTimer(timer)
			log.Info().Msg("sweeper stopped")
			return ctx.Err()
		case <-s.wakeCh:
			stopAndDrainTimer(timer)
		case <-timer.Chan():
			settled, err := s.engine.ExpireLapsed(ctx)
			if err != nil {
				log.Error().Err(err).Msg("sweeper: lapse sweep failed")
			} else if settled {
				log.Info().Msg("sweeper: settled lapsed lot")
			}
		}
	}
}

// nextWait computes how long to sleep before the next sweep. With no
// standing bid there is no deadline, so the sweeper just resyncs.
func (s *Sweeper) nextWait(ctx context.Context) time.Duration {
	snap, err := s.engine.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sweeper: failed to load state")
		return resyncInterval
	}
	if snap.ExpiresAt == nil {
		return resyncInterval
	}
	duration := snap.ExpiresAt.Sub(s.clock.Now())
	if duration < 0 {
		return 0
	}
	return duration
}

// stopAndDrainTimer stops a timer and drains its channel so a fired timer
// does not leak a stuck send.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
