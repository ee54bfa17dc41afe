package engine

import (
	"errors"
	"fmt"
)

// Domain errors reported to callers as structured failures. Anything else
// coming out of the engine is a storage/internal error.
var (
	// ErrInactiveAuction rejects actions that need an open lot or the
	// active flag.
	ErrInactiveAuction = errors.New("no active auction")

	// ErrNoLotsAvailable rejects start/next when every team is sold.
	ErrNoLotsAvailable = errors.New("no teams available for auction")

	// ErrNoLotToResume rejects resume when no lot is selected.
	ErrNoLotToResume = errors.New("no team to resume auction for")

	// ErrInvalidAction rejects unrecognized action names.
	ErrInvalidAction = errors.New("invalid action")
)

// BidTooLowError rejects a bid that does not strictly exceed the current
// bid. Ties are not permitted; strict increase is what guarantees monotonic
// progress on a lot.
type BidTooLowError struct {
	CurrentBid float64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must exceed current bid of %.2f", e.CurrentBid)
}

// IsDomainError reports whether err belongs to the engine's domain taxonomy,
// as opposed to a storage or internal failure.
func IsDomainError(err error) bool {
	var tooLow *BidTooLowError
	return errors.Is(err, ErrInactiveAuction) ||
		errors.Is(err, ErrNoLotsAvailable) ||
		errors.Is(err, ErrNoLotToResume) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.As(err, &tooLow)
}
