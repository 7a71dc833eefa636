// Package booking implements the reservation lifecycle for campaign
// sessions: slot admission, the pending/confirmed/cancelled state
// machine, session cancellation cascades and the donation completion
// transaction that ties reservations to inventory and donor
// eligibility.
package booking

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel failures surfaced to callers.  Handlers translate these into
// HTTP responses; nothing in this package retries on its own.
var (
	// ErrNotFound reports an unknown reservation, session or bank.
	ErrNotFound = errors.New("not found")
	// ErrEligibilityNotMet reports a donor still inside their
	// deferral window.  Returned wrapped in an EligibilityError
	// carrying the next eligible date.
	ErrEligibilityNotMet = errors.New("eligibility not met")
	// ErrDuplicateActiveReservation reports that the donor already
	// holds an active reservation overlapping the target session.
	ErrDuplicateActiveReservation = errors.New("duplicate active reservation")
	// ErrSlotUnavailable reports that slot admission was denied,
	// either because the slot is full, the slot does not exist, or
	// the admission wait was exceeded.
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrInvalidState reports an operation applied in a state that
	// does not permit it, such as completing a pending reservation.
	ErrInvalidState = errors.New("invalid state")
	// ErrAlreadyTerminal reports a transition attempted out of a
	// cancelled or donation-completed reservation.
	ErrAlreadyTerminal = errors.New("already terminal")
	// ErrCompletionFailed reports that the donation completion
	// transaction was rolled back; no partial state is visible.
	ErrCompletionFailed = errors.New("donation completion failed")
	// ErrBloodTypeRequired reports a completion attempt for an
	// UNKNOWN-typed reservation without a screened blood type.
	ErrBloodTypeRequired = errors.New("screened blood type required")
)

// EligibilityError carries the donor's next eligible date so booking
// failures can explain the specific reason to the caller.
type EligibilityError struct {
	NextEligible time.Time
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("eligibility not met: next eligible on %s", e.NextEligible.Format("2006-01-02"))
}

// Unwrap lets errors.Is match ErrEligibilityNotMet.
func (e *EligibilityError) Unwrap() error { return ErrEligibilityNotMet }
