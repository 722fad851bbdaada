package credits

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Reservation errors surfaced to callers.
var (
	// ErrNoActiveSubscription indicates the account has no active balance
	// record. Distinct from running out of credits.
	ErrNoActiveSubscription = errors.New("credits: no active subscription")
	// ErrInvalidQuantity indicates a non-positive reservation quantity.
	ErrInvalidQuantity = errors.New("credits: quantity must be positive")
	// ErrAlreadySettled indicates Settle or Refund was called twice on the
	// same reservation.
	ErrAlreadySettled = errors.New("credits: reservation already settled")
)

// InsufficientCreditsError reports a rejected reservation, carrying the
// amounts needed to render a useful message to the end user.
type InsufficientCreditsError struct {
	Feature   string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("credits: insufficient credits for %s: required %s, available %s",
		e.Feature, e.Required, e.Available)
}

// ReservationFailedError wraps a store error that persisted through the
// retry budget. It is terminal for the attempt; the caller may try again.
type ReservationFailedError struct {
	Attempts int
	Err      error
}

func (e *ReservationFailedError) Error() string {
	return fmt.Sprintf("credits: reservation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ReservationFailedError) Unwrap() error {
	return e.Err
}
