package bookingRepo

import (
	"context"
	"errors"
	"time"

	"servana/models"
)

// ErrStatusPrecondition is returned by UpdateStatusIf when the booking
// no longer has the expected status. Callers surface it as a state
// conflict; it is the guard against two racing terminal transitions.
var ErrStatusPrecondition = errors.New("booking status precondition failed")

// ErrNotFound is returned when no booking exists for the given id.
var ErrNotFound = errors.New("booking not found")

// BookingRepository persists booking records.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	// ListActiveByProviderDate returns pending and confirmed bookings
	// for one provider on one date.
	ListActiveByProviderDate(ctx context.Context, providerID, date string) ([]models.Booking, error)
	// ListOverduePending returns pending bookings whose confirmation
	// deadline lies before the given cutoff.
	ListOverduePending(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
	// UpdateStatusIf performs a conditional status transition: the
	// update applies only while the stored status equals fromStatus.
	// Extra fields in patch are set in the same write. Returns
	// ErrStatusPrecondition when the condition did not hold.
	UpdateStatusIf(ctx context.Context, bookingID, fromStatus, toStatus string, patch map[string]interface{}) error
}
