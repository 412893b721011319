package notification

import "context"

// Template ids used by the booking engine.
const (
	TemplateBookingRequested = "booking_requested"
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateBookingRejected  = "booking_rejected"
	TemplateBookingExpired   = "booking_expired"
	TemplateBookingCancelled = "booking_cancelled"
	TemplateBookingMoved     = "booking_rescheduled"
)

// Notifier sends a templated message to a recipient. It is
// fire-and-forget from the booking engine's perspective: failures are
// logged by callers and never block a state transition.
type Notifier interface {
	Send(ctx context.Context, recipientID, templateID string, vars map[string]string) error
}
