package models

import "time"

// Booking lifecycle states. A booking leaves pending_confirmation at
// most once (to confirmed, rejected or expired); only pending or
// confirmed bookings may become cancelled.
const (
	BookingPending   = "pending_confirmation"
	BookingConfirmed = "confirmed"
	BookingRejected  = "rejected"
	BookingExpired   = "expired"
	BookingCancelled = "cancelled"
)

// Cancellation actors.
const (
	ActorCustomer = "customer"
	ActorProvider = "provider"
)

// Cancellation records who cancelled a booking and why.
type Cancellation struct {
	By     string    `bson:"by" json:"by"` // "customer" or "provider"
	Reason string    `bson:"reason,omitempty" json:"reason,omitempty"`
	At     time.Time `bson:"at" json:"at"`
}

// Booking represents a customer's reservation of a provider's time.
// Start and End are minutes from midnight on Date, in the provider's
// local timezone.
type Booking struct {
	ID                   string            `bson:"id" json:"id"`
	ProviderID           string            `bson:"provider_id" json:"providerId"`
	ServiceID            string            `bson:"service_id" json:"serviceId"`
	CustomerID           string            `bson:"customer_id" json:"customerId"`
	Date                 string            `bson:"date" json:"date"` // "2006-01-02"
	Start                int               `bson:"start" json:"start"`
	End                  int               `bson:"end" json:"end"`
	DeliveryMethod       string            `bson:"delivery_method" json:"deliveryMethod"`
	Status               string            `bson:"status" json:"status"`
	ConfirmationDeadline time.Time         `bson:"confirmation_deadline" json:"confirmationDeadline"`
	HoldRef              string            `bson:"hold_ref,omitempty" json:"-"`   // payment authorization reference
	ChargeRef            string            `bson:"charge_ref,omitempty" json:"-"` // set once the hold is captured
	Amount               float64           `bson:"amount" json:"amount"`
	Currency             string            `bson:"currency" json:"currency"`
	AddOnIDs             []string          `bson:"addon_ids,omitempty" json:"addOnIds,omitempty"`
	RescheduleCount      int               `bson:"reschedule_count,omitempty" json:"rescheduleCount,omitempty"`
	RejectReason         string            `bson:"reject_reason,omitempty" json:"rejectReason,omitempty"`
	Cancellation         *Cancellation     `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	Location             *ProviderLocation `bson:"location,omitempty" json:"location,omitempty"` // populated on confirmation for at_location bookings
	CreatedAt            time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time         `bson:"updated_at" json:"updatedAt"`
}

// Active reports whether the booking still claims its time range.
func (b *Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// PartyRole returns the role the given actor plays on this booking, or
// an empty string when the actor is neither party.
func (b *Booking) PartyRole(actorID string) string {
	switch actorID {
	case b.CustomerID:
		return ActorCustomer
	case b.ProviderID:
		return ActorProvider
	}
	return ""
}

// StartsAt resolves the booking's absolute start time in the given
// provider-local location.
func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", b.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	// Component construction keeps the stored wall-clock time on DST
	// transition days.
	return time.Date(day.Year(), day.Month(), day.Day(), b.Start/60, b.Start%60, 0, 0, loc), nil
}
