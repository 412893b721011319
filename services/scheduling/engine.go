package scheduling

import (
	"context"
	"sync"
	"time"

	bookingRepo "servana/database/repository/booking"
	catalogRepo "servana/database/repository/catalog"
	policyRepo "servana/database/repository/policy"
	scheduleRepo "servana/database/repository/schedule"
	"servana/models"
	"servana/services/notification"
	"servana/services/payment"

	"github.com/go-redis/redis/v8"
)

// CreateBookingRequest is a customer's request to book a service at a
// specific time. Start is minutes from midnight on Date in the
// provider's timezone; the end is derived from the service duration.
type CreateBookingRequest struct {
	ProviderID     string   `json:"providerId" binding:"required"`
	ServiceID      string   `json:"serviceId" binding:"required"`
	CustomerID     string   `json:"customerId"`
	Date           string   `json:"date" binding:"required"`
	Start          int      `json:"start"`
	DeliveryMethod string   `json:"deliveryMethod" binding:"required"`
	AddOnIDs       []string `json:"addOnIds,omitempty"`
}

// RescheduleRequest moves an existing booking to a new date and start.
type RescheduleRequest struct {
	Date  string `json:"date" binding:"required"`
	Start int    `json:"start"`
}

// SchedulingEngine is the booking engine surface consumed by handlers
// and the expiry worker.
type SchedulingEngine interface {
	GetAvailableSlots(ctx context.Context, query models.SlotQuery) ([]models.AvailableDay, error)
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, actorID string) (*models.Booking, error)
	RejectBooking(ctx context.Context, bookingID, actorID, reason string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, actorID, reason string) (*models.Booking, *models.RefundAssessment, error)
	RescheduleBooking(ctx context.Context, bookingID, actorID string, req RescheduleRequest) (*models.Booking, error)
	ExpireOverdueBookings(ctx context.Context) (int, error)
	GetBooking(ctx context.Context, bookingID, actorID string) (*models.Booking, error)
	ListProviderBookings(ctx context.Context, providerID, date string) ([]models.Booking, error)
	ListProviderServices(ctx context.Context, providerID string) ([]models.Service, error)
	SetCancellationPolicy(ctx context.Context, policy models.CancellationPolicy) (*models.CancellationPolicy, error)
}

// DefaultSchedulingEngine is the production booking engine.
type DefaultSchedulingEngine struct {
	Schedules scheduleRepo.ScheduleRepository
	Bookings  bookingRepo.BookingRepository
	Catalog   catalogRepo.CatalogRepository
	Policies  policyRepo.PolicyRepository
	Gateway   payment.Gateway
	Notifier  notification.Notifier
	Clock     Clock
	Cache     *redis.Client

	// slotLocks backs the per-provider/date booking lock when no shared
	// cache is configured.
	slotLocks sync.Map

	// ConfirmationWindow is how long a provider has to act on a
	// pending booking before it expires.
	ConfirmationWindow time.Duration
	// SlotCacheTTL bounds staleness of cached slot queries.
	SlotCacheTTL time.Duration
}

func (se *DefaultSchedulingEngine) now() time.Time {
	if se.Clock != nil {
		return se.Clock.Now()
	}
	return time.Now()
}
