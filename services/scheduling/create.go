package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	catalogRepo "servana/database/repository/catalog"
	"servana/models"
	"servana/services/notification"
	"servana/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// slotLockTTL bounds how long a crashed writer can hold the
// provider/date lock.
const slotLockTTL = 15 * time.Second

// lockProviderDate serializes the conflict check and the write that
// follows it for one provider and date. Two overlapping requests must
// not both pass validation. With a shared cache configured the lock is
// a redis key, so it holds across instances; otherwise a process-local
// mutex stands in.
func (se *DefaultSchedulingEngine) lockProviderDate(ctx context.Context, providerID, date string) (func(), error) {
	if se.Cache == nil {
		v, _ := se.slotLocks.LoadOrStore(providerID+":"+date, &sync.Mutex{})
		mu := v.(*sync.Mutex)
		mu.Lock()
		return mu.Unlock, nil
	}
	key := "bookinglock:" + providerID + ":" + date
	for {
		ok, err := se.Cache.SetNX(ctx, key, "1", slotLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire booking lock for %s on %s: %w", providerID, date, err)
		}
		if ok {
			return func() { se.Cache.Del(context.Background(), key) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// validDeliveryMethod rejects anything but the three known methods.
func validDeliveryMethod(method string) bool {
	switch method {
	case models.DeliveryOnline, models.DeliveryAtLocation, models.DeliveryMobile:
		return true
	}
	return false
}

// validateRequestedTime checks a concrete date+range against the
// availability model: the day must be open, the range must fit inside
// one window, honor the notice and advance constraints, and not collide
// with another active booking. Returns an UNAVAILABLE error with the
// human-readable reason on failure.
func (se *DefaultSchedulingEngine) validateRequestedTime(
	ctx context.Context,
	schedule *models.Schedule,
	providerID, date string,
	start, end int,
	skipBookingIDs ...string,
) error {
	loc, err := time.LoadLocation(schedule.Settings.Timezone)
	if err != nil {
		return NewError(CodeValidation, "schedule timezone %q is invalid", schedule.Settings.Timezone)
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return NewError(CodeValidation, "date %q is not an ISO date", date)
	}
	if start < 0 || end > minutesPerDay || start >= end {
		return NewError(CodeValidation, "requested time %d:%d is invalid", start, end)
	}

	windows, open := schedule.EffectiveWindows(date, day.Weekday())
	if !open {
		return NewError(CodeUnavailable, "the provider is not available on %s", date)
	}
	contained := false
	for _, w := range windows {
		if w.Start <= start && end <= w.End {
			contained = true
			break
		}
	}
	if !contained {
		return NewError(CodeUnavailable, "the requested time falls outside the provider's hours on %s", date)
	}

	now := se.now()
	startsAt := instantAt(day, start)
	if startsAt.Before(now.Add(time.Duration(schedule.Settings.MinNoticeHours) * time.Hour)) {
		return NewError(CodeUnavailable, "the requested time is within the provider's minimum notice of %dh", schedule.Settings.MinNoticeHours)
	}
	if startsAt.After(now.Add(time.Duration(schedule.Settings.AdvanceBookingDays) * 24 * time.Hour)) {
		return NewError(CodeUnavailable, "the requested time is beyond the provider's booking horizon of %d days", schedule.Settings.AdvanceBookingDays)
	}

	existing, err := se.Bookings.ListActiveByProviderDate(ctx, providerID, date)
	if err != nil {
		return fmt.Errorf("failed to load bookings for %s: %w", date, err)
	}
	if conflict := FindConflict(start, end, existing, schedule.Settings.BufferMinutes, skipBookingIDs...); conflict != nil {
		return NewError(CodeUnavailable, "the requested time overlaps an existing booking from %s to %s",
			minutesToClock(conflict.Start), minutesToClock(conflict.End))
	}
	return nil
}

// CreateBooking validates the request, places a manual-capture payment
// hold and persists the booking as pending confirmation. A gateway
// failure means no booking record exists. The conflict check and the
// insert run under a per-provider/date lock, so of two concurrent
// overlapping requests exactly one succeeds.
func (se *DefaultSchedulingEngine) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	logger := utils.GetLogger()

	if req.CustomerID == "" {
		return nil, NewError(CodeValidation, "booking is missing a customer id")
	}
	if !validDeliveryMethod(req.DeliveryMethod) {
		return nil, NewError(CodeValidation, "delivery method %q is not supported", req.DeliveryMethod)
	}

	service, err := se.Catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrNotFound) {
			return nil, NewError(CodeNotFound, "service %s does not exist", req.ServiceID)
		}
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	if !service.Active || service.ProviderID != req.ProviderID {
		return nil, NewError(CodeNotFound, "service %s is not offered by provider %s", req.ServiceID, req.ProviderID)
	}

	schedule, err := se.Schedules.GetByProviderID(ctx, req.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule == nil || !schedule.AllowsService(req.ServiceID) {
		return nil, NewError(CodeUnavailable, "the provider does not take bookings for this service")
	}
	if !schedule.MethodEnabled(req.DeliveryMethod) {
		return nil, NewError(CodeUnavailable, "the provider does not offer %s delivery", req.DeliveryMethod)
	}

	unlock, err := se.lockProviderDate(ctx, req.ProviderID, req.Date)
	if err != nil {
		return nil, err
	}
	defer unlock()

	end := req.Start + bookingDuration(service, req.AddOnIDs)
	if err := se.validateRequestedTime(ctx, schedule, req.ProviderID, req.Date, req.Start, end); err != nil {
		return nil, err
	}

	quote, err := QuotePrice(service, schedule, req.DeliveryMethod, req.AddOnIDs)
	if err != nil {
		return nil, err
	}

	now := se.now()
	bookingID := uuid.New().String()

	holdRef, err := se.Gateway.Authorize(ctx, models.AuthorizationRequest{
		CustomerID:     req.CustomerID,
		Amount:         quote.Total,
		Currency:       quote.Currency,
		IdempotencyKey: "booking-" + bookingID,
		Description:    fmt.Sprintf("%s on %s", service.Name, req.Date),
		Metadata: map[string]string{
			"bookingId":  bookingID,
			"providerId": req.ProviderID,
			"serviceId":  req.ServiceID,
		},
	})
	if err != nil {
		return nil, WrapError(CodePayment, err, "payment authorization failed: %v", err)
	}

	booking := &models.Booking{
		ID:                   bookingID,
		ProviderID:           req.ProviderID,
		ServiceID:            req.ServiceID,
		CustomerID:           req.CustomerID,
		Date:                 req.Date,
		Start:                req.Start,
		End:                  end,
		DeliveryMethod:       req.DeliveryMethod,
		Status:               models.BookingPending,
		ConfirmationDeadline: now.Add(se.ConfirmationWindow),
		HoldRef:              holdRef,
		Amount:               quote.Total,
		Currency:             quote.Currency,
		AddOnIDs:             req.AddOnIDs,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := se.Bookings.Create(ctx, booking); err != nil {
		// The hold would lapse on its own, but try to free it now.
		if relErr := se.Gateway.Release(ctx, holdRef); relErr != nil {
			logger.Error("failed to release hold after persistence failure",
				zap.String("bookingID", bookingID), zap.Error(relErr))
		}
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	se.invalidateSlots(ctx, req.ProviderID)
	se.notify(ctx, req.ProviderID, notification.TemplateBookingRequested, map[string]string{
		"bookingId": bookingID,
		"date":      req.Date,
		"time":      minutesToClock(req.Start),
		"deadline":  booking.ConfirmationDeadline.Format(time.RFC3339),
	})

	logger.Info("booking created",
		zap.String("bookingID", bookingID),
		zap.String("providerID", req.ProviderID),
		zap.String("date", req.Date),
		zap.Float64("amount", quote.Total))
	return booking, nil
}
