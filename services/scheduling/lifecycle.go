package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "servana/database/repository/booking"
	catalogRepo "servana/database/repository/catalog"
	"servana/models"
	"servana/services/notification"
	"servana/utils"

	"go.uber.org/zap"
)

// notify is fire-and-forget: delivery failures are logged and never
// affect booking state.
func (se *DefaultSchedulingEngine) notify(ctx context.Context, recipientID, templateID string, vars map[string]string) {
	if se.Notifier == nil {
		return
	}
	if err := se.Notifier.Send(ctx, recipientID, templateID, vars); err != nil {
		utils.GetLogger().Warn("notification failed",
			zap.String("recipient", recipientID), zap.String("template", templateID), zap.Error(err))
	}
}

func (se *DefaultSchedulingEngine) loadBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := se.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, NewError(CodeNotFound, "booking %s does not exist", bookingID)
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return booking, nil
}

// GetBooking returns a booking to one of its parties.
func (se *DefaultSchedulingEngine) GetBooking(ctx context.Context, bookingID, actorID string) (*models.Booking, error) {
	booking, err := se.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PartyRole(actorID) == "" {
		return nil, NewError(CodeForbidden, "you are not a party on this booking")
	}
	return booking, nil
}

// ListProviderBookings returns a provider's active bookings for a date.
func (se *DefaultSchedulingEngine) ListProviderBookings(ctx context.Context, providerID, date string) ([]models.Booking, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, NewError(CodeValidation, "date %q is not an ISO date", date)
	}
	return se.Bookings.ListActiveByProviderDate(ctx, providerID, date)
}

// ConfirmBooking captures the payment hold and moves the booking from
// pending to confirmed. The capture is idempotent at the gateway (same
// idempotency key), and the status write is conditional, so a racing
// second caller fails with STATE_CONFLICT instead of double-charging.
// A capture failure leaves the booking pending and retryable.
func (se *DefaultSchedulingEngine) ConfirmBooking(ctx context.Context, bookingID, actorID string) (*models.Booking, error) {
	logger := utils.GetLogger()

	booking, err := se.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorID != booking.ProviderID {
		return nil, NewError(CodeForbidden, "only the provider can confirm a booking")
	}
	if booking.Status != models.BookingPending {
		return nil, NewError(CodeStateConflict, "booking is %s, not pending confirmation", booking.Status)
	}

	chargeRef, err := se.Gateway.Capture(ctx, booking.HoldRef)
	if err != nil {
		return nil, WrapError(CodePayment, err, "payment capture failed: %v", err)
	}

	patch := map[string]interface{}{"charge_ref": chargeRef}
	if booking.DeliveryMethod == models.DeliveryAtLocation {
		if schedule, schedErr := se.Schedules.GetByProviderID(ctx, booking.ProviderID); schedErr == nil && schedule != nil {
			if loc := schedule.Delivery.AtLocation.Location; loc != nil {
				patch["location"] = loc
				booking.Location = loc
			}
		}
	}
	if err := se.Bookings.UpdateStatusIf(ctx, bookingID, models.BookingPending, models.BookingConfirmed, patch); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusPrecondition) {
			logger.Error("confirm lost the status race after capture; the idempotent capture prevents a double charge",
				zap.String("bookingID", bookingID))
			return nil, NewError(CodeStateConflict, "booking was concurrently transitioned out of pending")
		}
		return nil, err
	}
	booking.Status = models.BookingConfirmed
	booking.ChargeRef = chargeRef

	vars := map[string]string{
		"bookingId": bookingID,
		"date":      booking.Date,
		"time":      minutesToClock(booking.Start),
	}
	se.notify(ctx, booking.CustomerID, notification.TemplateBookingConfirmed, vars)
	se.notify(ctx, booking.ProviderID, notification.TemplateBookingConfirmed, vars)

	logger.Info("booking confirmed", zap.String("bookingID", bookingID), zap.String("chargeRef", chargeRef))
	return booking, nil
}

// releaseHold gives the gateway a chance to free the authorization.
// Failures are logged only: an orphaned hold lapses at the gateway, a
// stuck booking record does not.
func (se *DefaultSchedulingEngine) releaseHold(ctx context.Context, booking *models.Booking) {
	if booking.HoldRef == "" {
		return
	}
	if err := se.Gateway.Release(ctx, booking.HoldRef); err != nil {
		utils.GetLogger().Warn("best-effort hold release failed",
			zap.String("bookingID", booking.ID), zap.String("holdRef", booking.HoldRef), zap.Error(err))
	}
}

// RejectBooking declines a pending booking and releases the hold.
func (se *DefaultSchedulingEngine) RejectBooking(ctx context.Context, bookingID, actorID, reason string) (*models.Booking, error) {
	booking, err := se.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorID != booking.ProviderID {
		return nil, NewError(CodeForbidden, "only the provider can reject a booking")
	}
	if booking.Status != models.BookingPending {
		return nil, NewError(CodeStateConflict, "booking is %s, not pending confirmation", booking.Status)
	}

	patch := map[string]interface{}{"reject_reason": reason}
	if err := se.Bookings.UpdateStatusIf(ctx, bookingID, models.BookingPending, models.BookingRejected, patch); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusPrecondition) {
			return nil, NewError(CodeStateConflict, "booking was concurrently transitioned out of pending")
		}
		return nil, err
	}
	booking.Status = models.BookingRejected
	booking.RejectReason = reason

	se.releaseHold(ctx, booking)
	se.invalidateSlots(ctx, booking.ProviderID)
	se.notify(ctx, booking.CustomerID, notification.TemplateBookingRejected, map[string]string{
		"bookingId": bookingID,
		"date":      booking.Date,
		"reason":    reason,
	})

	utils.GetLogger().Info("booking rejected", zap.String("bookingID", bookingID), zap.String("reason", reason))
	return booking, nil
}

// expireBooking is the system-driven counterpart of reject.
func (se *DefaultSchedulingEngine) expireBooking(ctx context.Context, booking *models.Booking) error {
	if err := se.Bookings.UpdateStatusIf(ctx, booking.ID, models.BookingPending, models.BookingExpired, nil); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusPrecondition) {
			return NewError(CodeStateConflict, "booking was concurrently transitioned out of pending")
		}
		return err
	}
	booking.Status = models.BookingExpired

	se.releaseHold(ctx, booking)
	se.invalidateSlots(ctx, booking.ProviderID)
	se.notify(ctx, booking.CustomerID, notification.TemplateBookingExpired, map[string]string{
		"bookingId": booking.ID,
		"date":      booking.Date,
	})
	return nil
}

// ExpireOverdueBookings sweeps pending bookings whose confirmation
// deadline has passed and expires each one. Deadlines are evaluated
// lazily: nothing schedules an expiry per booking, the worker calls
// this periodically. Returns how many bookings were expired.
func (se *DefaultSchedulingEngine) ExpireOverdueBookings(ctx context.Context) (int, error) {
	logger := utils.GetLogger()
	now := se.now()

	overdue, err := se.Bookings.ListOverduePending(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue bookings: %w", err)
	}

	expired := 0
	for i := range overdue {
		b := overdue[i]
		if err := se.expireBooking(ctx, &b); err != nil {
			// Losing the race to a concurrent confirm/reject is fine.
			if CodeOf(err) == CodeStateConflict {
				continue
			}
			logger.Error("failed to expire booking", zap.String("bookingID", b.ID), zap.Error(err))
			continue
		}
		expired++
	}
	if expired > 0 {
		logger.Info("expired overdue bookings", zap.Int("count", expired))
	}
	return expired, nil
}

// resolvePolicy finds the cancellation policy for a booking's service
// category.
func (se *DefaultSchedulingEngine) resolvePolicy(ctx context.Context, booking *models.Booking) (*models.CancellationPolicy, *models.Service, error) {
	service, err := se.Catalog.GetService(ctx, booking.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrNotFound) {
			return nil, nil, NewError(CodePolicyMissing, "service %s no longer exists; cannot resolve a cancellation policy", booking.ServiceID)
		}
		return nil, nil, fmt.Errorf("failed to load service: %w", err)
	}
	policy, err := se.Policies.GetByCategory(ctx, service.Category)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cancellation policy: %w", err)
	}
	if policy == nil {
		return nil, nil, NewError(CodePolicyMissing, "no cancellation policy configured for category %q", service.Category)
	}
	return policy, service, nil
}

func (se *DefaultSchedulingEngine) bookingStartsAt(ctx context.Context, booking *models.Booking) (time.Time, error) {
	schedule, err := se.Schedules.GetByProviderID(ctx, booking.ProviderID)
	if err != nil || schedule == nil {
		// Fall back to UTC when the schedule is gone; the refund tiers
		// operate on hour granularity.
		return booking.StartsAt(time.UTC)
	}
	loc, err := time.LoadLocation(schedule.Settings.Timezone)
	if err != nil {
		return booking.StartsAt(time.UTC)
	}
	return booking.StartsAt(loc)
}

// CancelBooking cancels a pending or confirmed booking on behalf of one
// of its parties. Pending bookings release the hold; confirmed bookings
// refund the captured charge per the cancellation policy. The refund
// assessment is returned for confirmed cancellations.
func (se *DefaultSchedulingEngine) CancelBooking(ctx context.Context, bookingID, actorID, reason string) (*models.Booking, *models.RefundAssessment, error) {
	logger := utils.GetLogger()

	booking, err := se.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	role := booking.PartyRole(actorID)
	if role == "" {
		return nil, nil, NewError(CodeForbidden, "only the customer or the provider can cancel this booking")
	}

	now := se.now()
	cancellation := &models.Cancellation{By: role, Reason: reason, At: now}
	patch := map[string]interface{}{"cancellation": cancellation}

	switch booking.Status {
	case models.BookingPending:
		if err := se.Bookings.UpdateStatusIf(ctx, bookingID, models.BookingPending, models.BookingCancelled, patch); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusPrecondition) {
				return nil, nil, NewError(CodeStateConflict, "booking was concurrently transitioned out of pending")
			}
			return nil, nil, err
		}
		booking.Status = models.BookingCancelled
		booking.Cancellation = cancellation
		se.releaseHold(ctx, booking)
		se.invalidateSlots(ctx, booking.ProviderID)
		se.notifyCancelled(ctx, booking, role)
		logger.Info("pending booking cancelled", zap.String("bookingID", bookingID), zap.String("by", role))
		return booking, nil, nil

	case models.BookingConfirmed:
		policy, _, err := se.resolvePolicy(ctx, booking)
		if err != nil {
			return nil, nil, err
		}
		startsAt, err := se.bookingStartsAt(ctx, booking)
		if err != nil {
			return nil, nil, NewError(CodeValidation, "booking carries an unparseable date %q", booking.Date)
		}
		refund := CalculateRefund(*policy, startsAt, booking.Amount, now)

		// Refund before the status write: a gateway failure leaves the
		// booking confirmed and the call retryable.
		if refund.Amount > 0 {
			if err := se.Gateway.Refund(ctx, booking.ChargeRef, refund.Amount, booking.Currency); err != nil {
				return nil, nil, WrapError(CodePayment, err, "refund failed: %v", err)
			}
		}
		if err := se.Bookings.UpdateStatusIf(ctx, bookingID, models.BookingConfirmed, models.BookingCancelled, patch); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusPrecondition) {
				return nil, nil, NewError(CodeStateConflict, "booking was concurrently transitioned out of confirmed")
			}
			return nil, nil, err
		}
		booking.Status = models.BookingCancelled
		booking.Cancellation = cancellation
		se.invalidateSlots(ctx, booking.ProviderID)
		se.notifyCancelled(ctx, booking, role)
		logger.Info("confirmed booking cancelled",
			zap.String("bookingID", bookingID), zap.String("by", role),
			zap.Int("refundPercentage", refund.Percentage), zap.Float64("refundAmount", refund.Amount))
		return booking, &refund, nil

	default:
		return nil, nil, NewError(CodeStateConflict, "booking is %s and can no longer be cancelled", booking.Status)
	}
}

// notifyCancelled tells the party that did not cancel.
func (se *DefaultSchedulingEngine) notifyCancelled(ctx context.Context, booking *models.Booking, cancelledBy string) {
	recipient := booking.CustomerID
	if cancelledBy == models.ActorCustomer {
		recipient = booking.ProviderID
	}
	se.notify(ctx, recipient, notification.TemplateBookingCancelled, map[string]string{
		"bookingId": booking.ID,
		"date":      booking.Date,
		"time":      minutesToClock(booking.Start),
		"by":        cancelledBy,
	})
}

// RescheduleBooking moves a pending or confirmed booking to a new time,
// subject to the policy's rescheduling rules. Only the customer can
// reschedule; providers reject or cancel instead.
func (se *DefaultSchedulingEngine) RescheduleBooking(ctx context.Context, bookingID, actorID string, req RescheduleRequest) (*models.Booking, error) {
	booking, err := se.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorID != booking.CustomerID {
		return nil, NewError(CodeForbidden, "only the customer can reschedule a booking")
	}
	if booking.Status != models.BookingPending && booking.Status != models.BookingConfirmed {
		return nil, NewError(CodeStateConflict, "booking is %s and can no longer be rescheduled", booking.Status)
	}

	policy, service, err := se.resolvePolicy(ctx, booking)
	if err != nil {
		return nil, err
	}
	startsAt, err := se.bookingStartsAt(ctx, booking)
	if err != nil {
		return nil, NewError(CodeValidation, "booking carries an unparseable date %q", booking.Date)
	}
	eligibility := CheckRescheduleEligibility(*policy, startsAt, booking.RescheduleCount, se.now())
	if !eligibility.Eligible {
		return nil, NewError(CodeUnavailable, "cannot reschedule: %s", eligibility.Reason)
	}

	schedule, err := se.Schedules.GetByProviderID(ctx, booking.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule == nil {
		return nil, NewError(CodeUnavailable, "the provider no longer has a schedule")
	}

	unlock, err := se.lockProviderDate(ctx, booking.ProviderID, req.Date)
	if err != nil {
		return nil, err
	}
	defer unlock()

	newEnd := req.Start + bookingDuration(service, booking.AddOnIDs)
	if err := se.validateRequestedTime(ctx, schedule, booking.ProviderID, req.Date, req.Start, newEnd, booking.ID); err != nil {
		return nil, err
	}

	patch := map[string]interface{}{
		"date":             req.Date,
		"start":            req.Start,
		"end":              newEnd,
		"reschedule_count": booking.RescheduleCount + 1,
	}
	if err := se.Bookings.UpdateStatusIf(ctx, bookingID, booking.Status, booking.Status, patch); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusPrecondition) {
			return nil, NewError(CodeStateConflict, "booking was concurrently transitioned")
		}
		return nil, err
	}
	booking.Date = req.Date
	booking.Start = req.Start
	booking.End = newEnd
	booking.RescheduleCount++

	se.invalidateSlots(ctx, booking.ProviderID)
	se.notify(ctx, booking.ProviderID, notification.TemplateBookingMoved, map[string]string{
		"bookingId": bookingID,
		"date":      req.Date,
		"time":      minutesToClock(req.Start),
	})

	utils.GetLogger().Info("booking rescheduled",
		zap.String("bookingID", bookingID), zap.String("date", req.Date), zap.Int("start", req.Start))
	return booking, nil
}
