package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"servana/models"
	"servana/services/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRequest() CreateBookingRequest {
	return CreateBookingRequest{
		ProviderID:     testProviderID,
		ServiceID:      testServiceID,
		CustomerID:     testCustomerID,
		Date:           testDate,
		Start:          600,
		DeliveryMethod: models.DeliveryOnline,
	}
}

func TestCreateBookingPlacesHoldAndPersistsPending(t *testing.T) {
	env := newTestEnv()

	booking, err := env.engine.CreateBooking(context.Background(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, 660, booking.End)
	assert.Equal(t, 100.0, booking.Amount)
	assert.Equal(t, testNow.Add(24*time.Hour), booking.ConfirmationDeadline)
	assert.NotEmpty(t, booking.HoldRef)

	stored, err := env.bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, stored.Status)

	assert.Equal(t, 1, env.gateway.authorized)
	assert.Equal(t, []string{notification.TemplateBookingRequested}, env.notifier.templatesFor(testProviderID))
}

func TestCreateBookingMobileAddsTravelSurcharge(t *testing.T) {
	env := newTestEnv()

	req := createRequest()
	req.DeliveryMethod = models.DeliveryMobile

	booking, err := env.engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 110.0, booking.Amount)
}

func TestCreateBookingAddOnExtendsDurationAndPrice(t *testing.T) {
	env := newTestEnv()

	req := createRequest()
	req.AddOnIDs = []string{"addon-1"}

	booking, err := env.engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 690, booking.End) // 60 + 30 minutes
	assert.Equal(t, 120.0, booking.Amount)
}

func TestCreateBookingUnknownAddOnFailsValidation(t *testing.T) {
	env := newTestEnv()

	req := createRequest()
	req.AddOnIDs = []string{"addon-nope"}

	_, err := env.engine.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
	assert.Zero(t, env.gateway.authorized)
}

func TestCreateBookingAuthorizationFailureLeavesNoRecord(t *testing.T) {
	env := newTestEnv()
	env.gateway.authorizeErr = errors.New("card declined")

	_, err := env.engine.CreateBooking(context.Background(), createRequest())
	require.Error(t, err)
	assert.Equal(t, CodePayment, CodeOf(err))
	assert.Empty(t, env.bookings.bookings)
}

func TestCreateBookingConflictIsUnavailableBeforePayment(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-busy", 600, 660))

	_, err := env.engine.CreateBooking(context.Background(), createRequest())
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.Zero(t, env.gateway.authorized)
}

func TestCreateBookingConcurrentOverlapExactlyOneSucceeds(t *testing.T) {
	env := newTestEnv()

	secondDone := make(chan error, 1)
	var once sync.Once
	env.gateway.onAuthorize = func() {
		once.Do(func() {
			// Fire a competing request for the same slot while this one
			// sits between validation and insert, then give it time to
			// reach the provider/date lock.
			go func() {
				_, err := env.engine.CreateBooking(context.Background(), createRequest())
				secondDone <- err
			}()
			time.Sleep(50 * time.Millisecond)
		})
	}

	first, err := env.engine.CreateBooking(context.Background(), createRequest())
	require.NoError(t, err)

	secondErr := <-secondDone
	require.Error(t, secondErr)
	assert.Equal(t, CodeUnavailable, CodeOf(secondErr))

	active, err := env.bookings.ListActiveByProviderDate(context.Background(), testProviderID, testDate)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)
	// The loser failed validation before reaching the gateway.
	assert.Equal(t, 1, env.gateway.authorized)
}

func TestCreateBookingBufferKeepsGapBetweenBookings(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-busy", 540, 600))

	// 10:00 starts inside the 15 minute buffer after the 9:00-10:00
	// booking; 10:15 clears it.
	req := createRequest()
	_, err := env.engine.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))

	req.Start = 615
	booking, err := env.engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 675, booking.End)
}

func TestCreateBookingOutsideHoursIsUnavailable(t *testing.T) {
	env := newTestEnv()

	req := createRequest()
	req.Start = 990 // would end 17:30, past closing

	_, err := env.engine.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestCreateBookingWithinNoticeIsUnavailable(t *testing.T) {
	env := newTestEnv()
	env.engine.Clock = fixedClock{t: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}

	_, err := env.engine.CreateBooking(context.Background(), createRequest())
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestCreateBookingNoticeOnDSTTransitionDay(t *testing.T) {
	// 2026-03-08 is the US spring-forward date: 9:00 in New York is
	// 13:00 UTC that day, not midnight EST plus nine hours.
	env := newTestEnv()
	sched := testSchedule()
	sched.Settings.Timezone = "America/New_York"
	sched.Overrides = map[string]models.DateOverride{
		"2026-03-08": {
			Date:    "2026-03-08",
			Kind:    models.OverrideCustom,
			Windows: []models.TimeWindow{{Start: 540, End: 1020}},
		},
	}
	env.schedules.schedules[testProviderID] = sched
	env.engine.Clock = fixedClock{t: time.Date(2026, 3, 7, 13, 30, 0, 0, time.UTC)}

	req := createRequest()
	req.Date = "2026-03-08"
	req.Start = 540 // 30 minutes inside the 24h notice window
	_, err := env.engine.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))

	req.Start = 615
	booking, err := env.engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 615, booking.Start)
}

func TestCreateBookingDisabledMethodIsUnavailable(t *testing.T) {
	env := newTestEnv()
	env.schedules.schedules[testProviderID].Delivery.Mobile.Enabled = false

	req := createRequest()
	req.DeliveryMethod = models.DeliveryMobile

	_, err := env.engine.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestCreateBookingUnknownMethodFailsValidation(t *testing.T) {
	env := newTestEnv()

	req := createRequest()
	req.DeliveryMethod = "carrier_pigeon"

	_, err := env.engine.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestCreateBookingInactiveServiceIsNotFound(t *testing.T) {
	env := newTestEnv()
	env.catalog.services[testServiceID].Active = false

	_, err := env.engine.CreateBooking(context.Background(), createRequest())
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestConfirmBookingCapturesAndTransitions(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))

	booking, err := env.engine.ConfirmBooking(context.Background(), "b-1", testProviderID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.Equal(t, "charge-hold-b-1", booking.ChargeRef)
	assert.Equal(t, []string{"hold-b-1"}, env.gateway.captured)

	assert.Equal(t, []string{notification.TemplateBookingConfirmed}, env.notifier.templatesFor(testCustomerID))
}

func TestConfirmBookingRevealsLocationForAtLocation(t *testing.T) {
	env := newTestEnv()
	b := pendingBooking("b-1", 600, 660)
	b.DeliveryMethod = models.DeliveryAtLocation
	env.seedBooking(b)

	booking, err := env.engine.ConfirmBooking(context.Background(), "b-1", testProviderID)
	require.NoError(t, err)
	require.NotNil(t, booking.Location)
	assert.Equal(t, "12 Rose Lane", booking.Location.Address)
}

func TestConfirmBookingTwiceIsStateConflict(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))

	_, err := env.engine.ConfirmBooking(context.Background(), "b-1", testProviderID)
	require.NoError(t, err)

	_, err = env.engine.ConfirmBooking(context.Background(), "b-1", testProviderID)
	require.Error(t, err)
	assert.Equal(t, CodeStateConflict, CodeOf(err))
	assert.Len(t, env.gateway.captured, 1)
}

func TestConfirmBookingByCustomerIsForbidden(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))

	_, err := env.engine.ConfirmBooking(context.Background(), "b-1", testCustomerID)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))
	assert.Empty(t, env.gateway.captured)
}

func TestConfirmBookingCaptureFailureStaysPending(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))
	env.gateway.captureErr = errors.New("gateway down")

	_, err := env.engine.ConfirmBooking(context.Background(), "b-1", testProviderID)
	require.Error(t, err)
	assert.Equal(t, CodePayment, CodeOf(err))

	stored, err := env.bookings.GetByID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, stored.Status)
}

func TestRejectBookingReleasesHold(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))

	booking, err := env.engine.RejectBooking(context.Background(), "b-1", testProviderID, "fully booked elsewhere")
	require.NoError(t, err)
	assert.Equal(t, models.BookingRejected, booking.Status)
	assert.Equal(t, "fully booked elsewhere", booking.RejectReason)
	assert.Equal(t, []string{"hold-b-1"}, env.gateway.released)
	assert.Equal(t, []string{notification.TemplateBookingRejected}, env.notifier.templatesFor(testCustomerID))
}

func TestConfirmAfterRejectIsStateConflict(t *testing.T) {
	env := newTestEnv()

	booking, err := env.engine.CreateBooking(context.Background(), createRequest())
	require.NoError(t, err)

	_, err = env.engine.RejectBooking(context.Background(), booking.ID, testProviderID, "no capacity")
	require.NoError(t, err)
	assert.Len(t, env.gateway.released, 1)

	_, err = env.engine.ConfirmBooking(context.Background(), booking.ID, testProviderID)
	require.Error(t, err)
	assert.Equal(t, CodeStateConflict, CodeOf(err))
	assert.Empty(t, env.gateway.captured)
}

func TestRejectConfirmedBookingIsStateConflict(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(confirmedBooking("b-1", 600, 660))

	_, err := env.engine.RejectBooking(context.Background(), "b-1", testProviderID, "")
	require.Error(t, err)
	assert.Equal(t, CodeStateConflict, CodeOf(err))
	assert.Empty(t, env.gateway.released)
}

func TestExpireOverdueBookingsSweep(t *testing.T) {
	env := newTestEnv()

	overdue1 := pendingBooking("b-1", 540, 600)
	overdue1.ConfirmationDeadline = testNow.Add(-time.Hour)
	overdue2 := pendingBooking("b-2", 690, 750)
	overdue2.ConfirmationDeadline = testNow.Add(-time.Minute)
	fresh := pendingBooking("b-3", 840, 900)
	env.seedBooking(overdue1)
	env.seedBooking(overdue2)
	env.seedBooking(fresh)

	expired, err := env.engine.ExpireOverdueBookings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, expired)
	assert.Len(t, env.gateway.released, 2)

	stored, err := env.bookings.GetByID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingExpired, stored.Status)

	stored, err = env.bookings.GetByID(context.Background(), "b-3")
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, stored.Status)
}

func TestCancelPendingReleasesWithoutRefund(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))

	booking, refund, err := env.engine.CancelBooking(context.Background(), "b-1", testCustomerID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, booking.Status)
	assert.Nil(t, refund)
	require.NotNil(t, booking.Cancellation)
	assert.Equal(t, models.ActorCustomer, booking.Cancellation.By)
	assert.Equal(t, []string{"hold-b-1"}, env.gateway.released)
	assert.Empty(t, env.gateway.refunds)

	// The provider hears about it, not the customer.
	assert.Equal(t, []string{notification.TemplateBookingCancelled}, env.notifier.templatesFor(testProviderID))
	assert.Empty(t, env.notifier.templatesFor(testCustomerID))
}

func TestCancelConfirmedFullRefund(t *testing.T) {
	env := newTestEnv()
	// Appointment is ~92 hours out, inside the 48h full-refund tier.
	env.seedBooking(confirmedBooking("b-1", 600, 660))

	booking, refund, err := env.engine.CancelBooking(context.Background(), "b-1", testCustomerID, "")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, booking.Status)
	require.NotNil(t, refund)
	assert.Equal(t, 100, refund.Percentage)
	assert.Equal(t, 100.0, refund.Amount)

	require.Len(t, env.gateway.refunds, 1)
	assert.Equal(t, refundCall{ChargeRef: "charge-b-1", Amount: 100, Currency: "usd"}, env.gateway.refunds[0])
}

func TestCancelConfirmedPartialRefund(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(confirmedBooking("b-1", 600, 660))
	// 30 hours before the appointment: partial tier.
	env.engine.Clock = fixedClock{t: time.Date(2026, 1, 4, 4, 0, 0, 0, time.UTC)}

	_, refund, err := env.engine.CancelBooking(context.Background(), "b-1", testCustomerID, "")
	require.NoError(t, err)
	require.NotNil(t, refund)
	assert.Equal(t, 50, refund.Percentage)
	assert.Equal(t, 50.0, refund.Amount)
}

func TestCancelConfirmedInsideNoRefundWindow(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(confirmedBooking("b-1", 600, 660))
	// 4 hours before the appointment.
	env.engine.Clock = fixedClock{t: time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC)}

	booking, refund, err := env.engine.CancelBooking(context.Background(), "b-1", testCustomerID, "")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, booking.Status)
	require.NotNil(t, refund)
	assert.Equal(t, 0, refund.Percentage)
	assert.Empty(t, env.gateway.refunds)
}

func TestCancelConfirmedRefundFailureKeepsBookingConfirmed(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(confirmedBooking("b-1", 600, 660))
	env.gateway.refundErr = errors.New("gateway down")

	_, _, err := env.engine.CancelBooking(context.Background(), "b-1", testCustomerID, "")
	require.Error(t, err)
	assert.Equal(t, CodePayment, CodeOf(err))

	stored, err := env.bookings.GetByID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, stored.Status)
}

func TestCancelWithoutPolicyIsPolicyMissing(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(confirmedBooking("b-1", 600, 660))
	env.policies.policies = nil

	_, _, err := env.engine.CancelBooking(context.Background(), "b-1", testCustomerID, "")
	require.Error(t, err)
	assert.Equal(t, CodePolicyMissing, CodeOf(err))
}

func TestCancelByStrangerIsForbidden(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))

	_, _, err := env.engine.CancelBooking(context.Background(), "b-1", "somebody-else", "")
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestCancelTerminalBookingIsStateConflict(t *testing.T) {
	env := newTestEnv()
	b := pendingBooking("b-1", 600, 660)
	b.Status = models.BookingRejected
	env.seedBooking(b)

	_, _, err := env.engine.CancelBooking(context.Background(), "b-1", testCustomerID, "")
	require.Error(t, err)
	assert.Equal(t, CodeStateConflict, CodeOf(err))
}

func TestRescheduleBookingMovesTime(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))

	booking, err := env.engine.RescheduleBooking(context.Background(), "b-1", testCustomerID, RescheduleRequest{
		Date:  "2026-01-06",
		Start: 540,
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-06", booking.Date)
	assert.Equal(t, 540, booking.Start)
	assert.Equal(t, 600, booking.End)
	assert.Equal(t, 1, booking.RescheduleCount)
	assert.Equal(t, models.BookingPending, booking.Status)

	assert.Equal(t, []string{notification.TemplateBookingMoved}, env.notifier.templatesFor(testProviderID))
}

func TestRescheduleSkipsOwnTimeRange(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))

	// Nudging the start within the booking's own range must not
	// trip the conflict check.
	booking, err := env.engine.RescheduleBooking(context.Background(), "b-1", testCustomerID, RescheduleRequest{
		Date:  testDate,
		Start: 615,
	})
	require.NoError(t, err)
	assert.Equal(t, 615, booking.Start)
}

func TestRescheduleByProviderIsForbidden(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))

	_, err := env.engine.RescheduleBooking(context.Background(), "b-1", testProviderID, RescheduleRequest{
		Date:  "2026-01-06",
		Start: 540,
	})
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestRescheduleDisallowedByPolicy(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))
	env.policies.policies["wellness"].AllowRescheduling = false

	_, err := env.engine.RescheduleBooking(context.Background(), "b-1", testCustomerID, RescheduleRequest{
		Date:  "2026-01-06",
		Start: 540,
	})
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestRescheduleCapEnforced(t *testing.T) {
	env := newTestEnv()
	b := pendingBooking("b-1", 600, 660)
	b.RescheduleCount = 2
	env.seedBooking(b)

	_, err := env.engine.RescheduleBooking(context.Background(), "b-1", testCustomerID, RescheduleRequest{
		Date:  "2026-01-06",
		Start: 540,
	})
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestRescheduleConflictIsUnavailable(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))
	env.seedBooking(confirmedBooking("b-2", 765, 825))

	_, err := env.engine.RescheduleBooking(context.Background(), "b-1", testCustomerID, RescheduleRequest{
		Date:  testDate,
		Start: 765,
	})
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestGetBookingLimitedToParties(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-1", 600, 660))

	booking, err := env.engine.GetBooking(context.Background(), "b-1", testCustomerID)
	require.NoError(t, err)
	assert.Equal(t, "b-1", booking.ID)

	_, err = env.engine.GetBooking(context.Background(), "b-1", "somebody-else")
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))

	_, err = env.engine.GetBooking(context.Background(), "b-missing", testCustomerID)
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}
