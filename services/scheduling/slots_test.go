package scheduling

import (
	"context"
	"testing"
	"time"

	"servana/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotQuery() models.SlotQuery {
	return models.SlotQuery{
		ProviderID: testProviderID,
		ServiceID:  testServiceID,
		FromDate:   testDate,
		ToDate:     testDate,
	}
}

func slotStarts(day models.AvailableDay) []int {
	starts := make([]int, 0, len(day.Slots))
	for _, s := range day.Slots {
		starts = append(starts, s.Start)
	}
	return starts
}

func TestGetAvailableSlotsWalksWindowWithBuffer(t *testing.T) {
	env := newTestEnv()

	days, err := env.engine.GetAvailableSlots(context.Background(), slotQuery())
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, testDate, days[0].Date)

	// 60 minute service stepped by duration+buffer through 9:00-17:00.
	assert.Equal(t, []int{540, 615, 690, 765, 840, 915}, slotStarts(days[0]))
	assert.Equal(t, "9:00 AM - 10:00 AM", days[0].Slots[0].Label)
	assert.Equal(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), days[0].Slots[0].StartsAt)
}

func TestGetAvailableSlotsExcludesConflicts(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(pendingBooking("b-busy", 600, 660))

	days, err := env.engine.GetAvailableSlots(context.Background(), slotQuery())
	require.NoError(t, err)
	require.Len(t, days, 1)

	// The 10:15 slot collides with the booking's occupied range plus
	// buffer; the 9:00 slot ends exactly where the booking starts and
	// survives.
	assert.Equal(t, []int{540, 690, 765, 840, 915}, slotStarts(days[0]))
}

func TestGetAvailableSlotsIgnoresTerminalBookings(t *testing.T) {
	env := newTestEnv()
	cancelled := pendingBooking("b-gone", 600, 660)
	cancelled.Status = models.BookingCancelled
	env.seedBooking(cancelled)

	days, err := env.engine.GetAvailableSlots(context.Background(), slotQuery())
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Len(t, days[0].Slots, 6)
}

func TestGetAvailableSlotsOmitsClosedDays(t *testing.T) {
	env := newTestEnv()

	query := slotQuery()
	query.FromDate = "2026-01-03" // Saturday
	query.ToDate = "2026-01-05"   // Monday

	days, err := env.engine.GetAvailableSlots(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, testDate, days[0].Date)
}

func TestGetAvailableSlotsHonorsMinimumNotice(t *testing.T) {
	env := newTestEnv()
	// Sunday noon: with 24h notice, Monday slots before noon drop out.
	env.engine.Clock = fixedClock{t: time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)}

	days, err := env.engine.GetAvailableSlots(context.Background(), slotQuery())
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, []int{765, 840, 915}, slotStarts(days[0]))
}

func TestGetAvailableSlotsHonorsBookingHorizon(t *testing.T) {
	env := newTestEnv()

	query := slotQuery()
	query.FromDate = "2026-03-02"
	query.ToDate = "2026-03-02"

	days, err := env.engine.GetAvailableSlots(context.Background(), query)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestGetAvailableSlotsBlockedOverride(t *testing.T) {
	env := newTestEnv()
	env.schedules.schedules[testProviderID].Overrides = map[string]models.DateOverride{
		testDate: {Date: testDate, Kind: models.OverrideBlocked},
	}

	days, err := env.engine.GetAvailableSlots(context.Background(), slotQuery())
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestGetAvailableSlotsCustomOverrideReplacesTemplate(t *testing.T) {
	env := newTestEnv()
	env.schedules.schedules[testProviderID].Overrides = map[string]models.DateOverride{
		testDate: {
			Date:    testDate,
			Kind:    models.OverrideCustom,
			Windows: []models.TimeWindow{{Start: 780, End: 900}},
		},
	}

	days, err := env.engine.GetAvailableSlots(context.Background(), slotQuery())
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, []int{780}, slotStarts(days[0]))
}

func TestGetAvailableSlotsOnDSTTransitionDay(t *testing.T) {
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
	// 30 minutes before the 24h notice boundary of the 9:00 slot on
	// the spring-forward date.
	env.engine.Clock = fixedClock{t: time.Date(2026, 3, 7, 13, 30, 0, 0, time.UTC)}

	query := slotQuery()
	query.FromDate = "2026-03-08"
	query.ToDate = "2026-03-08"

	days, err := env.engine.GetAvailableSlots(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, days, 1)

	starts := slotStarts(days[0])
	assert.NotContains(t, starts, 540) // 9:00 EDT falls inside the notice window
	require.Equal(t, 615, starts[0])
	// 10:15 in New York is UTC-4 on the transition day.
	assert.True(t, days[0].Slots[0].StartsAt.Equal(time.Date(2026, 3, 8, 14, 15, 0, 0, time.UTC)))
}

func TestListProviderServicesReturnsActiveCatalog(t *testing.T) {
	env := newTestEnv()
	env.catalog.services["svc-2"] = &models.Service{
		ID:              "svc-2",
		ProviderID:      testProviderID,
		Category:        "wellness",
		Name:            "Retired facial",
		DurationMinutes: 30,
		BasePrice:       40,
		Currency:        "usd",
		Active:          false,
	}

	services, err := env.engine.ListProviderServices(context.Background(), testProviderID)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, testServiceID, services[0].ID)
}

func TestGetAvailableSlotsUnknownProviderIsEmpty(t *testing.T) {
	env := newTestEnv()

	query := slotQuery()
	query.ProviderID = "prov-unknown"

	days, err := env.engine.GetAvailableSlots(context.Background(), query)
	require.NoError(t, err)
	assert.Nil(t, days)
}

func TestGetAvailableSlotsUnknownServiceIsEmpty(t *testing.T) {
	env := newTestEnv()

	query := slotQuery()
	query.ServiceID = "svc-unknown"

	days, err := env.engine.GetAvailableSlots(context.Background(), query)
	require.NoError(t, err)
	assert.Nil(t, days)
}

func TestGetAvailableSlotsDisabledMethodIsEmpty(t *testing.T) {
	env := newTestEnv()
	env.schedules.schedules[testProviderID].Delivery.Mobile.Enabled = false

	query := slotQuery()
	query.DeliveryMethod = models.DeliveryMobile

	days, err := env.engine.GetAvailableSlots(context.Background(), query)
	require.NoError(t, err)
	assert.Nil(t, days)
}

func TestGetAvailableSlotsConvertsToCustomerTimezone(t *testing.T) {
	env := newTestEnv()

	query := slotQuery()
	query.CustomerTimezone = "America/New_York"

	days, err := env.engine.GetAvailableSlots(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, days, 1)

	first := days[0].Slots[0]
	assert.Equal(t, 540, first.Start) // provider-local minutes unchanged
	assert.Equal(t, "America/New_York", first.StartsAt.Location().String())
	assert.True(t, first.StartsAt.Equal(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)))
}

func TestGetAvailableSlotsRejectsBadRange(t *testing.T) {
	env := newTestEnv()

	query := slotQuery()
	query.FromDate = "2026-01-06"
	query.ToDate = "2026-01-05"

	_, err := env.engine.GetAvailableSlots(context.Background(), query)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
}
