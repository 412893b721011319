package scheduling

import (
	"time"

	"servana/models"
)

// Shared fixture: a provider open Monday through Friday 9:00-17:00 UTC
// with a 15 minute buffer, 24 hours minimum notice and a 30 day
// horizon. The clock is pinned to Thursday 2026-01-01 12:00 UTC, so
// Monday 2026-01-05 is comfortably bookable.

const (
	testProviderID = "prov-1"
	testCustomerID = "cust-1"
	testServiceID  = "svc-1"
	testDate       = "2026-01-05"
)

var testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func weekdayTemplate() []models.WeekdayConfig {
	template := make([]models.WeekdayConfig, 7)
	for wd := 0; wd < 7; wd++ {
		template[wd] = models.WeekdayConfig{Weekday: wd}
	}
	for wd := 1; wd <= 5; wd++ {
		template[wd].Enabled = true
		template[wd].Windows = []models.TimeWindow{{Start: 540, End: 1020}}
	}
	return template
}

func testSchedule() *models.Schedule {
	return &models.Schedule{
		ProviderID: testProviderID,
		Settings: models.ScheduleSettings{
			Timezone:           "UTC",
			BufferMinutes:      15,
			MinNoticeHours:     24,
			AdvanceBookingDays: 30,
		},
		Template: weekdayTemplate(),
		Delivery: models.DeliveryMethodConfig{
			Online: models.OnlineMethod{Enabled: true},
			AtLocation: models.AtLocationMethod{
				Enabled:  true,
				Location: &models.ProviderLocation{Address: "12 Rose Lane"},
			},
			Mobile: models.MobileMethod{Enabled: true, TravelSurcharge: 10},
		},
	}
}

func testService() *models.Service {
	return &models.Service{
		ID:              testServiceID,
		ProviderID:      testProviderID,
		Category:        "wellness",
		Name:            "Deep tissue massage",
		DurationMinutes: 60,
		BasePrice:       100,
		Currency:        "usd",
		AddOns: []models.AddOn{
			{ID: "addon-1", Name: "Hot stones", Price: 20, DurationMinutes: 30},
		},
		Active: true,
	}
}

func testPolicy() *models.CancellationPolicy {
	return &models.CancellationPolicy{
		Category:                "wellness",
		FullRefundHours:         48,
		PartialRefundHours:      24,
		PartialRefundPercentage: 50,
		NoRefundHours:           24,
		AllowRescheduling:       true,
		MaxReschedules:          2,
		RescheduleMinHours:      12,
	}
}

type testEnv struct {
	engine    *DefaultSchedulingEngine
	schedules *fakeScheduleRepo
	bookings  *fakeBookingRepo
	catalog   *fakeCatalogRepo
	policies  *fakePolicyRepo
	gateway   *fakeGateway
	notifier  *fakeNotifier
}

func newTestEnv() *testEnv {
	env := &testEnv{
		schedules: &fakeScheduleRepo{schedules: map[string]*models.Schedule{testProviderID: testSchedule()}},
		bookings:  newFakeBookingRepo(),
		catalog:   &fakeCatalogRepo{services: map[string]*models.Service{testServiceID: testService()}},
		policies:  &fakePolicyRepo{policies: map[string]*models.CancellationPolicy{"wellness": testPolicy()}},
		gateway:   &fakeGateway{},
		notifier:  &fakeNotifier{},
	}
	env.engine = &DefaultSchedulingEngine{
		Schedules:          env.schedules,
		Bookings:           env.bookings,
		Catalog:            env.catalog,
		Policies:           env.policies,
		Gateway:            env.gateway,
		Notifier:           env.notifier,
		Clock:              fixedClock{t: testNow},
		ConfirmationWindow: 24 * time.Hour,
	}
	return env
}

// seedBooking inserts a booking directly, bypassing the engine.
func (env *testEnv) seedBooking(b models.Booking) {
	env.bookings.bookings[b.ID] = &b
}

func pendingBooking(id string, start, end int) models.Booking {
	return models.Booking{
		ID:                   id,
		ProviderID:           testProviderID,
		ServiceID:            testServiceID,
		CustomerID:           testCustomerID,
		Date:                 testDate,
		Start:                start,
		End:                  end,
		DeliveryMethod:       models.DeliveryOnline,
		Status:               models.BookingPending,
		ConfirmationDeadline: testNow.Add(24 * time.Hour),
		HoldRef:              "hold-" + id,
		Amount:               100,
		Currency:             "usd",
		CreatedAt:            testNow,
		UpdatedAt:            testNow,
	}
}

func confirmedBooking(id string, start, end int) models.Booking {
	b := pendingBooking(id, start, end)
	b.Status = models.BookingConfirmed
	b.ChargeRef = "charge-" + id
	return b
}
