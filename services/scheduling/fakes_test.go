package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	bookingRepo "servana/database/repository/booking"
	catalogRepo "servana/database/repository/catalog"
	"servana/models"
)

// In-memory collaborators for engine tests.

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeScheduleRepo struct {
	schedules map[string]*models.Schedule
}

func (r *fakeScheduleRepo) GetByProviderID(_ context.Context, providerID string) (*models.Schedule, error) {
	return r.schedules[providerID], nil
}

func (r *fakeScheduleRepo) Upsert(_ context.Context, schedule *models.Schedule) error {
	if r.schedules == nil {
		r.schedules = map[string]*models.Schedule{}
	}
	r.schedules[schedule.ProviderID] = schedule
	return nil
}

func (r *fakeScheduleRepo) SetOverride(_ context.Context, providerID string, override models.DateOverride) error {
	s := r.schedules[providerID]
	if s == nil {
		return fmt.Errorf("no schedule for %s", providerID)
	}
	if s.Overrides == nil {
		s.Overrides = map[string]models.DateOverride{}
	}
	s.Overrides[override.Date] = override
	return nil
}

func (r *fakeScheduleRepo) RemoveOverride(_ context.Context, providerID, date string) error {
	if s := r.schedules[providerID]; s != nil {
		delete(s.Overrides, date)
	}
	return nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[string]*models.Booking{}}
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, bookingID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBookingRepo) ListActiveByProviderDate(_ context.Context, providerID, date string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID && b.Date == date && b.Active() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListOverduePending(_ context.Context, cutoff time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.Status == models.BookingPending && b.ConfirmationDeadline.Before(cutoff) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) UpdateStatusIf(_ context.Context, bookingID, fromStatus, toStatus string, patch map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok || b.Status != fromStatus {
		return bookingRepo.ErrStatusPrecondition
	}
	b.Status = toStatus
	applyPatch(b, patch)
	return nil
}

func applyPatch(b *models.Booking, patch map[string]interface{}) {
	for k, v := range patch {
		switch k {
		case "charge_ref":
			b.ChargeRef = v.(string)
		case "reject_reason":
			b.RejectReason = v.(string)
		case "cancellation":
			b.Cancellation = v.(*models.Cancellation)
		case "location":
			b.Location = v.(*models.ProviderLocation)
		case "date":
			b.Date = v.(string)
		case "start":
			b.Start = v.(int)
		case "end":
			b.End = v.(int)
		case "reschedule_count":
			b.RescheduleCount = v.(int)
		}
	}
}

type fakeCatalogRepo struct {
	services map[string]*models.Service
}

func (r *fakeCatalogRepo) GetService(_ context.Context, serviceID string) (*models.Service, error) {
	s, ok := r.services[serviceID]
	if !ok {
		return nil, catalogRepo.ErrNotFound
	}
	return s, nil
}

func (r *fakeCatalogRepo) ListByProvider(_ context.Context, providerID string) ([]models.Service, error) {
	var out []models.Service
	for _, s := range r.services {
		if s.ProviderID == providerID && s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakePolicyRepo struct {
	policies map[string]*models.CancellationPolicy
}

func (r *fakePolicyRepo) GetByCategory(_ context.Context, category string) (*models.CancellationPolicy, error) {
	return r.policies[category], nil
}

func (r *fakePolicyRepo) Upsert(_ context.Context, policy *models.CancellationPolicy) error {
	if r.policies == nil {
		r.policies = map[string]*models.CancellationPolicy{}
	}
	r.policies[policy.Category] = policy
	return nil
}

type refundCall struct {
	ChargeRef string
	Amount    float64
	Currency  string
}

type fakeGateway struct {
	mu sync.Mutex

	// onAuthorize, when set, runs at the start of Authorize. Tests use
	// it to interleave a competing request mid-creation.
	onAuthorize func()

	authorizeErr error
	captureErr   error
	refundErr    error

	authorized int
	captured   []string
	released   []string
	refunds    []refundCall
}

func (g *fakeGateway) Authorize(_ context.Context, req models.AuthorizationRequest) (string, error) {
	if g.onAuthorize != nil {
		g.onAuthorize()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authorizeErr != nil {
		return "", g.authorizeErr
	}
	g.authorized++
	return fmt.Sprintf("hold-%d", g.authorized), nil
}

func (g *fakeGateway) Capture(_ context.Context, holdRef string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.captureErr != nil {
		return "", g.captureErr
	}
	g.captured = append(g.captured, holdRef)
	return "charge-" + holdRef, nil
}

func (g *fakeGateway) Release(_ context.Context, holdRef string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released = append(g.released, holdRef)
	return nil
}

func (g *fakeGateway) Refund(_ context.Context, chargeRef string, amount float64, currency string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, refundCall{ChargeRef: chargeRef, Amount: amount, Currency: currency})
	return nil
}

type sentNotification struct {
	Recipient string
	Template  string
	Vars      map[string]string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Send(_ context.Context, recipientID, templateID string, vars map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Recipient: recipientID, Template: templateID, Vars: vars})
	return nil
}

func (n *fakeNotifier) templatesFor(recipient string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.Recipient == recipient {
			out = append(out, s.Template)
		}
	}
	return out
}
