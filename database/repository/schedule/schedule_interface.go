package scheduleRepo

import (
	"context"

	"servana/models"
)

// ScheduleRepository persists provider availability models. Schedules
// are partitioned by provider id.
type ScheduleRepository interface {
	// GetByProviderID returns nil, nil when the provider has no schedule.
	GetByProviderID(ctx context.Context, providerID string) (*models.Schedule, error)
	Upsert(ctx context.Context, schedule *models.Schedule) error
	// SetOverride adds or replaces the override for its date (last write wins).
	SetOverride(ctx context.Context, providerID string, override models.DateOverride) error
	RemoveOverride(ctx context.Context, providerID, date string) error
}
