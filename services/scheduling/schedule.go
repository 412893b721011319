package scheduling

import (
	"context"
	"fmt"

	scheduleRepo "servana/database/repository/schedule"
	"servana/models"
	"servana/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ScheduleService manages provider availability models.
type ScheduleService interface {
	SetSchedule(ctx context.Context, schedule *models.Schedule) error
	GetSchedule(ctx context.Context, providerID string) (*models.Schedule, error)
	SetDateOverride(ctx context.Context, providerID string, override models.DateOverride) error
	RemoveDateOverride(ctx context.Context, providerID, date string) error
	SetDeliveryMethods(ctx context.Context, providerID string, methods models.DeliveryMethodConfig) (*models.Schedule, error)
}

// DefaultScheduleService is the production implementation.
type DefaultScheduleService struct {
	Repo  scheduleRepo.ScheduleRepository
	Cache *redis.Client
}

func (s *DefaultScheduleService) bumpEpoch(ctx context.Context, providerID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Incr(ctx, slotEpochKey(providerID)).Err(); err != nil {
		utils.GetLogger().Warn("failed to invalidate slot cache",
			zap.String("providerID", providerID), zap.Error(err))
	}
}

// SetSchedule validates, normalizes and persists a provider's
// schedule, replacing any prior one.
func (s *DefaultScheduleService) SetSchedule(ctx context.Context, schedule *models.Schedule) error {
	if err := NormalizeSchedule(schedule); err != nil {
		return err
	}
	if err := s.Repo.Upsert(ctx, schedule); err != nil {
		return fmt.Errorf("failed to persist schedule: %w", err)
	}
	s.bumpEpoch(ctx, schedule.ProviderID)
	utils.GetLogger().Info("schedule updated", zap.String("providerID", schedule.ProviderID))
	return nil
}

// GetSchedule returns a provider's schedule.
func (s *DefaultScheduleService) GetSchedule(ctx context.Context, providerID string) (*models.Schedule, error) {
	schedule, err := s.Repo.GetByProviderID(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule == nil {
		return nil, NewError(CodeNotFound, "provider %s has no schedule", providerID)
	}
	return schedule, nil
}

// SetDateOverride adds or replaces the override for a date.
func (s *DefaultScheduleService) SetDateOverride(ctx context.Context, providerID string, override models.DateOverride) error {
	if err := ValidateOverride(&override); err != nil {
		return err
	}
	if err := s.Repo.SetOverride(ctx, providerID, override); err != nil {
		return fmt.Errorf("failed to persist override: %w", err)
	}
	s.bumpEpoch(ctx, providerID)
	return nil
}

// SetDeliveryMethods replaces the delivery method configuration on an
// existing schedule without touching its windows or overrides.
func (s *DefaultScheduleService) SetDeliveryMethods(ctx context.Context, providerID string, methods models.DeliveryMethodConfig) (*models.Schedule, error) {
	schedule, err := s.GetSchedule(ctx, providerID)
	if err != nil {
		return nil, err
	}
	schedule.Delivery = methods
	if err := NormalizeSchedule(schedule); err != nil {
		return nil, err
	}
	if err := s.Repo.Upsert(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}
	s.bumpEpoch(ctx, providerID)
	return schedule, nil
}

// RemoveDateOverride deletes a date override.
func (s *DefaultScheduleService) RemoveDateOverride(ctx context.Context, providerID, date string) error {
	if err := s.Repo.RemoveOverride(ctx, providerID, date); err != nil {
		return fmt.Errorf("failed to remove override: %w", err)
	}
	s.bumpEpoch(ctx, providerID)
	return nil
}
