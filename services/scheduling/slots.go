package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	catalogRepo "servana/database/repository/catalog"
	"servana/models"
	"servana/utils"

	"go.uber.org/zap"
)

// minutesToClock renders minutes-from-midnight as a human label,
// e.g. 540 -> "9:00 AM".
func minutesToClock(m int) string {
	return time.Date(2000, 1, 1, m/60, m%60, 0, 0, time.UTC).Format("3:04 PM")
}

// GetAvailableSlots computes the bookable slots for a service over a
// date range. Dates without availability are omitted; a provider
// without a schedule, or a service the schedule does not permit,
// yields an empty result rather than an error.
func (se *DefaultSchedulingEngine) GetAvailableSlots(ctx context.Context, query models.SlotQuery) ([]models.AvailableDay, error) {
	logger := utils.GetLogger()

	if cached, ok := se.cachedSlots(ctx, query); ok {
		return cached, nil
	}

	schedule, err := se.Schedules.GetByProviderID(ctx, query.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule == nil || !schedule.AllowsService(query.ServiceID) {
		return nil, nil
	}
	if query.DeliveryMethod != "" && !schedule.MethodEnabled(query.DeliveryMethod) {
		return nil, nil
	}

	service, err := se.Catalog.GetService(ctx, query.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	if !service.Active || service.ProviderID != query.ProviderID {
		return nil, nil
	}

	loc, err := time.LoadLocation(schedule.Settings.Timezone)
	if err != nil {
		return nil, NewError(CodeValidation, "schedule timezone %q is invalid", schedule.Settings.Timezone)
	}
	outLoc := loc
	if query.CustomerTimezone != "" {
		outLoc, err = time.LoadLocation(query.CustomerTimezone)
		if err != nil {
			return nil, NewError(CodeValidation, "unknown timezone %q", query.CustomerTimezone)
		}
	}

	from, err := time.ParseInLocation("2006-01-02", query.FromDate, loc)
	if err != nil {
		return nil, NewError(CodeValidation, "fromDate %q is not an ISO date", query.FromDate)
	}
	to, err := time.ParseInLocation("2006-01-02", query.ToDate, loc)
	if err != nil {
		return nil, NewError(CodeValidation, "toDate %q is not an ISO date", query.ToDate)
	}
	if to.Before(from) {
		return nil, NewError(CodeValidation, "toDate precedes fromDate")
	}

	now := se.now()
	earliest := now.Add(time.Duration(schedule.Settings.MinNoticeHours) * time.Hour)
	latest := now.Add(time.Duration(schedule.Settings.AdvanceBookingDays) * 24 * time.Hour)
	duration := service.DurationMinutes
	buffer := schedule.Settings.BufferMinutes

	var days []models.AvailableDay
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")

		windows, open := schedule.EffectiveWindows(dateStr, d.Weekday())
		if !open {
			continue
		}

		existing, err := se.Bookings.ListActiveByProviderDate(ctx, query.ProviderID, dateStr)
		if err != nil {
			logger.Error("error fetching bookings for slot generation",
				zap.String("providerID", query.ProviderID), zap.String("date", dateStr), zap.Error(err))
			return nil, fmt.Errorf("failed to load bookings for %s: %w", dateStr, err)
		}

		var slots []models.AvailableSlot
		for _, w := range windows {
			for start := w.Start; start+duration <= w.End; start += duration + buffer {
				end := start + duration
				startsAt := instantAt(d, start)
				if startsAt.Before(earliest) || startsAt.After(latest) {
					continue
				}
				if FindConflict(start, end, existing, buffer) != nil {
					continue
				}
				endsAt := instantAt(d, end)
				slots = append(slots, models.AvailableSlot{
					Start:    start,
					End:      end,
					StartsAt: startsAt.In(outLoc),
					EndsAt:   endsAt.In(outLoc),
					Label:    minutesToClock(start) + " - " + minutesToClock(end),
				})
			}
		}
		if len(slots) > 0 {
			days = append(days, models.AvailableDay{Date: dateStr, Slots: slots})
		}
	}

	se.storeSlots(ctx, query, days)
	return days, nil
}

// ListProviderServices returns a provider's active catalog, the
// starting point for a slot query.
func (se *DefaultSchedulingEngine) ListProviderServices(ctx context.Context, providerID string) ([]models.Service, error) {
	services, err := se.Catalog.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services for %s: %w", providerID, err)
	}
	return services, nil
}

// Slot-query results are cached under a per-provider epoch. Bumping the
// epoch on any schedule or booking write invalidates every cached range
// for that provider without key scans.

func slotEpochKey(providerID string) string {
	return "slotepoch:" + providerID
}

func (se *DefaultSchedulingEngine) slotCacheKey(ctx context.Context, query models.SlotQuery) string {
	epoch, err := se.Cache.Get(ctx, slotEpochKey(query.ProviderID)).Result()
	if err != nil {
		epoch = "0"
	}
	return fmt.Sprintf("slots:%s:%s:%s:%s:%s:%s:%s",
		epoch, query.ProviderID, query.ServiceID, query.FromDate, query.ToDate, query.DeliveryMethod, query.CustomerTimezone)
}

func (se *DefaultSchedulingEngine) cachedSlots(ctx context.Context, query models.SlotQuery) ([]models.AvailableDay, bool) {
	if se.Cache == nil {
		return nil, false
	}
	data, err := se.Cache.Get(ctx, se.slotCacheKey(ctx, query)).Result()
	if err != nil {
		return nil, false
	}
	var days []models.AvailableDay
	if err := json.Unmarshal([]byte(data), &days); err != nil {
		utils.GetLogger().Warn("discarding unreadable slot cache entry", zap.Error(err))
		return nil, false
	}
	return days, true
}

func (se *DefaultSchedulingEngine) storeSlots(ctx context.Context, query models.SlotQuery, days []models.AvailableDay) {
	if se.Cache == nil {
		return
	}
	data, err := json.Marshal(days)
	if err != nil {
		return
	}
	ttl := se.SlotCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := se.Cache.Set(ctx, se.slotCacheKey(ctx, query), data, ttl).Err(); err != nil {
		utils.GetLogger().Warn("failed to cache slot query", zap.Error(err))
	}
}

// invalidateSlots bumps the provider's slot epoch after a write that
// changes availability.
func (se *DefaultSchedulingEngine) invalidateSlots(ctx context.Context, providerID string) {
	if se.Cache == nil {
		return
	}
	if err := se.Cache.Incr(ctx, slotEpochKey(providerID)).Err(); err != nil {
		utils.GetLogger().Warn("failed to invalidate slot cache",
			zap.String("providerID", providerID), zap.Error(err))
	}
}
