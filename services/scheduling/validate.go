package scheduling

import (
	"sort"
	"time"

	"servana/models"
)

const minutesPerDay = 24 * 60

// validateWindows checks bounds and mutual exclusion of a day's
// windows. The slice is sorted in place by start time.
func validateWindows(windows []models.TimeWindow, context string) error {
	sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
	for i, w := range windows {
		if w.Start < 0 || w.End > minutesPerDay || w.Start >= w.End {
			return NewError(CodeValidation, "%s: window %d:%d is invalid (start must precede end within the day)", context, w.Start, w.End)
		}
		if i > 0 && w.Start < windows[i-1].End {
			return NewError(CodeValidation, "%s: windows %d:%d and %d:%d overlap", context, windows[i-1].Start, windows[i-1].End, w.Start, w.End)
		}
	}
	return nil
}

// NormalizeSchedule validates a schedule and brings it into canonical
// form: exactly seven weekday entries ordered Sunday through Saturday,
// windows sorted, settings sane. It is called on every schedule write.
func NormalizeSchedule(s *models.Schedule) error {
	if s.ProviderID == "" {
		return NewError(CodeValidation, "schedule is missing a provider id")
	}
	if _, err := time.LoadLocation(s.Settings.Timezone); err != nil {
		return NewError(CodeValidation, "unknown timezone %q", s.Settings.Timezone)
	}
	if s.Settings.BufferMinutes < 0 || s.Settings.MinNoticeHours < 0 || s.Settings.AdvanceBookingDays < 0 {
		return NewError(CodeValidation, "buffer, notice and advance-booking settings must not be negative")
	}

	byDay := make(map[int]models.WeekdayConfig, 7)
	for _, day := range s.Template {
		if day.Weekday < 0 || day.Weekday > 6 {
			return NewError(CodeValidation, "weekday %d is out of range", day.Weekday)
		}
		if _, dup := byDay[day.Weekday]; dup {
			return NewError(CodeValidation, "weekday %d appears twice in the template", day.Weekday)
		}
		if day.Enabled {
			if err := validateWindows(day.Windows, time.Weekday(day.Weekday).String()); err != nil {
				return err
			}
		}
		byDay[day.Weekday] = day
	}
	normalized := make([]models.WeekdayConfig, 7)
	for wd := 0; wd < 7; wd++ {
		if day, ok := byDay[wd]; ok {
			normalized[wd] = day
		} else {
			normalized[wd] = models.WeekdayConfig{Weekday: wd}
		}
	}
	s.Template = normalized

	for date, ov := range s.Overrides {
		ov.Date = date
		if err := ValidateOverride(&ov); err != nil {
			return err
		}
		s.Overrides[date] = ov
	}

	if s.Delivery.Mobile.Enabled && s.Delivery.Mobile.TravelSurcharge < 0 {
		return NewError(CodeValidation, "mobile travel surcharge must not be negative")
	}
	return nil
}

// ValidateOverride checks a single date override.
func ValidateOverride(ov *models.DateOverride) error {
	if _, err := time.Parse("2006-01-02", ov.Date); err != nil {
		return NewError(CodeValidation, "override date %q is not an ISO date", ov.Date)
	}
	switch ov.Kind {
	case models.OverrideBlocked:
		if len(ov.Windows) > 0 {
			return NewError(CodeValidation, "blocked override for %s must not carry windows", ov.Date)
		}
	case models.OverrideCustom:
		if len(ov.Windows) == 0 {
			return NewError(CodeValidation, "custom override for %s needs at least one window", ov.Date)
		}
		if err := validateWindows(ov.Windows, "override "+ov.Date); err != nil {
			return err
		}
	default:
		return NewError(CodeValidation, "override kind %q is not supported", ov.Kind)
	}
	return nil
}
