package scheduling

import (
	"fmt"
	"strconv"
	"strings"

	"servana/models"
)

func parseClock(v string) (int, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock value %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed minute in %q", v)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", v)
	}
	return h*60 + m, nil
}

// ConvertLegacyRules migrates the retired recurring-rule schedule shape
// into a weekly template. Inactive rules are dropped; rules for the
// same weekday merge into that day's window list. The result still goes
// through NormalizeSchedule, which rejects overlapping windows.
func ConvertLegacyRules(rules []models.LegacyRecurringRule) ([]models.WeekdayConfig, error) {
	template := make([]models.WeekdayConfig, 7)
	for wd := 0; wd < 7; wd++ {
		template[wd] = models.WeekdayConfig{Weekday: wd}
	}

	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		start, err := parseClock(rule.StartTime)
		if err != nil {
			return nil, NewError(CodeValidation, "legacy rule: %v", err)
		}
		end, err := parseClock(rule.EndTime)
		if err != nil {
			return nil, NewError(CodeValidation, "legacy rule: %v", err)
		}
		if start >= end {
			return nil, NewError(CodeValidation, "legacy rule: start %s is not before end %s", rule.StartTime, rule.EndTime)
		}
		for _, wd := range rule.Weekdays {
			if wd < 0 || wd > 6 {
				return nil, NewError(CodeValidation, "legacy rule: weekday %d out of range", wd)
			}
			template[wd].Enabled = true
			template[wd].Windows = append(template[wd].Windows, models.TimeWindow{Start: start, End: end})
		}
	}
	return template, nil
}
