package models

import "time"

// TimeWindow is a continuous bookable window in provider-local time,
// expressed as minutes from midnight (e.g., 540 for 9:00 AM).
type TimeWindow struct {
	Start int `bson:"start" json:"start"`
	End   int `bson:"end" json:"end"`
}

// WeekdayConfig holds one weekday's recurring availability.
type WeekdayConfig struct {
	Weekday int          `bson:"weekday" json:"weekday"` // 0 = Sunday ... 6 = Saturday
	Enabled bool         `bson:"enabled" json:"enabled"`
	Windows []TimeWindow `bson:"windows,omitempty" json:"windows,omitempty"`
}

// Date override kinds.
const (
	OverrideBlocked = "blocked"
	OverrideCustom  = "custom"
)

// DateOverride replaces the weekly template for a single date.
type DateOverride struct {
	Date    string       `bson:"date" json:"date"` // "2006-01-02"
	Kind    string       `bson:"kind" json:"kind"` // "blocked" or "custom"
	Windows []TimeWindow `bson:"windows,omitempty" json:"windows,omitempty"`
}

// Delivery methods.
const (
	DeliveryOnline     = "online"
	DeliveryAtLocation = "at_location"
	DeliveryMobile     = "mobile"
)

// ProviderLocation is the physical service location for at_location
// bookings. It is revealed to the customer only after confirmation and
// must never appear in slot query responses.
type ProviderLocation struct {
	Address string  `bson:"address" json:"address"`
	Lat     float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng     float64 `bson:"lng,omitempty" json:"lng,omitempty"`
	Notes   string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// OnlineMethod enables remote delivery.
type OnlineMethod struct {
	Enabled bool `bson:"enabled" json:"enabled"`
}

// AtLocationMethod enables delivery at the provider's premises.
type AtLocationMethod struct {
	Enabled  bool              `bson:"enabled" json:"enabled"`
	Location *ProviderLocation `bson:"location,omitempty" json:"-"`
}

// MobileMethod enables delivery at the customer's address.
type MobileMethod struct {
	Enabled         bool    `bson:"enabled" json:"enabled"`
	TravelSurcharge float64 `bson:"travelSurcharge,omitempty" json:"travelSurcharge,omitempty"`
	ServiceRadiusKm float64 `bson:"serviceRadiusKm,omitempty" json:"serviceRadiusKm,omitempty"`
}

// DeliveryMethodConfig holds the per-method delivery settings.
type DeliveryMethodConfig struct {
	Online     OnlineMethod     `bson:"online" json:"online"`
	AtLocation AtLocationMethod `bson:"atLocation" json:"atLocation"`
	Mobile     MobileMethod     `bson:"mobile" json:"mobile"`
}

// ScheduleSettings holds the provider-wide booking constraints.
type ScheduleSettings struct {
	Timezone           string `bson:"timezone" json:"timezone"` // IANA id, e.g. "Europe/Berlin"
	BufferMinutes      int    `bson:"bufferMinutes" json:"bufferMinutes"`
	MinNoticeHours     int    `bson:"minNoticeHours" json:"minNoticeHours"`
	AdvanceBookingDays int    `bson:"advanceBookingDays" json:"advanceBookingDays"`
}

// Schedule is a provider's full availability model: weekly template,
// per-date overrides and delivery-method settings.
type Schedule struct {
	ProviderID string                  `bson:"provider_id" json:"providerId"`
	Settings   ScheduleSettings        `bson:"settings" json:"settings"`
	Template   []WeekdayConfig         `bson:"template" json:"template"` // seven entries, index = weekday
	Overrides  map[string]DateOverride `bson:"overrides,omitempty" json:"overrides,omitempty"`
	Delivery   DeliveryMethodConfig    `bson:"delivery" json:"delivery"`
	ServiceIDs []string                `bson:"service_ids,omitempty" json:"serviceIds,omitempty"` // optional whitelist of bookable services
	UpdatedAt  time.Time               `bson:"updated_at" json:"updatedAt"`
}

// EffectiveWindows resolves the bookable windows for a date, applying a
// date override over the weekly template. The second return is false
// when the date has no availability at all (blocked, disabled or no
// windows configured).
func (s *Schedule) EffectiveWindows(date string, weekday time.Weekday) ([]TimeWindow, bool) {
	if ov, ok := s.Overrides[date]; ok {
		if ov.Kind == OverrideBlocked || len(ov.Windows) == 0 {
			return nil, false
		}
		return ov.Windows, true
	}
	for _, day := range s.Template {
		if day.Weekday == int(weekday) {
			if !day.Enabled || len(day.Windows) == 0 {
				return nil, false
			}
			return day.Windows, true
		}
	}
	return nil, false
}

// MethodEnabled reports whether a delivery method is offered.
func (s *Schedule) MethodEnabled(method string) bool {
	switch method {
	case DeliveryOnline:
		return s.Delivery.Online.Enabled
	case DeliveryAtLocation:
		return s.Delivery.AtLocation.Enabled
	case DeliveryMobile:
		return s.Delivery.Mobile.Enabled
	}
	return false
}

// AllowsService reports whether the schedule permits booking the given
// service. An empty whitelist permits every service of the provider.
func (s *Schedule) AllowsService(serviceID string) bool {
	if len(s.ServiceIDs) == 0 {
		return true
	}
	for _, id := range s.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
