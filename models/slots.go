package models

import "time"

// AvailableSlot is one bookable candidate interval of exactly the
// service's duration. Start and End are minutes from midnight in the
// provider's local timezone; StartsAt/EndsAt are the same instants as
// absolute timestamps (converted to the customer's timezone when one
// was supplied on the query).
type AvailableSlot struct {
	Start    int       `json:"start"`
	End      int       `json:"end"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
	Label    string    `json:"label"` // e.g. "9:00 AM - 10:30 AM"
}

// AvailableDay groups the surviving slots of a single date. Dates
// without any slot are omitted from query results entirely.
type AvailableDay struct {
	Date  string          `json:"date"`
	Slots []AvailableSlot `json:"slots"`
}

// SlotQuery describes one availability lookup.
type SlotQuery struct {
	ProviderID       string `json:"providerId"`
	ServiceID        string `json:"serviceId"`
	FromDate         string `json:"fromDate"`                   // inclusive, "2006-01-02"
	ToDate           string `json:"toDate"`                     // inclusive
	DeliveryMethod   string `json:"deliveryMethod,omitempty"`   // optional filter
	CustomerTimezone string `json:"customerTimezone,omitempty"` // optional IANA id
}
