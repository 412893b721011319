package models

// CancellationPolicy defines the refund tiers and rescheduling rules
// for one service category. A tier value of zero means the tier is not
// configured.
type CancellationPolicy struct {
	Category                string `bson:"category" json:"category"`
	FullRefundHours         int    `bson:"fullRefundHours,omitempty" json:"fullRefundHours,omitempty"`
	PartialRefundHours      int    `bson:"partialRefundHours,omitempty" json:"partialRefundHours,omitempty"`
	PartialRefundPercentage int    `bson:"partialRefundPercentage,omitempty" json:"partialRefundPercentage,omitempty"`
	NoRefundHours           int    `bson:"noRefundHours,omitempty" json:"noRefundHours,omitempty"`
	AllowRescheduling       bool   `bson:"allowRescheduling" json:"allowRescheduling"`
	MaxReschedules          int    `bson:"maxReschedules,omitempty" json:"maxReschedules,omitempty"`
	RescheduleMinHours      int    `bson:"rescheduleMinHours,omitempty" json:"rescheduleMinHours,omitempty"`
}

// RefundAssessment is the outcome of evaluating a cancellation policy
// against a booking at a point in time.
type RefundAssessment struct {
	Eligible   bool    `json:"eligible"`
	Percentage int     `json:"percentage"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

// RescheduleAssessment is the outcome of a reschedule eligibility check.
type RescheduleAssessment struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}
