package models

// LegacyRecurringRule is the retired rule-based schedule shape some
// early provider documents still carry. It is never written anymore;
// scheduling.ConvertLegacyRules migrates it into a weekly template.
type LegacyRecurringRule struct {
	Weekdays  []int  `bson:"weekdays" json:"weekdays"`   // 0 = Sunday ... 6 = Saturday
	StartTime string `bson:"startTime" json:"startTime"` // "HH:MM", 24h, provider-local
	EndTime   string `bson:"endTime" json:"endTime"`
	Active    bool   `bson:"active" json:"active"`
}
