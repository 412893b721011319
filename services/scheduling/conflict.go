package scheduling

import "servana/models"

// overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// FindConflict returns the first pending or confirmed booking whose
// occupied range overlaps the candidate [start, end). The existing
// booking's end is extended by bufferMinutes so back-to-back bookings
// keep the mandatory idle gap. Bookings listed in skipIDs (e.g. the one
// being rescheduled) are ignored.
func FindConflict(start, end int, existing []models.Booking, bufferMinutes int, skipIDs ...string) *models.Booking {
	for i := range existing {
		b := &existing[i]
		if !b.Active() {
			continue
		}
		skipped := false
		for _, id := range skipIDs {
			if b.ID == id {
				skipped = true
				break
			}
		}
		if skipped {
			continue
		}
		if overlaps(start, end, b.Start, b.End+bufferMinutes) {
			return b
		}
	}
	return nil
}
