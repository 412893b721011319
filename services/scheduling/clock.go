package scheduling

import "time"

// Clock is the engine's time source. Production uses SystemClock;
// tests substitute a fixed instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall-clock time source.
var SystemClock Clock = systemClock{}

// instantAt is the wall-clock instant for minutes-from-midnight on a
// date. Built from components rather than added to midnight: on a DST
// transition day midnight plus nine hours is not 9:00 local.
func instantAt(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
}
