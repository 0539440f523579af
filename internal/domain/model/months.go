package model

import "time"

// MonthsBetween returns whole calendar months from start to end, floored at 0.
func MonthsBetween(start, end time.Time) int64 {
	months := int64(end.Year()-start.Year())*12 + int64(end.Month()-start.Month())
	if months < 0 {
		return 0
	}
	return months
}
