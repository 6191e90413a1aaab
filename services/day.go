package services

import (
	"time"

	"micro-missions/models"
)

const day = 24 * time.Hour

// DayStart returns UTC midnight of the calendar day containing t.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey is the "YYYY-MM-DD" UTC key used by the per-day unique indexes.
func DayKey(t time.Time) string {
	return t.UTC().Format(models.DayLayout)
}

// DaysBetween counts UTC midnights crossed going from `from` to `to`.
func DaysBetween(from, to time.Time) int {
	return int(DayStart(to).Sub(DayStart(from)) / day)
}
