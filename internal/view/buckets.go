package view

import (
	"time"

	"github.com/freight-scorecard/backend/internal/models"
)

// DayLayout formats day and week keys. Keys sort chronologically as strings.
const DayLayout = "2006-01-02"

// DayKey is the UTC calendar day of t.
func DayKey(t time.Time) string {
	return models.UTCDay(t).Format(DayLayout)
}

// WeekStart returns UTC midnight of the Monday starting t's week.
func WeekStart(t time.Time) time.Time {
	day := models.UTCDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	if weekday != 1 {
		day = day.AddDate(0, 0, -(weekday - 1))
	}
	return day
}

// WeekKey is the Monday-start week of t, formatted as its Monday.
func WeekKey(t time.Time) string {
	return WeekStart(t).Format(DayLayout)
}
