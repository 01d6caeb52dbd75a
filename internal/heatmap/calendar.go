package heatmap

import (
	"time"

	"github.com/tartampluch/go-heatmap/internal/config"
)

// CivilDate returns midnight UTC of the given calendar day.
// Dates are kept in UTC so that ordinal arithmetic never crosses a DST shift.
func CivilDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf strips the clock from t, keeping t's calendar day in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return CivilDate(y, m, d)
}

// ValidDate reports whether year/month/day names a real Gregorian day.
func ValidDate(year, month, day int) bool {
	if month < 1 || month > config.MonthsInYear || day < 1 {
		return false
	}
	t := CivilDate(year, time.Month(month), day)
	return t.Month() == time.Month(month) && t.Day() == day
}

// Ordinal0 is the 0-based day of the year.
func Ordinal0(t time.Time) int {
	return t.YearDay() - 1
}

// IsLeap reports whether year has 366 days.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// LastOrdinal is the 0-based ordinal of December 31.
func LastOrdinal(year int) int {
	if IsLeap(year) {
		return 365
	}
	return 364
}

// MondayIndex converts a weekday to 0 = Monday ... 6 = Sunday.
func MondayIndex(w time.Weekday) int {
	return (int(w) + 6) % config.DaysPerWeek
}

// FirstWeekday is the Monday-indexed weekday of January 1.
func FirstWeekday(year int) int {
	return MondayIndex(CivilDate(year, time.January, 1).Weekday())
}

// MonthStarts returns the ordinal of the first day of each month, January first.
func MonthStarts(year int) [config.MonthsInYear]int {
	var starts [config.MonthsInYear]int
	for m := range config.MonthsInYear {
		starts[m] = Ordinal0(CivilDate(year, time.Month(m+1), 1))
	}
	return starts
}
