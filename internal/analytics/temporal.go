package analytics

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// DateLayout is the only accepted transaction date format.
const DateLayout = "2006-01-02"

// Decompose derives calendar metadata from a YYYY-MM-DD date. Any parse
// failure (wrong layout, impossible date, empty string) yields the sentinel
// record from domain.UnknownTemporal; it never returns partial fields.
// Year 0000 is rejected since year 0 is the sentinel.
func Decompose(date string) domain.TemporalMetadata {
	t, err := time.Parse(DateLayout, date)
	if err != nil || t.Year() < 1 {
		return domain.UnknownTemporal()
	}

	day := t.Day()
	month := int(t.Month())
	_, isoWeek := t.ISOWeek()
	// time.Weekday counts from Sunday; shift so Monday is 0.
	dow := (int(t.Weekday()) + 6) % 7

	return domain.TemporalMetadata{
		Timestamp:    t.Unix(),
		Year:         t.Year(),
		Month:        month,
		Day:          day,
		DayOfWeek:    t.Weekday().String(),
		DayOfWeekNum: dow,
		WeekOfMonth:  (day-1)/7 + 1,
		WeekOfYear:   isoWeek,
		Quarter:      fmt.Sprintf("Q%d", (month-1)/3+1),
		IsWeekend:    dow >= 5,
		IsMonthStart: day <= 7,
		// Rough last-week heuristic; not calendar aware.
		IsMonthEnd: day > 23,
	}
}

// MonthKey formats a year and month as "YYYY-MM".
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// MonthName returns the English name of a 1-based month, or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}
