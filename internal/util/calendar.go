package util

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// usHolidays lists full-day US market closures keyed by ET date.
var usHolidays = map[string]bool{
	"2024-01-01": true, "2024-01-15": true, "2024-02-19": true,
	"2024-03-29": true, "2024-05-27": true, "2024-06-19": true,
	"2024-07-04": true, "2024-09-02": true, "2024-11-28": true,
	"2024-12-25": true,

	"2025-01-01": true, "2025-01-20": true, "2025-02-17": true,
	"2025-04-18": true, "2025-05-26": true, "2025-06-19": true,
	"2025-07-04": true, "2025-09-01": true, "2025-11-27": true,
	"2025-12-25": true,

	"2026-01-01": true, "2026-01-19": true, "2026-02-16": true,
	"2026-04-03": true, "2026-05-25": true, "2026-06-19": true,
	"2026-07-03": true, "2026-09-07": true, "2026-11-26": true,
	"2026-12-25": true,
}

// TradingCalendar provides US equity market-hours awareness. Regular
// session only: 9:30-16:00 ET, Monday through Friday, excluding holidays.
type TradingCalendar struct {
	loc *time.Location
}

// NewTradingCalendar creates a TradingCalendar in Eastern Time. When the
// zone database is unavailable it falls back to a fixed EST offset.
func NewTradingCalendar() *TradingCalendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*3600)
	}
	return &TradingCalendar{loc: loc}
}

// Location returns the calendar's time zone.
func (tc *TradingCalendar) Location() *time.Location {
	return tc.loc
}

// IsTradingDay reports whether t falls on a regular trading day (weekday,
// not a holiday) in ET.
func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	et := t.In(tc.loc)
	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !usHolidays[et.Format("2006-01-02")]
}

// IsMarketOpen reports whether the regular session is open at time t.
func (tc *TradingCalendar) IsMarketOpen(t time.Time) bool {
	if !tc.IsTradingDay(t) {
		return false
	}
	et := t.In(tc.loc)
	open := time.Date(et.Year(), et.Month(), et.Day(), 9, 30, 0, 0, tc.loc)
	close := time.Date(et.Year(), et.Month(), et.Day(), 16, 0, 0, 0, tc.loc)
	return !et.Before(open) && et.Before(close)
}

// NextOpen returns the next session open at or after t, scanning at most
// ten calendar days ahead. The zero time means no session was found in the
// scan window, which only happens with a malformed holiday table.
func (tc *TradingCalendar) NextOpen(t time.Time) time.Time {
	et := t.In(tc.loc)
	for i := 0; i <= 10; i++ {
		day := et.AddDate(0, 0, i)
		if !tc.IsTradingDay(day) {
			continue
		}
		open := time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, tc.loc)
		if !open.Before(et) {
			return open
		}
	}
	return time.Time{}
}

// NextClose returns the next session close at or after t. When the market
// is open the current session's close is returned, otherwise the close
// following the next open.
func (tc *TradingCalendar) NextClose(t time.Time) time.Time {
	et := t.In(tc.loc)
	if tc.IsMarketOpen(et) {
		return time.Date(et.Year(), et.Month(), et.Day(), 16, 0, 0, 0, tc.loc)
	}
	open := tc.NextOpen(et)
	if open.IsZero() {
		return time.Time{}
	}
	return time.Date(open.Year(), open.Month(), open.Day(), 16, 0, 0, 0, tc.loc)
}

// ValidateHours normalises a list of session hour markers: values outside
// 9..16 are dropped, duplicates removed, and the result sorted ascending.
func ValidateHours(hours []int) []int {
	seen := make(map[int]bool, len(hours))
	out := make([]int, 0, len(hours))
	for _, h := range hours {
		if h < 9 || h > 16 || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	sort.Ints(out)
	return out
}

// FormatHoursInfo renders a normalised hour list for status output, e.g.
// "9:00, 11:00, 15:00 ET".
func FormatHoursInfo(hours []int) string {
	hours = ValidateHours(hours)
	if len(hours) == 0 {
		return "no session hours configured"
	}
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%d:00", h)
	}
	return strings.Join(parts, ", ") + " ET"
}
