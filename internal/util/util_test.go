package util

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	attempts := 0
	targetAttempts := 3

	err := Retry(context.Background(), 5, 0, func() error {
		attempts++
		if attempts < targetAttempts {
			return errors.New("transient error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry returned unexpected error: %v", err)
	}
	if attempts != targetAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, targetAttempts)
	}
}

func TestRetryAllFail(t *testing.T) {
	attempts := 0
	maxAttempts := 3

	err := Retry(context.Background(), maxAttempts, 0, func() error {
		attempts++
		return errors.New("persistent error")
	})

	if err == nil {
		t.Fatal("Retry should return error when all attempts fail")
	}
	if attempts != maxAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, maxAttempts)
	}
}

func TestRateLimiterNew(t *testing.T) {
	rl := NewRateLimiter(60)
	if rl == nil {
		t.Fatal("NewRateLimiter returned nil")
	}
}

func etTime(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load ET location: %v", err)
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func TestIsMarketOpen(t *testing.T) {
	cal := NewTradingCalendar()

	cases := []struct {
		et   string
		want bool
	}{
		{"2025-03-10 10:00", true},  // Monday mid-session
		{"2025-03-10 09:29", false}, // just before open
		{"2025-03-10 09:30", true},  // exact open
		{"2025-03-10 16:00", false}, // exact close is closed
		{"2025-03-08 12:00", false}, // Saturday
		{"2025-07-04 12:00", false}, // holiday
		{"2025-12-25 10:00", false}, // holiday
	}
	for _, c := range cases {
		if got := cal.IsMarketOpen(etTime(t, c.et)); got != c.want {
			t.Errorf("IsMarketOpen(%s) = %v, want %v", c.et, got, c.want)
		}
	}
}

func TestNextOpen(t *testing.T) {
	cal := NewTradingCalendar()

	cases := []struct {
		et   string
		want string
	}{
		{"2025-03-10 08:00", "2025-03-10 09:30"}, // before open same day
		{"2025-03-10 10:00", "2025-03-11 09:30"}, // mid-session rolls to next day
		{"2025-03-07 20:00", "2025-03-10 09:30"}, // Friday evening skips weekend
		{"2025-07-04 09:00", "2025-07-07 09:30"}, // holiday Friday skips to Monday
	}
	for _, c := range cases {
		got := cal.NextOpen(etTime(t, c.et))
		want := etTime(t, c.want)
		if !got.Equal(want) {
			t.Errorf("NextOpen(%s) = %v, want %v", c.et, got, want)
		}
	}
}

func TestNextClose(t *testing.T) {
	cal := NewTradingCalendar()

	// During the session, close is the same day's 16:00.
	got := cal.NextClose(etTime(t, "2025-03-10 10:00"))
	if want := etTime(t, "2025-03-10 16:00"); !got.Equal(want) {
		t.Errorf("NextClose(open session) = %v, want %v", got, want)
	}

	// After hours, close follows the next open.
	got = cal.NextClose(etTime(t, "2025-03-10 18:00"))
	if want := etTime(t, "2025-03-11 16:00"); !got.Equal(want) {
		t.Errorf("NextClose(after hours) = %v, want %v", got, want)
	}
}

func TestValidateHours(t *testing.T) {
	cases := []struct {
		in   []int
		want []int
	}{
		{[]int{16, 9, 12}, []int{9, 12, 16}},
		{[]int{8, 9, 17, 16}, []int{9, 16}},
		{[]int{10, 10, 10}, []int{10}},
		{[]int{}, []int{}},
		{[]int{0, 25}, []int{}},
	}
	for _, c := range cases {
		got := ValidateHours(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("ValidateHours(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFormatHoursInfo(t *testing.T) {
	if got, want := FormatHoursInfo([]int{15, 9, 11}), "9:00, 11:00, 15:00 ET"; got != want {
		t.Errorf("FormatHoursInfo = %q, want %q", got, want)
	}
	if got, want := FormatHoursInfo(nil), "no session hours configured"; got != want {
		t.Errorf("FormatHoursInfo(nil) = %q, want %q", got, want)
	}
}
