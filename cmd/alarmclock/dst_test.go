package main

import (
	"testing"
	"time"
)

func TestDaylightRuleCache_Transitions(t *testing.T) {
	cases := []struct {
		year       int
		start, end time.Time
	}{
		{2023, time.Date(2023, 3, 26, 1, 0, 0, 0, time.UTC), time.Date(2023, 10, 29, 1, 0, 0, 0, time.UTC)},
		{2024, time.Date(2024, 3, 31, 1, 0, 0, 0, time.UTC), time.Date(2024, 10, 27, 1, 0, 0, 0, time.UTC)},
		{2025, time.Date(2025, 3, 30, 1, 0, 0, 0, time.UTC), time.Date(2025, 10, 26, 1, 0, 0, 0, time.UTC)},
	}
	var c DaylightRuleCache
	for _, tc := range cases {
		start, end := c.Transitions(tc.year)
		if !start.Equal(tc.start) || !end.Equal(tc.end) {
			t.Errorf("%d: got %s..%s, want %s..%s", tc.year, start, end, tc.start, tc.end)
		}
		if c.year != tc.year || !c.valid {
			t.Errorf("%d: cache not updated (year=%d valid=%v)", tc.year, c.year, c.valid)
		}
	}
}

func TestDaylightRuleCache_IsSummerEdges(t *testing.T) {
	var c DaylightRuleCache
	start := time.Date(2024, 3, 31, 1, 0, 0, 0, time.UTC)
	end := time.Date(2024, 10, 27, 1, 0, 0, 0, time.UTC)

	cases := []struct {
		at   time.Time
		want bool
	}{
		{start.Add(-time.Second), false},
		{start, true},
		{time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC), true},
		{end.Add(-time.Second), true},
		{end, false},
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := c.IsSummer(tc.at); got != tc.want {
			t.Errorf("IsSummer(%s)=%v, want %v", tc.at, got, tc.want)
		}
	}
}

func TestDaylightRuleCache_LocalFromUTC(t *testing.T) {
	var c DaylightRuleCache

	dt, st := c.LocalFromUTC(time.Date(2024, 1, 15, 6, 30, 0, 0, time.UTC))
	if st != ClockStandard || dt.Hour != 7 || dt.Minute != 30 || dt.Weekday != 0 {
		t.Fatalf("winter: %s %s weekday=%d", dt, st, dt.Weekday)
	}

	dt, st = c.LocalFromUTC(time.Date(2024, 7, 1, 6, 30, 0, 0, time.UTC))
	if st != ClockDaylight || dt.Hour != 8 || dt.Minute != 30 {
		t.Fatalf("summer: %s %s", dt, st)
	}

	// Late evening UTC on New Year's Eve is already next year locally.
	dt, st = c.LocalFromUTC(time.Date(2024, 12, 31, 23, 30, 0, 0, time.UTC))
	if st != ClockStandard || dt.Year != 2025 || dt.Month != 1 || dt.Day != 1 || dt.Hour != 0 {
		t.Fatalf("new year: %s %s", dt, st)
	}
}

func TestDaylightRuleCache_MatchesEuropeBerlin(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	var c DaylightRuleCache
	for ts := time.Date(2023, 1, 1, 0, 30, 0, 0, time.UTC); ts.Year() < 2027; ts = ts.Add(7*time.Hour + 13*time.Minute) {
		dt, _ := c.LocalFromUTC(ts)
		want := DateTimeOf(ts.In(loc))
		if dt != want {
			t.Fatalf("%s: got %s, want %s", ts, dt, want)
		}
	}
}
