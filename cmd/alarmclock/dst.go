package main

import "time"

const (
	standardOffset = 1 * time.Hour // CET
	daylightOffset = 2 * time.Hour // CEST
)

// DaylightRuleCache computes the EU summer-time window (last Sunday of March
// 01:00 UTC to last Sunday of October 01:00 UTC) and remembers it for the last
// year asked about. Not safe for concurrent use; each owner keeps its own.
type DaylightRuleCache struct {
	year  int
	start time.Time
	end   time.Time
	valid bool
}

// Transitions returns the UTC start and end of summer time in year.
func (c *DaylightRuleCache) Transitions(year int) (start, end time.Time) {
	if !c.valid || c.year != year {
		c.year = year
		c.start = lastSundayAt0100UTC(year, time.March)
		c.end = lastSundayAt0100UTC(year, time.October)
		c.valid = true
	}
	return c.start, c.end
}

// IsSummer reports whether the instant utc falls inside summer time.
func (c *DaylightRuleCache) IsSummer(utc time.Time) bool {
	utc = utc.UTC()
	start, end := c.Transitions(utc.Year())
	return !utc.Before(start) && utc.Before(end)
}

// LocalFromUTC converts an instant to local wall time and the matching status.
func (c *DaylightRuleCache) LocalFromUTC(utc time.Time) (DateTime, ClockStatus) {
	if c.IsSummer(utc) {
		return DateTimeOf(utc.UTC().Add(daylightOffset)), ClockDaylight
	}
	return DateTimeOf(utc.UTC().Add(standardOffset)), ClockStandard
}

func lastSundayAt0100UTC(year int, month time.Month) time.Time {
	// Day 0 of the next month is the last day of this one.
	t := time.Date(year, month+1, 0, 1, 0, 0, 0, time.UTC)
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// utcOffset returns the offset from UTC for a known status.
func utcOffset(s ClockStatus) (time.Duration, bool) {
	switch s {
	case ClockStandard:
		return standardOffset, true
	case ClockDaylight:
		return daylightOffset, true
	default:
		return 0, false
	}
}
