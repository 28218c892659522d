package main

import (
	"fmt"
	"sync"
	"time"
)

// DateTime is a broken-down local wall-clock reading. Weekday counts from
// Monday = 0.
type DateTime struct {
	Year    int `json:"year"`
	Month   int `json:"month"`
	Day     int `json:"day"`
	Weekday int `json:"weekday"`
	Hour    int `json:"hour"`
	Minute  int `json:"minute"`
	Second  int `json:"second"`
}

// DateTimeOf takes the wall-clock fields of t as-is (no zone conversion).
func DateTimeOf(t time.Time) DateTime {
	return DateTime{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Weekday: (int(t.Weekday()) + 6) % 7,
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
	}
}

// Time returns the wall-clock fields as a time in UTC. The zone carries no
// meaning; it is only a vehicle for arithmetic.
func (d DateTime) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)
}

// MinuteOfDay returns hour*60 + minute.
func (d DateTime) MinuteOfDay() int {
	return d.Hour*60 + d.Minute
}

func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// ClockStatus tells how the clock was last set.
type ClockStatus int

const (
	ClockUnknown  ClockStatus = 0 // never set, set by hand, or last sync failed
	ClockStandard ClockStatus = 1 // CET
	ClockDaylight ClockStatus = 2 // CEST
)

func (s ClockStatus) String() string {
	switch s {
	case ClockStandard:
		return "standard"
	case ClockDaylight:
		return "daylight"
	default:
		return "unknown"
	}
}

// ClockSource holds the current local wall time.
type ClockSource interface {
	Now() DateTime
	Set(DateTime)
}

// rtcEpoch is the power-on value of a battery-less RTC.
var rtcEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// softRTC keeps wall time as a base plus monotonic elapsed time, so host clock
// steps do not move it.
type softRTC struct {
	mu    sync.Mutex
	base  time.Time
	setAt time.Time
	now   func() time.Time
}

func newSoftRTC(start time.Time, now func() time.Time) *softRTC {
	if now == nil {
		now = time.Now
	}
	return &softRTC{base: start, setAt: now(), now: now}
}

func (r *softRTC) Now() DateTime {
	r.mu.Lock()
	defer r.mu.Unlock()
	return DateTimeOf(r.base.Add(r.now().Sub(r.setAt)))
}

func (r *softRTC) Set(d DateTime) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base = d.Time()
	r.setAt = r.now()
}

// LocalClock pairs a ClockSource with its ClockStatus and keeps it on the
// right side of the summer-time switch. Owned by the daemon goroutine.
type LocalClock struct {
	src    ClockSource
	rules  DaylightRuleCache
	status ClockStatus
}

func NewLocalClock(src ClockSource) *LocalClock {
	return &LocalClock{src: src}
}

// Read returns the current local time. When the status is known and the
// summer-time window has been crossed, the source is shifted by one hour and
// the status flipped first.
func (c *LocalClock) Read() (DateTime, ClockStatus) {
	now := c.src.Now()
	off, ok := utcOffset(c.status)
	if !ok {
		return now, c.status
	}

	local := now.Time()
	summer := c.rules.IsSummer(local.Add(-off))
	switch {
	case c.status == ClockStandard && summer:
		now = DateTimeOf(local.Add(time.Hour))
		c.src.Set(now)
		c.status = ClockDaylight
	case c.status == ClockDaylight && !summer:
		now = DateTimeOf(local.Add(-time.Hour))
		c.src.Set(now)
		c.status = ClockStandard
	}
	return now, c.status
}

// Apply installs a synced reading.
func (c *LocalClock) Apply(d DateTime, status ClockStatus) {
	c.src.Set(d)
	c.status = status
}

// SetManual sets the clock to minutes past midnight on 2000-01-01. The
// status becomes unknown, which hides the date and disables the DST shift.
func (c *LocalClock) SetManual(minutes int) {
	t := rtcEpoch.Add(time.Duration(minutes) * time.Minute)
	c.src.Set(DateTimeOf(t))
	c.status = ClockUnknown
}

// MarkUnknown keeps the time but forgets how it was set.
func (c *LocalClock) MarkUnknown() {
	c.status = ClockUnknown
}

func (c *LocalClock) Status() ClockStatus { return c.status }
