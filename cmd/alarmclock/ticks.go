package main

import (
	"time"

	"golang.org/x/sys/unix"
)

// Ticks is a wrapping millisecond counter, comparable only through TicksDiff.
type Ticks uint32

// TicksDiff returns a-b in milliseconds. Correct across wraparound as long as
// the real distance is below 2^31 ms (~24.8 days).
func TicksDiff(a, b Ticks) int32 {
	return int32(a - b)
}

// TickSource yields the current tick count.
type TickSource interface {
	Now() Ticks
}

// monotonicTicks reads CLOCK_MONOTONIC, which never steps when the wall clock
// is changed by NTP or by hand.
type monotonicTicks struct{}

func (monotonicTicks) Now() Ticks {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		// Only fails for an invalid clock id.
		return Ticks(time.Now().UnixMilli())
	}
	return Ticks(uint64(ts.Sec)*1000 + uint64(ts.Nsec)/1_000_000)
}
