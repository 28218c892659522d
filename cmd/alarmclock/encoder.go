package main

import (
	"golang.org/x/exp/constraints"
)

// grayDelta maps [previous][current] 2-bit gray codes (A + 2*B) to a
// half-step delta. Legal single-bit transitions along 0→1→3→2→0 are ±1;
// no-change and two-bit jumps are 0 (bounce/sampling jitter).
var grayDelta = [4][4]int{
	{0, 1, -1, 0},
	{-1, 0, 0, 1},
	{1, 0, 0, -1},
	{0, -1, 1, 0},
}

// QuadratureEncoder decodes a two-channel Gray-code rotary encoder with a
// push switch into a bounded position in [0, maxPosition].
//
// Position is tracked as doubled = 2*position + 1 and one detent is two
// half-steps. Bounce between two raw codes toggles between two adjacent
// positions and settles where the contacts come to rest.
//
// Speed filter ("fast gear"): every acquisitionWindowMS the position change since
// the last window is inspected; if more than fastGearThreshold, one extra
// ±fastGearStep jump is applied.
//
// Concurrency: QuadratureEncoder is not synchronized. Update mutates doubled
// and position as two separate writes, so a reader on another goroutine may
// observe a torn pair for the duration of one Update. In this daemon only the
// daemon goroutine calls Update and reads Position (single-owner); everything
// else sees the position through Tick events.
type QuadratureEncoder struct {
	a, b DigitalInput
	sw   DigitalInput

	gray     int
	prevGray int

	doubled  int
	position int

	lastSampled int
	lastTs      Ticks

	maxPosition int
}

// NewQuadratureEncoder binds the channel and switch inputs and seeds the state
// from the current line levels, so the first Update records no transition.
//
// initialPosition must lie in [0, maxPosition]; this is not validated here
// (config validation covers it).
func NewQuadratureEncoder(a, b, sw DigitalInput, maxPosition, initialPosition int, now Ticks) *QuadratureEncoder {
	e := &QuadratureEncoder{
		a:           a,
		b:           b,
		sw:          sw,
		maxPosition: maxPosition,
		lastTs:      now,
	}
	e.gray = e.readGray()
	e.prevGray = e.gray
	e.set(initialPosition)
	return e
}

func (e *QuadratureEncoder) readGray() int {
	g := 0
	if e.a.Read() {
		g |= 1
	}
	if e.b.Read() {
		g |= 2
	}
	return g
}

// Update samples both channels once and advances the decoder. It must be
// called at a roughly periodic cadence shorter than the encoder's bounce time.
func (e *QuadratureEncoder) Update(now Ticks) {
	e.gray = e.readGray()
	delta := grayDelta[e.prevGray][e.gray]
	e.prevGray = e.gray

	e.doubled += delta
	e.position = floorDiv(e.doubled, 2)

	if TicksDiff(now, e.lastTs) > acquisitionWindowMS {
		diff := e.position - e.lastSampled
		if abs(diff) > fastGearThreshold {
			e.fastgear(diff)
		}
		e.lastSampled = e.position
		e.lastTs = now
	}

	if e.position > e.maxPosition {
		e.Reset()
	} else if e.position < 0 {
		e.ClampToMax()
	}
}

func (e *QuadratureEncoder) fastgear(diff int) {
	if diff > 0 {
		e.position += fastGearStep
	} else {
		e.position -= fastGearStep
	}
	e.doubled = 2*e.position + 1
	e.lastSampled = e.position
}

// Reset moves the position to 0. Used on overflow and when entering
// set-time mode.
func (e *QuadratureEncoder) Reset() {
	e.set(0)
}

// ClampToMax moves the position to maxPosition. Used on underflow.
func (e *QuadratureEncoder) ClampToMax() {
	e.set(e.maxPosition)
}

// Set moves the position to p, clamped to [0, maxPosition]. The acquisition
// timestamp is left alone.
func (e *QuadratureEncoder) Set(p int) {
	e.set(min(max(p, 0), e.maxPosition))
}

func (e *QuadratureEncoder) set(p int) {
	e.position = p
	e.doubled = 2*p + 1
	e.lastSampled = p
}

// Position returns the decoded position in [0, maxPosition].
func (e *QuadratureEncoder) Position() int { return e.position }

// MaxPosition returns the inclusive upper bound.
func (e *QuadratureEncoder) MaxPosition() int { return e.maxPosition }

// SwitchPressed reports whether the push switch is held. The line is pulled
// up, so pressed reads low.
func (e *QuadratureEncoder) SwitchPressed() bool {
	return !e.sw.Read()
}

// floorDiv divides rounding toward negative infinity. Go's / truncates toward
// zero, which would map doubled == -1 to position 0 and hide an underflow.
func floorDiv[T constraints.Integer](a, b T) T {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
