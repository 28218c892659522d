package main

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// simGPIO is an in-memory board for running the daemon without hardware.
// Input lines idle high (pull-up), outputs and PWM only record their state.
type simGPIO struct {
	mu    sync.Mutex
	lines map[int]*simLine
	pwm   map[int]*simPWM
}

func newSimGPIO() *simGPIO {
	return &simGPIO{
		lines: make(map[int]*simLine),
		pwm:   make(map[int]*simPWM),
	}
}

func (g *simGPIO) line(pin int) *simLine {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.lines[pin]
	if !ok {
		l = &simLine{}
		l.level.Store(true)
		g.lines[pin] = l
	}
	return l
}

func (g *simGPIO) InputPullUp(pin int) (DigitalInput, error) {
	if pin < 0 {
		return nil, fmt.Errorf("invalid pin %d", pin)
	}
	return g.line(pin), nil
}

func (g *simGPIO) Output(pin int) (DigitalOutput, error) {
	if pin < 0 {
		return nil, fmt.Errorf("invalid pin %d", pin)
	}
	return g.line(pin), nil
}

func (g *simGPIO) PWM(pin int) (PWMOutput, error) {
	if pin < 0 {
		return nil, fmt.Errorf("invalid pin %d", pin)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.pwm[pin]
	if !ok {
		p = &simPWM{}
		g.pwm[pin] = p
	}
	return p, nil
}

func (g *simGPIO) Close() error { return nil }

// simLine is a single line that can be read and driven from any goroutine.
type simLine struct {
	level atomic.Bool
}

func (l *simLine) Read() bool { return l.level.Load() }
func (l *simLine) High()      { l.level.Store(true) }
func (l *simLine) Low()       { l.level.Store(false) }
func (l *simLine) Set(v bool) { l.level.Store(v) }

type simPWM struct {
	freq atomic.Int64
}

func (p *simPWM) Tone(freqHz int) error {
	if freqHz <= 0 {
		return fmt.Errorf("invalid tone frequency %d", freqHz)
	}
	p.freq.Store(int64(freqHz))
	return nil
}

func (p *simPWM) Off() { p.freq.Store(0) }

// Frequency returns the running tone frequency, or 0 when off.
func (p *simPWM) Frequency() int { return int(p.freq.Load()) }

// graySequence is the clockwise order of codes (A + 2*B).
var graySequence = [4]int{0, 1, 3, 2}

// SimKnob animates the A/B/switch lines of a simulated encoder. It emits at
// most one gray transition per Step so that a poller calling Step before every
// sample sees each half-step. Only the daemon goroutine calls it.
type SimKnob struct {
	a, b, sw *simLine

	idx        int
	pending    int // remaining half-steps, sign is direction
	releaseAt  Ticks
	holdActive bool
}

// newSimKnob wires the knob to the given sim lines. The knob rests at code 3
// (both lines high) like a detented encoder with pull-ups.
func newSimKnob(g *simGPIO, pinA, pinB, pinSwitch int) *SimKnob {
	k := &SimKnob{
		a:   g.line(pinA),
		b:   g.line(pinB),
		sw:  g.line(pinSwitch),
		idx: 2,
	}
	k.apply()
	return k
}

func (k *SimKnob) apply() {
	code := graySequence[k.idx]
	k.a.Set(code&1 != 0)
	k.b.Set(code&2 != 0)
}

// Turn queues detents; positive is clockwise. One detent is two half-steps.
func (k *SimKnob) Turn(detents int) {
	k.pending += 2 * detents
}

// Press holds the switch low for holdMS from now.
func (k *SimKnob) Press(now Ticks, holdMS int) {
	k.sw.Low()
	k.releaseAt = now + Ticks(holdMS)
	k.holdActive = true
}

// Busy reports whether queued motion or a press is still in progress.
func (k *SimKnob) Busy() bool {
	return k.pending != 0 || k.holdActive
}

// Step advances the simulation by one poll.
func (k *SimKnob) Step(now Ticks) {
	if k.holdActive && TicksDiff(now, k.releaseAt) >= 0 {
		k.sw.High()
		k.holdActive = false
	}
	switch {
	case k.pending > 0:
		k.idx = (k.idx + 1) % len(graySequence)
		k.pending--
		k.apply()
	case k.pending < 0:
		k.idx = (k.idx + len(graySequence) - 1) % len(graySequence)
		k.pending++
		k.apply()
	}
}
