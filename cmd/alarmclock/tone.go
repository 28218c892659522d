package main

import (
	"fmt"
	"log/slog"
)

// ToneGenerator produces the alarm beep.
type ToneGenerator interface {
	Start(freqHz int) error
	SetFrequency(freqHz int) error
	Stop() error
}

// pwmTone drives a PWM pin and, optionally, an amplifier enable line. The
// amplifier is muted while the frequency is changed to avoid clicks.
type pwmTone struct {
	pwm          PWMOutput
	amp          DigitalOutput // nil when not wired
	ampActiveLow bool
}

func newPWMTone(pwm PWMOutput, amp DigitalOutput, ampActiveLow bool) *pwmTone {
	t := &pwmTone{pwm: pwm, amp: amp, ampActiveLow: ampActiveLow}
	t.ampEnable(false)
	return t
}

func (t *pwmTone) ampEnable(on bool) {
	if t.amp == nil {
		return
	}
	if on != t.ampActiveLow {
		t.amp.High()
	} else {
		t.amp.Low()
	}
}

func (t *pwmTone) Start(freqHz int) error {
	return t.SetFrequency(freqHz)
}

func (t *pwmTone) SetFrequency(freqHz int) error {
	t.ampEnable(false)
	if err := t.pwm.Tone(freqHz); err != nil {
		return fmt.Errorf("set tone %d Hz: %w", freqHz, err)
	}
	t.ampEnable(true)
	return nil
}

func (t *pwmTone) Stop() error {
	t.pwm.Off()
	t.ampEnable(false)
	return nil
}

// logTone stands in when no PWM pin is configured.
type logTone struct {
	logger *slog.Logger
}

func (t logTone) Start(freqHz int) error {
	t.logger.Debug("tone start", "freq_hz", freqHz)
	return nil
}

func (t logTone) SetFrequency(freqHz int) error {
	t.logger.Debug("tone frequency", "freq_hz", freqHz)
	return nil
}

func (t logTone) Stop() error {
	t.logger.Debug("tone stop")
	return nil
}
