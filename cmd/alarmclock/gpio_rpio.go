package main

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpioGPIO drives the Raspberry Pi GPIO block through /dev/gpiomem (inputs and
// outputs) and /dev/mem (PWM clock).
type rpioGPIO struct{}

func openRPIO() (*rpioGPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	return &rpioGPIO{}, nil
}

func (g *rpioGPIO) InputPullUp(pin int) (DigitalInput, error) {
	p, err := rpioPin(pin)
	if err != nil {
		return nil, err
	}
	p.Input()
	p.Pull(rpio.PullUp)
	return rpioInput{pin: p}, nil
}

func (g *rpioGPIO) Output(pin int) (DigitalOutput, error) {
	p, err := rpioPin(pin)
	if err != nil {
		return nil, err
	}
	p.Output()
	return p, nil
}

func (g *rpioGPIO) PWM(pin int) (PWMOutput, error) {
	p, err := rpioPin(pin)
	if err != nil {
		return nil, err
	}
	switch pin {
	case 12, 13, 18, 19:
	default:
		return nil, fmt.Errorf("pin %d has no hardware pwm", pin)
	}
	out := &rpioPWM{pin: p}
	out.Off()
	return out, nil
}

func (g *rpioGPIO) Close() error {
	return rpio.Close()
}

func rpioPin(pin int) (rpio.Pin, error) {
	if pin < 0 || pin > 27 {
		return 0, fmt.Errorf("invalid bcm pin %d", pin)
	}
	return rpio.Pin(pin), nil
}

type rpioInput struct {
	pin rpio.Pin
}

func (i rpioInput) Read() bool {
	return i.pin.Read() == rpio.High
}

type rpioPWM struct {
	pin rpio.Pin
}

// Tone runs the pin at freqHz. The PWM clock is set to freqHz*toneCycleLen so a
// toneDutyLen/toneCycleLen duty gives a square wave at the requested pitch.
func (p *rpioPWM) Tone(freqHz int) error {
	if freqHz <= 0 {
		return fmt.Errorf("invalid tone frequency %d", freqHz)
	}
	p.pin.Mode(rpio.Pwm)
	p.pin.Freq(freqHz * toneCycleLen)
	p.pin.DutyCycle(toneDutyLen, toneCycleLen)
	return nil
}

func (p *rpioPWM) Off() {
	p.pin.Output()
	p.pin.Low()
}
