package main

import "fmt"

// DigitalInput is a single raw input line. Read returns true when the line is
// high.
type DigitalInput interface {
	Read() bool
}

// DigitalOutput is a single push-pull output line.
type DigitalOutput interface {
	High()
	Low()
}

// PWMOutput is a hardware PWM channel producing a 50% duty square wave.
type PWMOutput interface {
	Tone(freqHz int) error
	Off()
}

// GPIO is the board abstraction the daemon runs on. Pins use BCM numbering.
type GPIO interface {
	InputPullUp(pin int) (DigitalInput, error)
	Output(pin int) (DigitalOutput, error)
	PWM(pin int) (PWMOutput, error)
	Close() error
}

const (
	gpioBackendRPIO = "rpio"
	gpioBackendSim  = "sim"
)

// openGPIO opens the configured backend.
func openGPIO(backend string) (GPIO, error) {
	switch backend {
	case gpioBackendRPIO:
		g, err := openRPIO()
		if err != nil {
			return nil, err
		}
		return g, nil
	case gpioBackendSim:
		return newSimGPIO(), nil
	default:
		return nil, fmt.Errorf("unknown gpio backend %q", backend)
	}
}
