// Package gpio provides button sampling with hardware abstraction.
// The real implementations use the Linux GPIO character device or the
// memory-mapped BCM2835 registers. The fake implementation allows testing
// without hardware.
//
// Wiring polarity is resolved here: callers only ever see "is pressed".
package gpio

import "fmt"

// Sampler reads the pressed state of configured input channels.
type Sampler interface {
	// Read returns whether the button on channel is pressed.
	Read(channel int) (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Wiring describes how a button is connected to its input.
type Wiring string

const (
	// PullDown: external resistor to ground, button closes to Vcc (raw 1 = pressed).
	PullDown Wiring = "pull-down"
	// PullUp: external resistor to Vcc, button closes to ground (raw 0 = pressed).
	PullUp Wiring = "pull-up"
	// InternalPullUp: SoC pull-up enabled, button closes to ground.
	InternalPullUp Wiring = "internal-pull-up"
)

// ParseWiring validates a wiring name.
func ParseWiring(s string) (Wiring, error) {
	switch w := Wiring(s); w {
	case PullDown, PullUp, InternalPullUp:
		return w, nil
	}
	return "", fmt.Errorf("unknown wiring %q (want %s, %s or %s)", s, PullDown, PullUp, InternalPullUp)
}

// Pressed converts a raw line level into the logical pressed state.
func (w Wiring) Pressed(raw int) bool {
	if w == PullDown {
		return raw != 0
	}
	return raw == 0
}

// Line is one input to sample.
type Line struct {
	Channel int // BCM pin / line offset
	Wiring  Wiring
}

// DefaultPin is the BCM pin used when no button is configured.
const DefaultPin = 17

// Backend names.
const (
	BackendCdev   = "cdev"
	BackendRPIO   = "rpio"
	BackendPeriph = "periph"
)

// Open creates a sampler for the named backend.
func Open(backend, chip string, lines []Line) (Sampler, error) {
	switch backend {
	case BackendCdev, "":
		s, err := NewCdevSampler(chip, lines)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendRPIO:
		s, err := NewRPIOSampler(lines)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendPeriph:
		s, err := NewPeriphSampler(lines)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown gpio backend %q", backend)
}
