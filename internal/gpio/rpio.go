//go:build linux

package gpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPIOSampler reads buttons through the memory-mapped BCM2835 GPIO
// registers. Use it on kernels without the GPIO character device.
type RPIOSampler struct {
	pins map[int]Wiring
}

// NewRPIOSampler maps GPIO memory and configures every pin as an input.
func NewRPIOSampler(lines []Line) (*RPIOSampler, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio memory: %w", err)
	}

	s := &RPIOSampler{pins: make(map[int]Wiring, len(lines))}
	for _, l := range lines {
		pin := rpio.Pin(l.Channel)
		pin.Input()
		if l.Wiring == InternalPullUp {
			pin.PullUp()
		} else {
			pin.PullOff()
		}
		s.pins[l.Channel] = l.Wiring
	}
	return s, nil
}

// Read returns whether the button on channel is pressed.
func (s *RPIOSampler) Read(channel int) (bool, error) {
	w, ok := s.pins[channel]
	if !ok {
		return false, fmt.Errorf("pin %d not configured", channel)
	}
	return w.Pressed(int(rpio.Pin(channel).Read())), nil
}

// Close restores pull-down on every pin and unmaps GPIO memory.
func (s *RPIOSampler) Close() error {
	for ch := range s.pins {
		rpio.Pin(ch).PullDown()
	}
	s.pins = nil
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close gpio memory: %w", err)
	}
	return nil
}
