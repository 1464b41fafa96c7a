package gpio

import (
	"errors"
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphSampler reads buttons through periph.io's host drivers. Pins are
// looked up by BCM name ("GPIO17").
type PeriphSampler struct {
	pins map[int]periphPin
}

type periphPin struct {
	pin    pgpio.PinIO
	wiring Wiring
}

// NewPeriphSampler initialises the periph host and configures every line
// as an input without edge detection.
func NewPeriphSampler(lines []Line) (*PeriphSampler, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	s := &PeriphSampler{pins: make(map[int]periphPin, len(lines))}
	for _, l := range lines {
		name := fmt.Sprintf("GPIO%d", l.Channel)
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("pin %s not found", name)
		}
		pull := pgpio.Float
		if l.Wiring == InternalPullUp {
			pull = pgpio.PullUp
		}
		if err := p.In(pull, pgpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure %s: %w", name, err)
		}
		s.pins[l.Channel] = periphPin{pin: p, wiring: l.Wiring}
	}
	return s, nil
}

// Read returns whether the button on channel is pressed.
func (s *PeriphSampler) Read(channel int) (bool, error) {
	p, ok := s.pins[channel]
	if !ok {
		return false, fmt.Errorf("pin %d not configured", channel)
	}
	raw := 0
	if p.pin.Read() == pgpio.High {
		raw = 1
	}
	return p.wiring.Pressed(raw), nil
}

// Close leaves every pin as a pulled-down input.
func (s *PeriphSampler) Close() error {
	var errs []error
	for ch, p := range s.pins {
		if err := p.pin.In(pgpio.PullDown, pgpio.NoEdge); err != nil {
			errs = append(errs, fmt.Errorf("reset pin %d: %w", ch, err))
		}
	}
	s.pins = nil
	return errors.Join(errs...)
}
