//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// CdevSampler reads buttons using the Linux GPIO character device.
type CdevSampler struct {
	chip  *gpiocdev.Chip
	lines map[int]*cdevLine
}

type cdevLine struct {
	line   *gpiocdev.Line
	wiring Wiring
}

// NewCdevSampler requests every line as an input on the named chip.
func NewCdevSampler(chip string, lines []Line) (*CdevSampler, error) {
	if chip == "" {
		chip = "gpiochip0"
	}
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &CdevSampler{chip: c, lines: make(map[int]*cdevLine, len(lines))}
	for _, l := range lines {
		line, err := c.RequestLine(l.Channel, gpiocdev.AsInput, biasFor(l.Wiring))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("request pin %d: %w", l.Channel, err)
		}
		s.lines[l.Channel] = &cdevLine{line: line, wiring: l.Wiring}
	}
	return s, nil
}

// biasFor maps wiring onto the line bias. External resistors need the
// internal bias disabled so the two don't fight.
func biasFor(w Wiring) gpiocdev.LineReqOption {
	switch w {
	case InternalPullUp:
		return gpiocdev.WithPullUp
	default:
		return gpiocdev.WithBiasDisabled
	}
}

// Read returns whether the button on channel is pressed.
func (s *CdevSampler) Read(channel int) (bool, error) {
	l, ok := s.lines[channel]
	if !ok {
		return false, fmt.Errorf("pin %d not requested", channel)
	}
	raw, err := l.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", channel, err)
	}
	return l.wiring.Pressed(raw), nil
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults)
// before closing.
func (s *CdevSampler) Close() error {
	var errs []error
	for ch, l := range s.lines {
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", ch, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", ch, err))
		}
	}
	s.lines = nil
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		s.chip = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}
