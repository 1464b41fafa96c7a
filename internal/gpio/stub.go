//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// CdevSampler is not available on non-Linux platforms.
type CdevSampler struct{}

// NewCdevSampler returns an error on non-Linux platforms.
func NewCdevSampler(chip string, lines []Line) (*CdevSampler, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (s *CdevSampler) Read(channel int) (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *CdevSampler) Close() error {
	return nil
}

// RPIOSampler is not available on non-Linux platforms.
type RPIOSampler struct{}

// NewRPIOSampler returns an error on non-Linux platforms.
func NewRPIOSampler(lines []Line) (*RPIOSampler, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (s *RPIOSampler) Read(channel int) (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *RPIOSampler) Close() error {
	return nil
}
