package gpio

import (
	"errors"
	"fmt"
)

// FakeSampler is a test double that returns scripted pressed states.
type FakeSampler struct {
	// Samples contains the scripted states per channel.
	// Each call to Read(channel) consumes the next sample for that channel.
	Samples map[int][]bool

	// index tracks current position per channel
	index map[int]int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeSampler creates a FakeSampler with the given per-channel samples.
func NewFakeSampler(samples map[int][]bool) *FakeSampler {
	return &FakeSampler{Samples: samples, index: make(map[int]int)}
}

// NewFakeSamplerSingle creates a FakeSampler scripting only one channel.
func NewFakeSamplerSingle(channel int, samples []bool) *FakeSampler {
	return NewFakeSampler(map[int][]bool{channel: samples})
}

// Read returns the next scripted sample for channel.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSampler) Read(channel int) (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	samples := f.Samples[channel]
	if len(samples) == 0 {
		return false, fmt.Errorf("no samples configured for pin %d", channel)
	}
	if f.index == nil {
		f.index = make(map[int]int)
	}

	i := f.index[channel]
	if i < len(samples)-1 {
		f.index[channel] = i + 1
	}
	return samples[i], nil
}

// Close marks the sampler as closed.
func (f *FakeSampler) Close() error {
	if f.Closed {
		return errors.New("already closed")
	}
	f.Closed = true
	return nil
}

// Reset rewinds every channel to its first sample.
func (f *FakeSampler) Reset() {
	f.index = make(map[int]int)
	f.Closed = false
}

// Hold returns n copies of pressed, for building sample scripts.
func Hold(pressed bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = pressed
	}
	return out
}
