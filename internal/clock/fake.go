package clock

import "time"

// Fake is a manually driven clock for tests.
type Fake struct {
	T time.Duration
}

// Now returns the current fake timestamp.
func (f *Fake) Now() time.Duration {
	return f.T
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.T += d
}
