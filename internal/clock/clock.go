// Package clock provides the monotonic time source consumed by the button
// detector. Timestamps are durations since an arbitrary epoch.
package clock

import "time"

// Clock returns the current monotonic timestamp. Successive calls within a
// run never go backwards.
type Clock interface {
	Now() time.Duration
}

// Monotonic measures elapsed time from the first reading of now.
// time.Time readings from time.Now carry a monotonic component, so wall
// clock steps do not affect Now.
type Monotonic struct {
	epoch time.Time
	now   func() time.Time
}

// NewMonotonic creates a clock whose epoch is the current reading of now.
func NewMonotonic(now func() time.Time) *Monotonic {
	return &Monotonic{epoch: now(), now: now}
}

// Now returns the time elapsed since the epoch.
func (m *Monotonic) Now() time.Duration {
	return m.now().Sub(m.epoch)
}

// Epoch returns the wall-clock time of the epoch.
func (m *Monotonic) Epoch() time.Time {
	return m.epoch
}

// Wall converts an elapsed timestamp back to wall-clock time.
func (m *Monotonic) Wall(d time.Duration) time.Time {
	return m.epoch.Add(d)
}
