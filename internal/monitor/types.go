// Package monitor ties buttons to their GPIO channel and the clock, turning
// detector callbacks into publishable events.
package monitor

import (
	"time"

	"github.com/sweeney/button-sensor/internal/button"
)

// Config describes one monitored button. A zero Debounce or HoldThreshold
// selects the button package default; pass button options to NewButton to
// set a zero explicitly.
type Config struct {
	Name          string
	Channel       int
	Debounce      time.Duration
	HoldThreshold time.Duration
	HoldRepeats   bool
}

// Event is a recognised gesture ready to be published.
type Event struct {
	Timestamp time.Time
	At        time.Duration // monotonic timestamp the event was recognised at
	Button    string
	Type      button.EventType
	PressID   string        // shared by every event of one press
	Holds     int           // hold count at the time of the event
	HeldFor   time.Duration // how long the button had been down
	Cycle     int
	On        bool
}

// Counts tracks the number of each event type since startup.
type Counts struct {
	Press   int
	Release int
	Click   int
	Hold    int
}

func (c *Counts) add(t button.EventType) {
	switch t {
	case button.EventPress:
		c.Press++
	case button.EventRelease:
		c.Release++
	case button.EventClick:
		c.Click++
	case button.EventHold:
		c.Hold++
	}
}

// ButtonState is a point-in-time view of one button.
type ButtonState struct {
	Name    string
	Channel int
	Pressed bool
	Held    bool
	Holds   int
	HeldFor time.Duration
	Cycle   int
	On      bool
	Counts  Counts
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Buttons   []ButtonState
}
