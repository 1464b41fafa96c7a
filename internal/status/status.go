// Package status provides a thread-safe status tracker for the button-sensor
// daemon. It is written by the poll loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/button-sensor/internal/monitor"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type   string
	IP     string
	Status string
	SSID   string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	TopicPrefix string
	HTTPAddr    string
	Backend     string
	Buttons     []ButtonConfig
}

// ButtonConfig is the display form of one configured button.
type ButtonConfig struct {
	Name            string
	Pin             int
	Wiring          string
	DebounceMs      int64
	HoldThresholdMs int64
	HoldRepeats     bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Buttons       []monitor.ButtonState
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update replaces the per-button states. Called from the poll loop.
func (t *Tracker) Update(buttons []monitor.ButtonState) {
	t.mu.Lock()
	t.snap.Buttons = buttons
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Buttons = append([]monitor.ButtonState(nil), t.snap.Buttons...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
