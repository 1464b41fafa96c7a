package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/clock"
	"github.com/sweeney/button-sensor/internal/gpio"
)

// Button is a named detector bound to a GPIO channel.
type Button struct {
	name    string
	channel int
	det     *button.Button

	user    *button.Handlers
	newID   func() string
	pressID string
	counts  Counts

	// set for the duration of process so handlers can stamp events
	now     time.Duration
	epoch   time.Time
	pending []Event
}

// NewButton creates a monitored button. user handlers, if non-nil, are
// called after the monitor has recorded each event. opts are applied after
// cfg, so an explicit button.WithDebounce(0) disables debouncing.
func NewButton(cfg Config, user *button.Handlers, opts ...button.Option) *Button {
	base := []button.Option{button.WithHoldRepeats(cfg.HoldRepeats)}
	if cfg.Debounce > 0 {
		base = append(base, button.WithDebounce(cfg.Debounce))
	}
	if cfg.HoldThreshold > 0 {
		base = append(base, button.WithHoldThreshold(cfg.HoldThreshold))
	}

	b := &Button{
		name:    cfg.Name,
		channel: cfg.Channel,
		det:     button.New(append(base, opts...)...),
		user:    user,
		newID:   func() string { return uuid.NewString() },
	}
	b.det.SetHandlers(&button.Handlers{
		OnPress:   b.record(button.EventPress),
		OnRelease: b.record(button.EventRelease),
		OnClick:   b.record(button.EventClick),
		OnHold:    b.record(button.EventHold),
	})
	return b
}

func (b *Button) record(t button.EventType) button.Handler {
	return func(v button.View) {
		if t == button.EventPress {
			b.pressID = b.newID()
		}
		n, on := v.Cycle()
		e := Event{
			Timestamp: b.epoch.Add(b.now),
			At:        b.now,
			Button:    b.name,
			Type:      t,
			PressID:   b.pressID,
			Holds:     v.Holds(),
			Cycle:     n,
			On:        on,
		}
		if at, ok := v.PressedAt(); ok {
			e.HeldFor = b.now - at
		}
		b.pending = append(b.pending, e)
		b.counts.add(t)

		if b.user != nil {
			if h := userHandler(b.user, t); h != nil {
				h(v)
			}
		}
	}
}

func userHandler(h *button.Handlers, t button.EventType) button.Handler {
	switch t {
	case button.EventPress:
		return h.OnPress
	case button.EventRelease:
		return h.OnRelease
	case button.EventClick:
		return h.OnClick
	case button.EventHold:
		return h.OnHold
	}
	return nil
}

// Process feeds one sample and returns the events it produced, in dispatch
// order. epoch is the wall-clock time of the clock's zero.
func (b *Button) Process(pressed bool, now time.Duration, epoch time.Time) []Event {
	b.now = now
	b.epoch = epoch
	b.pending = nil
	b.det.Evaluate(pressed, now)
	events := b.pending
	b.pending = nil
	return events
}

// Name returns the button name.
func (b *Button) Name() string { return b.name }

// Channel returns the GPIO channel.
func (b *Button) Channel() int { return b.channel }

// Detector exposes the underlying detector for queries and runtime
// configuration.
func (b *Button) Detector() *button.Button { return b.det }

// Counts returns event counts since startup.
func (b *Button) Counts() Counts { return b.counts }

// State returns a point-in-time view of the button at now.
func (b *Button) State(now time.Duration) ButtonState {
	n, on := b.det.Cycle()
	return ButtonState{
		Name:    b.name,
		Channel: b.channel,
		Pressed: b.det.IsPressed(),
		Held:    b.det.IsHeld(),
		Holds:   b.det.Holds(),
		HeldFor: b.det.HeldDuration(now),
		Cycle:   n,
		On:      on,
		Counts:  b.counts,
	}
}

// Group polls a set of independent buttons from one sampler.
type Group struct {
	buttons       []*Button
	sampler       gpio.Sampler
	clock         clock.Clock
	epoch         time.Time
	lastHeartbeat time.Duration
	lastPoll      time.Duration
}

// NewGroup creates a group. epoch is the wall-clock time of the clock's zero,
// used to stamp events.
func NewGroup(sampler gpio.Sampler, c clock.Clock, epoch time.Time, buttons ...*Button) *Group {
	return &Group{
		buttons:       buttons,
		sampler:       sampler,
		clock:         c,
		epoch:         epoch,
		lastHeartbeat: c.Now(),
	}
}

// Buttons returns the monitored buttons in configuration order.
func (g *Group) Buttons() []*Button { return g.buttons }

// Poll samples every button once at a single clock reading.
// A read failure skips that button for this cycle; events from the others
// are still returned together with the joined error.
func (g *Group) Poll() ([]Event, error) {
	now := g.clock.Now()
	g.lastPoll = now

	var events []Event
	var errs []error
	for _, b := range g.buttons {
		pressed, err := g.sampler.Read(b.channel)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
			continue
		}
		events = append(events, b.Process(pressed, now, g.epoch)...)
	}
	return events, errors.Join(errs...)
}

// LastPoll returns the clock reading of the most recent Poll.
func (g *Group) LastPoll() time.Duration { return g.lastPoll }

// Snapshot returns the state of every button as of the last poll.
func (g *Group) Snapshot() []ButtonState {
	out := make([]ButtonState, len(g.buttons))
	for i, b := range g.buttons {
		out[i] = b.State(g.lastPoll)
	}
	return out
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (g *Group) CheckHeartbeat(now time.Duration, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now-g.lastHeartbeat < interval {
		return nil
	}

	g.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: g.epoch.Add(now),
		Uptime:    now,
		Buttons:   g.Snapshot(),
	}
}
