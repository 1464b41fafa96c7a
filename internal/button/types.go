// Package button contains the debounced edge and gesture detector for a
// single push button. This package has NO external dependencies (no GPIO,
// MQTT, OS, or time.Sleep). Time is always injected as a time.Duration
// measured from an arbitrary monotonic epoch.
package button

import "time"

// Default timings.
const (
	DefaultDebounce      = 20 * time.Millisecond
	DefaultHoldThreshold = 500 * time.Millisecond
)

// EventType identifies a gesture recognised by the detector.
type EventType string

const (
	EventPress   EventType = "PRESS"
	EventRelease EventType = "RELEASE"
	EventClick   EventType = "CLICK"
	EventHold    EventType = "HOLD"
)

// View is the read-only query surface handed to event handlers.
type View interface {
	IsPressed() bool
	WasEdgeThisCycle() bool
	Pressed() bool
	Released() bool
	IsHeld() bool
	Holds() int
	Cycle() (n int, on bool)
	PressedAt() (time.Duration, bool)
	HeldDuration(now time.Duration) time.Duration
	Debounce() time.Duration
	HoldThreshold() time.Duration
	HoldRepeats() bool
}

// Handler is invoked synchronously from Evaluate when an event is recognised.
// It must not call Evaluate on the same button.
type Handler func(v View)

// Handlers holds the optional per-button callbacks. Nil slots are skipped.
type Handlers struct {
	OnPress   Handler
	OnRelease Handler
	OnClick   Handler
	OnHold    Handler
}

// Option configures a Button at construction.
type Option func(*Button)

// WithDebounce sets the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(b *Button) { b.debounce = d }
}

// WithHoldThreshold sets the minimum sustained press before a hold fires.
func WithHoldThreshold(d time.Duration) Option {
	return func(b *Button) { b.holdThreshold = d }
}

// WithHoldRepeats makes hold events repeat every threshold while pressed.
func WithHoldRepeats(repeats bool) Option {
	return func(b *Button) { b.holdRepeats = repeats }
}

// WithHandlers attaches event callbacks.
func WithHandlers(h *Handlers) Option {
	return func(b *Button) { b.handlers = h }
}
