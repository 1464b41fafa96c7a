package button

import "time"

// Button tracks the debounced state of one input and recognises press,
// release, click and hold gestures.
//
// Not safe for concurrent use: Evaluate is expected to be called from a
// single polling loop.
type Button struct {
	current  bool
	previous bool
	changed  bool

	debounce time.Duration
	lastEdge time.Duration
	edgeSeen bool

	// pressedAt is only meaningful while down is true.
	pressedAt time.Duration
	down      bool

	holdThreshold time.Duration
	holdRepeats   bool
	holds         int
	holdArmed     bool

	handlers *Handlers
}

// New creates a released button with default timings.
func New(opts ...Option) *Button {
	b := &Button{
		debounce:      DefaultDebounce,
		holdThreshold: DefaultHoldThreshold,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Evaluate feeds one polarity-resolved sample taken at now.
// now must not go backwards between calls.
func (b *Button) Evaluate(pressed bool, now time.Duration) {
	b.previous = b.current
	b.current = pressed

	if b.current == b.previous {
		b.changed = false
		b.checkHold(now)
		return
	}

	// Bounces inside the window are dropped, not delayed.
	if b.edgeSeen && now-b.lastEdge < b.debounce {
		b.current = b.previous
		b.changed = false
		return
	}

	b.lastEdge = now
	b.edgeSeen = true
	b.changed = true

	if b.current {
		b.pressedAt = now
		b.down = true
		b.holds = 0
		b.holdArmed = true
		b.dispatch(EventPress)
		return
	}

	b.dispatch(EventRelease)
	// Don't fire both hold and click.
	if b.holds == 0 {
		b.dispatch(EventClick)
	}
	b.down = false
}

func (b *Button) checkHold(now time.Duration) {
	if !b.down {
		return
	}

	held := now - b.pressedAt
	if b.holdRepeats {
		if held < b.holdThreshold*time.Duration(b.holds+1) {
			return
		}
	} else if !b.holdArmed || held < b.holdThreshold {
		return
	}

	b.holds++
	b.holdArmed = false
	b.dispatch(EventHold)
}

func (b *Button) dispatch(event EventType) {
	if b.handlers == nil {
		return
	}

	var h Handler
	switch event {
	case EventPress:
		h = b.handlers.OnPress
	case EventRelease:
		h = b.handlers.OnRelease
	case EventClick:
		h = b.handlers.OnClick
	case EventHold:
		h = b.handlers.OnHold
	}
	if h != nil {
		h(b)
	}
}

// IsPressed reports whether the button is currently down.
func (b *Button) IsPressed() bool {
	return b.down
}

// WasEdgeThisCycle reports whether the last Evaluate accepted an edge.
func (b *Button) WasEdgeThisCycle() bool {
	return b.changed
}

// Pressed reports whether the button went down on the last Evaluate.
func (b *Button) Pressed() bool {
	return b.changed && b.current
}

// Released reports whether the button came up on the last Evaluate.
func (b *Button) Released() bool {
	return b.changed && !b.current
}

// IsHeld reports whether the current press has crossed the hold threshold.
func (b *Button) IsHeld() bool {
	return b.down && b.holds > 0
}

// Holds returns the number of hold events fired during the current press.
// The first hold is 1.
func (b *Button) Holds() int {
	return b.holds
}

// Cycle pairs successive hold events into on/off phases, for blinking
// feedback during a long press. It returns the 1-based cycle number and
// whether the cycle is in its on phase, or (0, false) if not held.
func (b *Button) Cycle() (n int, on bool) {
	if !b.IsHeld() {
		return 0, false
	}
	return (b.holds + 1) / 2, b.holds%2 == 1
}

// PressedAt returns when the current press was accepted.
func (b *Button) PressedAt() (time.Duration, bool) {
	return b.pressedAt, b.down
}

// HeldDuration returns how long the button has been down at now, or zero
// if it is released.
func (b *Button) HeldDuration(now time.Duration) time.Duration {
	if !b.down {
		return 0
	}
	return now - b.pressedAt
}

// Debounce returns the debounce window.
func (b *Button) Debounce() time.Duration {
	return b.debounce
}

// HoldThreshold returns the hold threshold.
func (b *Button) HoldThreshold() time.Duration {
	return b.holdThreshold
}

// HoldRepeats reports whether hold events repeat.
func (b *Button) HoldRepeats() bool {
	return b.holdRepeats
}

// SetHoldThreshold changes the hold threshold. Press history is kept.
func (b *Button) SetHoldThreshold(d time.Duration) {
	b.holdThreshold = d
}

// SetHoldRepeats switches between single and repeating hold events.
// Press history is kept.
func (b *Button) SetHoldRepeats(repeats bool) {
	b.holdRepeats = repeats
}

// SetHandlers replaces the whole handler set. Passing nil removes all
// callbacks.
func (b *Button) SetHandlers(h *Handlers) {
	b.handlers = h
}

// SetPressHandler sets the press callback.
func (b *Button) SetPressHandler(h Handler) {
	b.ensureHandlers().OnPress = h
}

// SetReleaseHandler sets the release callback.
func (b *Button) SetReleaseHandler(h Handler) {
	b.ensureHandlers().OnRelease = h
}

// SetClickHandler sets the click callback.
func (b *Button) SetClickHandler(h Handler) {
	b.ensureHandlers().OnClick = h
}

// SetHoldHandler sets the hold callback.
func (b *Button) SetHoldHandler(h Handler) {
	b.ensureHandlers().OnHold = h
}

func (b *Button) ensureHandlers() *Handlers {
	if b.handlers == nil {
		b.handlers = &Handlers{}
	}
	return b.handlers
}
