package monitor

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/clock"
	"github.com/sweeney/button-sensor/internal/gpio"
)

const ms = time.Millisecond

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// sequentialIDs replaces uuid generation with press-1, press-2, ...
func sequentialIDs(b *Button) {
	n := 0
	b.newID = func() string {
		n++
		return fmt.Sprintf("press-%d", n)
	}
}

func types(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e.Type)
	}
	return out
}

func TestProcessClick(t *testing.T) {
	b := NewButton(Config{Name: "front", Channel: 17}, nil)
	sequentialIDs(b)

	events := b.Process(true, 0, epoch)
	if len(events) != 1 || events[0].Type != button.EventPress {
		t.Fatalf("expected PRESS, got %v", types(events))
	}
	e := events[0]
	if e.Button != "front" {
		t.Errorf("button: got %q", e.Button)
	}
	if e.PressID != "press-1" {
		t.Errorf("press id: got %q", e.PressID)
	}
	if !e.Timestamp.Equal(epoch) {
		t.Errorf("timestamp: got %v", e.Timestamp)
	}

	events = b.Process(false, 120*ms, epoch)
	if got := strings.Join(types(events), ","); got != "RELEASE,CLICK" {
		t.Fatalf("expected RELEASE,CLICK, got %s", got)
	}
	for _, e := range events {
		if e.PressID != "press-1" {
			t.Errorf("%s: press id %q, want press-1", e.Type, e.PressID)
		}
		if e.HeldFor != 120*ms {
			t.Errorf("%s: held for %v, want 120ms", e.Type, e.HeldFor)
		}
		if !e.Timestamp.Equal(epoch.Add(120 * ms)) {
			t.Errorf("%s: timestamp %v", e.Type, e.Timestamp)
		}
	}

	c := b.Counts()
	if c.Press != 1 || c.Release != 1 || c.Click != 1 || c.Hold != 0 {
		t.Errorf("counts: %+v", c)
	}
}

func TestProcessRepeatingHold(t *testing.T) {
	b := NewButton(Config{Name: "b", HoldThreshold: 100 * ms, HoldRepeats: true}, nil)
	sequentialIDs(b)

	b.Process(true, 0, epoch)
	var holds []Event
	for now := 50 * ms; now <= 300*ms; now += 50 * ms {
		holds = append(holds, b.Process(true, now, epoch)...)
	}

	if len(holds) != 3 {
		t.Fatalf("expected 3 holds, got %d", len(holds))
	}
	wantCycle := []struct {
		n  int
		on bool
	}{{1, true}, {1, false}, {2, true}}
	for i, e := range holds {
		if e.Holds != i+1 {
			t.Errorf("hold %d: holds=%d", i, e.Holds)
		}
		if e.Cycle != wantCycle[i].n || e.On != wantCycle[i].on {
			t.Errorf("hold %d: cycle (%d, %v), want (%d, %v)", i, e.Cycle, e.On, wantCycle[i].n, wantCycle[i].on)
		}
		if e.PressID != "press-1" {
			t.Errorf("hold %d: press id %q", i, e.PressID)
		}
	}

	events := b.Process(false, 350*ms, epoch)
	if got := strings.Join(types(events), ","); got != "RELEASE" {
		t.Errorf("expected RELEASE only, got %s", got)
	}
}

func TestPressIDsAreUnique(t *testing.T) {
	b := NewButton(Config{Name: "b"}, nil)

	first := b.Process(true, 0, epoch)[0].PressID
	b.Process(false, 100*ms, epoch)
	second := b.Process(true, 200*ms, epoch)[0].PressID

	if first == second {
		t.Error("each press should get a new id")
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("press id %q is not a uuid: %v", first, err)
	}
}

func TestUserHandlersCalledAfterRecording(t *testing.T) {
	var seen []string
	user := &button.Handlers{
		OnPress: func(v button.View) {
			if !v.IsPressed() {
				t.Error("press handler should see button down")
			}
			seen = append(seen, "press")
		},
		OnClick: func(button.View) { seen = append(seen, "click") },
	}
	b := NewButton(Config{Name: "b"}, user)

	b.Process(true, 0, epoch)
	b.Process(false, 50*ms, epoch)

	if strings.Join(seen, ",") != "press,click" {
		t.Errorf("user handlers: got %v", seen)
	}
}

func TestConfigDefaults(t *testing.T) {
	b := NewButton(Config{Name: "b"}, nil)
	d := b.Detector()
	if d.Debounce() != button.DefaultDebounce {
		t.Errorf("debounce: got %v", d.Debounce())
	}
	if d.HoldThreshold() != button.DefaultHoldThreshold {
		t.Errorf("hold threshold: got %v", d.HoldThreshold())
	}
}

func TestOptionsOverrideConfig(t *testing.T) {
	b := NewButton(Config{Name: "b", Debounce: 50 * ms}, nil,
		button.WithDebounce(0), button.WithHoldThreshold(0))
	d := b.Detector()
	if d.Debounce() != 0 {
		t.Errorf("debounce: got %v, want 0", d.Debounce())
	}
	if d.HoldThreshold() != 0 {
		t.Errorf("hold threshold: got %v, want 0", d.HoldThreshold())
	}
}

func TestGroupPoll(t *testing.T) {
	sampler := gpio.NewFakeSampler(map[int][]bool{
		17: {false, true, true, false},
		27: {false, false, true, true},
	})
	clk := &clock.Fake{}
	g := NewGroup(sampler, clk,
		epoch,
		NewButton(Config{Name: "a", Channel: 17}, nil),
		NewButton(Config{Name: "b", Channel: 27}, nil),
	)

	var all []Event
	for i := 0; i < 4; i++ {
		events, err := g.Poll()
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		all = append(all, events...)
		clk.Advance(50 * ms)
	}

	var got []string
	for _, e := range all {
		got = append(got, e.Button+":"+string(e.Type))
	}
	want := "a:PRESS,b:PRESS,a:RELEASE,a:CLICK"
	if strings.Join(got, ",") != want {
		t.Errorf("got %s, want %s", strings.Join(got, ","), want)
	}

	snap := g.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 button states, got %d", len(snap))
	}
	if snap[0].Pressed || !snap[1].Pressed {
		t.Errorf("snapshot: a=%v b=%v", snap[0].Pressed, snap[1].Pressed)
	}
	if snap[1].HeldFor != 50*ms {
		t.Errorf("b held for %v, want 50ms", snap[1].HeldFor)
	}
	if snap[0].Counts.Click != 1 {
		t.Errorf("a clicks: %d", snap[0].Counts.Click)
	}
}

func TestGroupPollReadErrorSkipsButton(t *testing.T) {
	sampler := gpio.NewFakeSampler(map[int][]bool{17: {true}})
	clk := &clock.Fake{}
	g := NewGroup(sampler, clk, epoch,
		NewButton(Config{Name: "ok", Channel: 17}, nil),
		NewButton(Config{Name: "missing", Channel: 99}, nil),
	)

	events, err := g.Poll()
	if err == nil {
		t.Fatal("expected error for unscripted channel")
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("error should name the button: %v", err)
	}
	if len(events) != 1 || events[0].Button != "ok" {
		t.Errorf("expected PRESS from ok button, got %+v", events)
	}
}

func TestGroupPollSamplerError(t *testing.T) {
	sampler := gpio.NewFakeSamplerSingle(17, []bool{true})
	sampler.ReadError = errors.New("gpio fault")
	g := NewGroup(sampler, &clock.Fake{}, epoch, NewButton(Config{Name: "a", Channel: 17}, nil))

	events, err := g.Poll()
	if !errors.Is(err, sampler.ReadError) {
		t.Errorf("expected wrapped gpio fault, got %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestCheckHeartbeat(t *testing.T) {
	clk := &clock.Fake{}
	g := NewGroup(gpio.NewFakeSamplerSingle(17, []bool{false}), clk, epoch,
		NewButton(Config{Name: "a", Channel: 17}, nil))

	if hb := g.CheckHeartbeat(time.Hour, 0); hb != nil {
		t.Error("heartbeat should be disabled with zero interval")
	}
	if hb := g.CheckHeartbeat(10*time.Minute, 15*time.Minute); hb != nil {
		t.Error("heartbeat should not fire before interval")
	}

	hb := g.CheckHeartbeat(15*time.Minute, 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("uptime: got %v", hb.Uptime)
	}
	if !hb.Timestamp.Equal(epoch.Add(15 * time.Minute)) {
		t.Errorf("timestamp: got %v", hb.Timestamp)
	}
	if len(hb.Buttons) != 1 || hb.Buttons[0].Name != "a" {
		t.Errorf("buttons: %+v", hb.Buttons)
	}

	if hb := g.CheckHeartbeat(20*time.Minute, 15*time.Minute); hb != nil {
		t.Error("heartbeat should reset after firing")
	}
	if hb := g.CheckHeartbeat(30*time.Minute, 15*time.Minute); hb == nil {
		t.Error("expected second heartbeat")
	}
}
