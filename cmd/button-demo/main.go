// Command button-demo exercises the button detector on one GPIO pin and logs
// what it sees. It has three modes:
//
//	query      poll the detector; log "Press" once per press and "Held" on
//	           every poll while the press is past the hold threshold
//	callbacks  log from press, release, click and hold handlers
//	hold       log presses and every repeating hold with its count
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/clock"
	"github.com/sweeney/button-sensor/internal/gpio"
)

const (
	modeQuery     = "query"
	modeCallbacks = "callbacks"
	modeHold      = "hold"
)

func main() {
	mode := flag.String("mode", modeQuery, "Demo mode: query, callbacks or hold")
	pin := flag.Int("pin", gpio.DefaultPin, "BCM pin number of the button")
	wiring := flag.String("wiring", string(gpio.InternalPullUp), "Button wiring: pull-down, pull-up or internal-pull-up")
	backend := flag.String("backend", gpio.BackendCdev, "GPIO backend: cdev, rpio or periph")
	poll := flag.Duration("poll", 10*time.Millisecond, "GPIO polling interval")
	flag.Parse()

	if err := run(*mode, *pin, *wiring, *backend, *poll); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(mode string, pin int, wiring, backend string, poll time.Duration) error {
	w, err := gpio.ParseWiring(wiring)
	if err != nil {
		return err
	}
	d, err := newDemo(mode, pin, log.Default())
	if err != nil {
		return err
	}

	sampler, err := gpio.Open(backend, "", []gpio.Line{{Channel: pin, Wiring: w}})
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer sampler.Close()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return d.loop(sampler, clock.NewMonotonic(time.Now), ticker.C, sigCh)
}

// demo drives one detector and logs according to mode.
type demo struct {
	mode   string
	pin    int
	btn    *button.Button
	logger *log.Logger

	down bool
}

func newDemo(mode string, pin int, logger *log.Logger) (*demo, error) {
	d := &demo{mode: mode, pin: pin, btn: button.New(), logger: logger}

	switch mode {
	case modeQuery:
		logger.Println("Button Event Demo")
	case modeCallbacks:
		logger.Println("Button Callback Demo")
		onEvent := func(name string) button.Handler {
			return func(button.View) { logger.Printf("LOG: %s %d", name, pin) }
		}
		d.btn.SetPressHandler(onEvent("doPressHandler"))
		d.btn.SetReleaseHandler(onEvent("doReleaseHandler"))
		d.btn.SetClickHandler(onEvent("doClickHandler"))
		d.btn.SetHoldHandler(onEvent("doHoldHandler"))
	case modeHold:
		logger.Println("Button Hold Demo")
		d.btn.SetPressHandler(func(button.View) { logger.Println("Press.") })
		d.btn.SetHoldHandler(func(v button.View) { logger.Printf("Hold count=%d", v.Holds()) })
		d.btn.SetHoldRepeats(true)
	default:
		return nil, fmt.Errorf("unknown mode %q (want %s, %s or %s)", mode, modeQuery, modeCallbacks, modeHold)
	}
	return d, nil
}

func (d *demo) loop(sampler gpio.Sampler, clk clock.Clock, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			d.logger.Printf("received %v, exiting", s)
			return nil
		case <-tick:
			pressed, err := sampler.Read(d.pin)
			if err != nil {
				d.logger.Printf("gpio read error: %v", err)
				continue
			}
			d.step(pressed, clk.Now())
		}
	}
}

func (d *demo) step(pressed bool, now time.Duration) {
	d.btn.Evaluate(pressed, now)

	if d.mode == modeQuery {
		if d.btn.Pressed() {
			d.logger.Println("LOG: Press")
		}
		if d.btn.IsHeld() {
			d.logger.Println("LOG: Held")
		}
	}

	// Stands in for the status LED.
	if down := d.btn.IsPressed(); down != d.down {
		d.down = down
		d.logger.Printf("led: %s", onOff(down))
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
