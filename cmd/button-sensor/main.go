// Command button-sensor monitors GPIO push buttons and publishes press,
// release, click and hold events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/clock"
	"github.com/sweeney/button-sensor/internal/config"
	"github.com/sweeney/button-sensor/internal/gpio"
	"github.com/sweeney/button-sensor/internal/monitor"
	"github.com/sweeney/button-sensor/internal/mqtt"
	"github.com/sweeney/button-sensor/internal/status"
	"github.com/sweeney/button-sensor/internal/web"
)

func main() {
	configPath := flag.String("config", "", "TOML config file (default "+config.DefaultPath+" if present)")
	poll := flag.Duration("poll", 10*time.Millisecond, "GPIO polling interval")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", config.DefaultHTTP, "HTTP status address (empty to disable)")
	printState := flag.Bool("print-state", false, "Print current button states and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll":
			cfg.Poll = config.D(*poll)
		case "broker":
			cfg.Broker = *broker
		case "heartbeat":
			cfg.Heartbeat = config.D(*heartbeat)
		case "http":
			cfg.HTTP = *httpAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printState bool) error {
	// Initialize GPIO
	lines := make([]gpio.Line, len(cfg.Buttons))
	for i, b := range cfg.Buttons {
		w, err := gpio.ParseWiring(b.Wiring)
		if err != nil {
			return fmt.Errorf("button %s: %w", b.Name, err)
		}
		lines[i] = gpio.Line{Channel: b.Pin, Wiring: w}
	}
	sampler, err := gpio.Open(cfg.Backend, cfg.Chip, lines)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer sampler.Close()

	// Print state mode
	if printState {
		for _, b := range cfg.Buttons {
			pressed, err := sampler.Read(b.Pin)
			if err != nil {
				return fmt.Errorf("read gpio: %w", err)
			}
			fmt.Printf("%s (pin %d): %s\n", b.Name, b.Pin, stateString(pressed))
		}
		return nil
	}

	clk := clock.NewMonotonic(time.Now)
	group := monitor.NewGroup(sampler, clk, clk.Epoch(), newButtons(cfg)...)

	// Initialize MQTT
	mqttPub, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID, cfg.TopicPrefix)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer mqttPub.Close()
	publisher := mqtt.NewThrottle(mqttPub, cfg.HoldRate)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(clk.Epoch(), statusConfig(cfg))
	tracker.Update(group.Snapshot())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	hub := web.NewHub()
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, hub)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: poll=%v buttons=%d broker=%s heartbeat=%v backend=%s",
		cfg.Poll.Duration, len(cfg.Buttons), cfg.Broker, cfg.Heartbeat.Duration, cfg.Backend)

	ticker := time.NewTicker(cfg.Poll.Duration)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(group, publisher, publisher, tracker, hub, cfg.Heartbeat.Duration, ticker.C, sigCh)
}

func newButtons(cfg *config.Config) []*monitor.Button {
	out := make([]*monitor.Button, len(cfg.Buttons))
	for i, b := range cfg.Buttons {
		out[i] = monitor.NewButton(monitor.Config{
			Name:        b.Name,
			Channel:     b.Pin,
			HoldRepeats: b.HoldRepeats,
		}, nil,
			button.WithDebounce(b.Debounce.Duration),
			button.WithHoldThreshold(b.Hold.Duration),
		)
	}
	return out
}

func statusConfig(cfg *config.Config) status.Config {
	sc := status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		TopicPrefix: cfg.TopicPrefix,
		HTTPAddr:    cfg.HTTP,
		Backend:     cfg.Backend,
	}
	for _, b := range cfg.Buttons {
		sc.Buttons = append(sc.Buttons, status.ButtonConfig{
			Name:            b.Name,
			Pin:             b.Pin,
			Wiring:          b.Wiring,
			DebounceMs:      b.Debounce.Milliseconds(),
			HoldThresholdMs: b.Hold.Milliseconds(),
			HoldRepeats:     b.HoldRepeats,
		})
	}
	return sc
}

// runLoop polls the group on every tick until a signal arrives. tracker,
// mqttStatus and hub may be nil.
func runLoop(group *monitor.Group, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, hub *web.Hub, heartbeat time.Duration, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: time.Now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				tracker.Update(group.Snapshot())
				snap := tracker.Snapshot()
				event.Timestamp = snap.Now
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			events, err := group.Poll()
			if err != nil {
				// Buttons that did read still produced events.
				log.Printf("gpio read error: %v", err)
			}

			for _, event := range events {
				logEvent(event)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
				if hub != nil {
					if payload, err := mqtt.FormatPayload(event); err == nil {
						hub.Broadcast(payload)
					}
				}
			}

			// Check for heartbeat
			if hbData := group.CheckHeartbeat(group.LastPoll(), heartbeat); hbData != nil {
				for _, b := range hbData.Buttons {
					log.Printf("heartbeat: %s uptime=%v press=%d release=%d click=%d hold=%d",
						b.Name, hbData.Uptime, b.Counts.Press, b.Counts.Release, b.Counts.Click, b.Counts.Hold)
				}

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					tracker.Update(hbData.Buttons)
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(group.Snapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

func logEvent(e monitor.Event) {
	switch e.Type {
	case button.EventHold:
		log.Printf("event: %s %s holds=%d held=%v cycle=%d on=%t", e.Button, e.Type, e.Holds, e.HeldFor, e.Cycle, e.On)
	case button.EventClick, button.EventRelease:
		log.Printf("event: %s %s held=%v", e.Button, e.Type, e.HeldFor)
	default:
		log.Printf("event: %s %s", e.Button, e.Type)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType     = "NETWORK_TYPE"
	envNetworkIP       = "NETWORK_IP"
	envNetworkStatus   = "NETWORK_STATUS"
	envNetworkWifiSSID = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:   os.Getenv(envNetworkType),
		IP:     os.Getenv(envNetworkIP),
		Status: s,
		SSID:   os.Getenv(envNetworkWifiSSID),
	}
}

func stateString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
