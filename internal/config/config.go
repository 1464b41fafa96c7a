// Package config loads the daemon's TOML configuration file.
// CLI flags always take precedence over file values; see cmd/button-sensor.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/gpio"
)

// DefaultPath is read when no -config flag is given. A missing file there is
// not an error.
const DefaultPath = "/etc/button-sensor/config.toml"

// Config represents the configuration file structure.
type Config struct {
	// Poll is the GPIO sampling interval. It must be fine enough to observe
	// the debounce window and hold threshold. Default: 10ms
	Poll Duration `toml:"poll"`

	// Broker is the MQTT broker URL.
	Broker string `toml:"broker"`

	// ClientID is the MQTT client identifier. Default: button-sensor
	ClientID string `toml:"client_id"`

	// TopicPrefix is prepended to every MQTT topic.
	TopicPrefix string `toml:"topic_prefix"`

	// Heartbeat is the interval between HEARTBEAT system events (0 disables).
	Heartbeat Duration `toml:"heartbeat"`

	// HTTP is the status server address (empty disables). Default: DefaultHTTP
	HTTP string `toml:"http"`

	// Backend selects the GPIO driver: cdev, rpio or periph. Default: cdev
	Backend string `toml:"backend"`

	// Chip is the GPIO character device for the cdev backend. Default: gpiochip0
	Chip string `toml:"chip"`

	// HoldRate caps HOLD publications per second (0 disables). Default: DefaultHoldRate
	HoldRate float64 `toml:"hold_rate"`

	// Buttons lists the monitored buttons.
	Buttons []Button `toml:"button"`
}

// Button configures one monitored button.
type Button struct {
	Name        string   `toml:"name"`
	Pin         int      `toml:"pin"`
	Wiring      string   `toml:"wiring"`
	Debounce    Duration `toml:"debounce"`
	Hold        Duration `toml:"hold"`
	HoldRepeats bool     `toml:"hold_repeats"`
}

// Duration is a time.Duration written as a Go duration string ("20ms").
type Duration struct {
	time.Duration
	set bool
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	d.set = true
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// D returns a Duration that counts as explicitly set.
func D(v time.Duration) Duration {
	return Duration{Duration: v, set: true}
}

// IsSet reports whether the value came from the file or a flag.
func (d Duration) IsSet() bool {
	return d.set
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{HTTP: DefaultHTTP, HoldRate: DefaultHoldRate}
	c.applyDefaults()
	return c
}

// Defaults for keys where an explicit zero value means "disabled".
const (
	DefaultHTTP     = ":80"
	DefaultHoldRate = 20
)

func (c *Config) applyDefaults() {
	if !c.Poll.IsSet() {
		c.Poll = D(10 * time.Millisecond)
	}
	if c.Broker == "" {
		c.Broker = "tcp://192.168.1.200:1883"
	}
	if c.ClientID == "" {
		c.ClientID = "button-sensor"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "input/button-sensor"
	}
	if !c.Heartbeat.IsSet() {
		c.Heartbeat = D(15 * time.Minute)
	}
	if c.Backend == "" {
		c.Backend = gpio.BackendCdev
	}
	if c.Chip == "" {
		c.Chip = "gpiochip0"
	}
	if len(c.Buttons) == 0 {
		c.Buttons = []Button{{Name: "button", Pin: gpio.DefaultPin}}
	}
	for i := range c.Buttons {
		b := &c.Buttons[i]
		if b.Wiring == "" {
			b.Wiring = string(gpio.InternalPullUp)
		}
		if !b.Debounce.IsSet() {
			b.Debounce = D(button.DefaultDebounce)
		}
		if !b.Hold.IsSet() {
			b.Hold = D(button.DefaultHoldThreshold)
		}
	}
}

// Load reads a TOML config file and fills in defaults.
//
// Behavior:
//   - If path is empty, DefaultPath is tried; a missing default file yields
//     the built-in defaults.
//   - If path is specified, returns an error if the file doesn't exist.
//   - Returns an error if the file cannot be parsed or fails validation.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if _, err := os.Stat(DefaultPath); errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		path = DefaultPath
	} else if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
	}

	if !md.IsDefined("http") {
		cfg.HTTP = DefaultHTTP
	}
	if !md.IsDefined("hold_rate") {
		cfg.HoldRate = DefaultHoldRate
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks the configuration for values the daemon cannot run with.
// A zero hold threshold is accepted: it fires a hold on every pressed poll.
func (c *Config) Validate() error {
	if c.Poll.Duration <= 0 {
		return fmt.Errorf("poll must be positive, got %v", c.Poll.Duration)
	}
	if c.Heartbeat.Duration < 0 {
		return fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat.Duration)
	}
	switch c.Backend {
	case gpio.BackendCdev, gpio.BackendRPIO, gpio.BackendPeriph:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.HoldRate < 0 {
		return fmt.Errorf("hold_rate must not be negative, got %v", c.HoldRate)
	}

	names := make(map[string]bool)
	pins := make(map[int]bool)
	for i, b := range c.Buttons {
		// Names become MQTT topic levels.
		if !validName.MatchString(b.Name) {
			return fmt.Errorf("button %d: invalid name %q", i, b.Name)
		}
		if names[b.Name] {
			return fmt.Errorf("button %q: duplicate name", b.Name)
		}
		names[b.Name] = true
		if b.Pin < 0 {
			return fmt.Errorf("button %q: invalid pin %d", b.Name, b.Pin)
		}
		if pins[b.Pin] {
			return fmt.Errorf("button %q: pin %d already in use", b.Name, b.Pin)
		}
		pins[b.Pin] = true
		if _, err := gpio.ParseWiring(b.Wiring); err != nil {
			return fmt.Errorf("button %q: %w", b.Name, err)
		}
		if b.Debounce.Duration < 0 || b.Hold.Duration < 0 {
			return fmt.Errorf("button %q: durations must not be negative", b.Name)
		}
	}
	return nil
}
