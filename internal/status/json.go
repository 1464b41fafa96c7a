package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Buttons       []ButtonJSON `json:"buttons"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ButtonJSON is the JSON representation of one button's state.
type ButtonJSON struct {
	Name    string     `json:"name"`
	Pin     int        `json:"pin"`
	Pressed bool       `json:"pressed"`
	Held    bool       `json:"held"`
	Holds   int        `json:"holds"`
	HeldMs  int64      `json:"held_ms"`
	Cycle   int        `json:"cycle"`
	On      bool       `json:"on"`
	Counts  CountsJSON `json:"event_counts"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Press   int `json:"press"`
	Release int `json:"release"`
	Click   int `json:"click"`
	Hold    int `json:"hold"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type   string `json:"type"`
	IP     string `json:"ip"`
	Status string `json:"status"`
	SSID   string `json:"ssid,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64              `json:"poll_ms"`
	HeartbeatMs int64              `json:"heartbeat_ms"`
	Broker      string             `json:"broker"`
	TopicPrefix string             `json:"topic_prefix"`
	HTTPAddr    string             `json:"http_addr"`
	Backend     string             `json:"backend"`
	Buttons     []ButtonConfigJSON `json:"buttons"`
}

// ButtonConfigJSON is the JSON representation of one configured button.
type ButtonConfigJSON struct {
	Name            string `json:"name"`
	Pin             int    `json:"pin"`
	Wiring          string `json:"wiring"`
	DebounceMs      int64  `json:"debounce_ms"`
	HoldThresholdMs int64  `json:"hold_ms"`
	HoldRepeats     bool   `json:"hold_repeats"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Buttons:       make([]ButtonJSON, 0, len(snap.Buttons)),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			TopicPrefix: snap.Config.TopicPrefix,
			HTTPAddr:    snap.Config.HTTPAddr,
			Backend:     snap.Config.Backend,
			Buttons:     make([]ButtonConfigJSON, 0, len(snap.Config.Buttons)),
		},
	}

	for _, b := range snap.Buttons {
		inner.Buttons = append(inner.Buttons, ButtonJSON{
			Name:    b.Name,
			Pin:     b.Channel,
			Pressed: b.Pressed,
			Held:    b.Held,
			Holds:   b.Holds,
			HeldMs:  b.HeldFor.Milliseconds(),
			Cycle:   b.Cycle,
			On:      b.On,
			Counts: CountsJSON{
				Press:   b.Counts.Press,
				Release: b.Counts.Release,
				Click:   b.Counts.Click,
				Hold:    b.Counts.Hold,
			},
		})
	}
	for _, b := range snap.Config.Buttons {
		inner.Config.Buttons = append(inner.Config.Buttons, ButtonConfigJSON(b))
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:   snap.Network.Type,
			IP:     snap.Network.IP,
			Status: snap.Network.Status,
			SSID:   snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
