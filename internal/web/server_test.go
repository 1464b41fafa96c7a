package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/button-sensor/internal/monitor"
	"github.com/sweeney/button-sensor/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, *Hub) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      10,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		TopicPrefix: "input/button-sensor",
		HTTPAddr:    ":80",
		Backend:     "cdev",
		Buttons: []status.ButtonConfig{
			{Name: "front", Pin: 17, Wiring: "internal-pull-up", DebounceMs: 20, HoldThresholdMs: 500},
		},
	}
	tr := status.NewTracker(start, cfg)
	hub := NewHub()
	srv := New(":0", tr, hub)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	return ts, tr, hub
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update([]monitor.ButtonState{{
		Name:    "front",
		Channel: 17,
		Pressed: true,
		Counts:  monitor.Counts{Press: 5, Release: 4, Click: 3, Hold: 1},
	}})
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if len(sj.Status.Buttons) != 1 {
		t.Fatalf("expected 1 button, got %d", len(sj.Status.Buttons))
	}
	b := sj.Status.Buttons[0]
	if b.Name != "front" || !b.Pressed {
		t.Errorf("button: %+v", b)
	}
	if b.Counts.Press != 5 || b.Counts.Click != 3 {
		t.Errorf("counts: %+v", b.Counts)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q", sj.Status.MQTT.Broker)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.50", Status: "connected", SSID: "home"})

	_, body := get(t, ts.URL+"/index.json")
	var sj status.StatusJSON
	json.Unmarshal([]byte(body), &sj)
	if sj.Status.Network == nil {
		t.Fatal("expected network info")
	}
	if sj.Status.Network.SSID != "home" {
		t.Errorf("SSID: got %q", sj.Status.Network.SSID)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update([]monitor.ButtonState{{Name: "front", Channel: 17, Pressed: true, Held: true, Holds: 2, HeldFor: 1200 * time.Millisecond, Cycle: 1}})

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q", ct)
	}
	for _, want := range []string{"Button Sensor", "front", "HELD 1200ms", "1 off", "internal-pull-up"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHTMLEndpointNoSamples(t *testing.T) {
	ts, _, _ := newTestServer(t)
	_, body := get(t, ts.URL+"/index.html")
	if !strings.Contains(body, "no samples yet") {
		t.Error("expected placeholder row before first poll")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/events"
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventsWebsocketBroadcast(t *testing.T) {
	ts, _, hub := newTestServer(t)

	conn1, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn1.Close()
	conn2, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn2.Close()
	waitForClients(t, hub, 2)

	msg := `{"button":{"name":"front","event":"CLICK"}}`
	hub.Broadcast([]byte(msg))

	for i, c := range []*websocket.Conn{conn1, conn2} {
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("client %d read: %v", i, err)
		}
		if string(data) != msg {
			t.Errorf("client %d: got %s", i, data)
		}
	}
}

func TestEventsWebsocketClientLeaves(t *testing.T) {
	ts, _, hub := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForClients(t, hub, 1)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	hub.Broadcast([]byte("{}"))
	if hub.ClientCount() != 0 {
		t.Error("expected no clients")
	}
}
