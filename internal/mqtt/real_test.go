package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken is a completed paho token.
type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type sentMsg struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements the parts of paho.Client the publisher uses.
// The embedded interface is nil; other methods panic if called.
type fakeClient struct {
	paho.Client

	mu           sync.Mutex
	open         bool
	publishErr   error
	sent         []sentMsg
	disconnected bool
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return &fakeToken{err: c.publishErr}
	}
	c.sent = append(c.sent, sentMsg{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return &fakeToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.disconnected = true
}

func newTestPublisher(open bool) (*RealPublisher, *fakeClient) {
	c := &fakeClient{open: open}
	p := newPublisher("")
	p.client = c
	p.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return p, c
}

func TestRealPublisherPublishConnected(t *testing.T) {
	p, c := newTestPublisher(true)

	if err := p.Publish(sampleEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(c.sent))
	}
	m := c.sent[0]
	if m.topic != "input/button-sensor/front/events" {
		t.Errorf("topic: got %s", m.topic)
	}
	if m.qos != 0 || m.retained {
		t.Errorf("expected qos 0 not retained, got qos=%d retained=%v", m.qos, m.retained)
	}
}

func TestRealPublisherSystemRetained(t *testing.T) {
	p, c := newTestPublisher(true)

	p.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true})
	if len(c.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(c.sent))
	}
	if c.sent[0].topic != "input/button-sensor/system" || c.sent[0].qos != 1 || !c.sent[0].retained {
		t.Errorf("unexpected system message: %+v", c.sent[0])
	}
}

func TestRealPublisherBuffersWhileDisconnected(t *testing.T) {
	p, c := newTestPublisher(false)

	for i := 0; i < 3; i++ {
		ev := sampleEvent()
		ev.Holds = i + 1
		if err := p.Publish(ev); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if len(c.sent) != 0 {
		t.Errorf("nothing should be sent while disconnected, got %d", len(c.sent))
	}
	if p.Buffered() != 3 {
		t.Errorf("expected 3 buffered, got %d", p.Buffered())
	}
}

func TestRealPublisherReplayOnReconnect(t *testing.T) {
	p, c := newTestPublisher(false)

	// First connect: nothing buffered, no RECONNECTED.
	c.open = true
	p.onConnect()
	if len(c.sent) != 0 {
		t.Fatalf("first connect should not publish, got %d", len(c.sent))
	}

	// Drop, buffer two events, reconnect.
	c.open = false
	for i := 1; i <= 2; i++ {
		ev := sampleEvent()
		ev.Holds = i
		p.Publish(ev)
	}
	c.open = true
	p.onConnect()

	if len(c.sent) != 3 {
		t.Fatalf("expected 2 replayed + RECONNECTED, got %d", len(c.sent))
	}
	for i := 0; i < 2; i++ {
		var parsed Payload
		json.Unmarshal(c.sent[i].payload, &parsed)
		if parsed.Button.Holds != i+1 {
			t.Errorf("replay %d out of order: holds=%d", i, parsed.Button.Holds)
		}
	}

	var sys SystemPayload
	json.Unmarshal(c.sent[2].payload, &sys)
	if sys.System.Event != "RECONNECTED" {
		t.Errorf("expected RECONNECTED last, got %q", sys.System.Event)
	}
	if p.Buffered() != 0 {
		t.Errorf("buffer should be empty after replay, got %d", p.Buffered())
	}
}

func TestRealPublisherPublishErrorNotBuffered(t *testing.T) {
	p, c := newTestPublisher(true)
	c.publishErr = errors.New("not authorised")

	first := sampleEvent()
	first.Holds = 1
	if err := p.Publish(first); err == nil {
		t.Error("expected publish error")
	}
	if p.Buffered() != 0 {
		t.Errorf("failed send on an open connection should not be buffered, got %d", p.Buffered())
	}

	c.publishErr = nil
	second := sampleEvent()
	second.Holds = 2
	if err := p.Publish(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.sent) != 1 {
		t.Fatalf("expected 1 sent, got %d", len(c.sent))
	}
	var parsed Payload
	json.Unmarshal(c.sent[0].payload, &parsed)
	if parsed.Button.Holds != 2 {
		t.Errorf("sent holds=%d, want 2", parsed.Button.Holds)
	}
	if p.Buffered() != 0 {
		t.Errorf("expected empty buffer, got %d", p.Buffered())
	}
}

func TestRealPublisherQueuesBehindPendingReplay(t *testing.T) {
	p, c := newTestPublisher(false)

	first := sampleEvent()
	first.Holds = 1
	p.Publish(first)

	// Connection is up but onConnect has not replayed yet.
	c.open = true
	second := sampleEvent()
	second.Holds = 2
	if err := p.Publish(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.sent) != 0 {
		t.Fatalf("live message overtook the buffer: %d sent", len(c.sent))
	}

	p.onConnect()
	if len(c.sent) != 2 {
		t.Fatalf("expected 2 sent after replay, got %d", len(c.sent))
	}
	for i := 0; i < 2; i++ {
		var parsed Payload
		json.Unmarshal(c.sent[i].payload, &parsed)
		if parsed.Button.Holds != i+1 {
			t.Errorf("message %d out of order: holds=%d", i, parsed.Button.Holds)
		}
	}
}

func TestRealPublisherClose(t *testing.T) {
	p, c := newTestPublisher(true)
	if !p.IsConnected() {
		t.Error("expected connected")
	}
	p.Close()
	if !c.disconnected {
		t.Error("expected Disconnect to be called")
	}
}
