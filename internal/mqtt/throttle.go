package mqtt

import (
	"log"

	"golang.org/x/time/rate"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/monitor"
)

// Throttle wraps a Publisher and drops HOLD events published faster than
// the configured rate. A repeating hold with a very small threshold fires on
// every poll; this keeps it from flooding the broker. Other events always
// pass through.
type Throttle struct {
	Publisher
	limiter *rate.Limiter
	dropped int
}

// NewThrottle limits HOLD events to perSecond with a burst of the same size.
// perSecond <= 0 disables the limit.
func NewThrottle(p Publisher, perSecond float64) *Throttle {
	limit := rate.Inf
	burst := 0
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &Throttle{Publisher: p, limiter: rate.NewLimiter(limit, burst)}
}

// Publish forwards the event unless it is a HOLD over the rate limit.
func (t *Throttle) Publish(event monitor.Event) error {
	if event.Type == button.EventHold && !t.limiter.AllowN(event.Timestamp, 1) {
		t.dropped++
		if t.dropped == 1 || t.dropped%100 == 0 {
			log.Printf("mqtt: hold rate limit exceeded for %s, %d dropped", event.Button, t.dropped)
		}
		return nil
	}
	return t.Publisher.Publish(event)
}

// Dropped returns the number of HOLD events dropped so far.
func (t *Throttle) Dropped() int {
	return t.dropped
}

// IsConnected forwards to the wrapped publisher if it reports connectivity.
func (t *Throttle) IsConnected() bool {
	if cs, ok := t.Publisher.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}
