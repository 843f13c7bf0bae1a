package trace

import (
	"context"
	"strconv"
	"time"
)

// Heartbeat emits periodic events so a stuck run is visible in the trace.
type Heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartHeartbeat starts the heartbeat goroutine. It returns nil when the
// tracer is disabled or interval is not positive; Stop on nil is a no-op.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Heartbeat{cancel: cancel, done: make(chan struct{})}
	go beat(ctx, t, interval, h.done)
	return h
}

func beat(ctx context.Context, t Tracer, interval time.Duration, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var n int
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n++
			t.Emit(&Event{
				Time:   now,
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(n),
			})
		}
	}
}

// Stop ends the goroutine and waits for it. Safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
