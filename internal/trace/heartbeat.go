package trace

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Heartbeat periodically reports which programs are still in flight. A batch
// build stuck on one input shows up as heartbeats naming it.
type Heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartHeartbeat emits a heartbeat to tracer every interval until Stop or
// until ctx ends. It returns nil when tracing is disabled.
func StartHeartbeat(ctx context.Context, tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Heartbeat{cancel: cancel, done: make(chan struct{})}
	go h.run(ctx, tracer, interval)
	return h
}

func (h *Heartbeat) run(ctx context.Context, tracer Tracer, interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var beats int
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			beats++
			tracer.Emit(&Event{
				Time:   now,
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    goroutineID(),
				Name:   "heartbeat",
				Detail: heartbeatDetail(beats, InFlight()),
			})
		}
	}
}

// heartbeatDetail renders "#3 in flight: a.irmp, b.irmp" or "#3 idle".
func heartbeatDetail(beat int, programs []string) string {
	prefix := "#" + strconv.Itoa(beat)
	if len(programs) == 0 {
		return prefix + " idle"
	}
	return prefix + " in flight: " + strings.Join(programs, ", ")
}

// Stop ends the heartbeat and waits for its goroutine. Stop on nil and
// repeated Stop calls are no-ops.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
