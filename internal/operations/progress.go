// Package operations runs chart builds off the request path and relays
// their progress over a single-producer, single-consumer channel. The
// producer emits ordered progress events and exactly one terminal event;
// consumers stop at the terminal event or on heartbeat timeout, never
// blocking forever on a dead worker.
package operations

import (
	"context"
	"errors"
	"sync"
	"time"

	"sunburst/pkg/contracts/domain"
)

// ErrHeartbeatTimeout reports a worker that stopped emitting without a
// terminal event.
var ErrHeartbeatTimeout = errors.New("progress heartbeat timeout")

// Reporter is the producer side of a progress channel. Progress calls are
// ordered; Done or Fail emits the terminal event and closes the channel.
// After the terminal event all further calls are no-ops.
type Reporter struct {
	events chan domain.ProgressEvent

	mu     sync.Mutex
	closed bool
}

// NewReporter returns a reporter with the given channel buffer.
func NewReporter(buffer int) *Reporter {
	if buffer <= 0 {
		buffer = 64
	}
	return &Reporter{events: make(chan domain.ProgressEvent, buffer)}
}

// Progress emits one progress event. A full buffer drops the event rather
// than stalling the worker. The last buffer slot is held back for the
// terminal event so Done and Fail never block.
func (r *Reporter) Progress(current, total int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || len(r.events) >= cap(r.events)-1 {
		return
	}
	r.events <- domain.ProgressEvent{Current: current, Total: total, Message: message}
}

// Done emits the success terminal event and closes the channel.
func (r *Reporter) Done() {
	r.terminal(domain.ProgressEvent{Done: true})
}

// Fail emits the error terminal event and closes the channel.
func (r *Reporter) Fail(err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	r.terminal(domain.ProgressEvent{Error: msg})
}

func (r *Reporter) terminal(ev domain.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.events <- ev
	close(r.events)
}

// Events returns the consumer side of the channel.
func (r *Reporter) Events() <-chan domain.ProgressEvent {
	return r.events
}

// Consume relays events to fn in emission order until the terminal event,
// context cancellation, or a heartbeat gap longer than timeout. The
// synthesized timeout terminal keeps consumers from hanging on a worker
// that died silently.
func Consume(ctx context.Context, events <-chan domain.ProgressEvent, timeout time.Duration, fn func(domain.ProgressEvent) error) error {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	heartbeat := time.NewTimer(timeout)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-heartbeat.C:
			_ = fn(domain.ProgressEvent{Error: ErrHeartbeatTimeout.Error()})
			return ErrHeartbeatTimeout
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := fn(ev); err != nil {
				return err
			}
			if ev.Terminal() {
				return nil
			}
			if !heartbeat.Stop() {
				select {
				case <-heartbeat.C:
				default:
				}
			}
			heartbeat.Reset(timeout)
		}
	}
}
