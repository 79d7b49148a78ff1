// Package queue moves session events off the goroutine that caused the
// transition, so slow sinks never hold up the session manager.
package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/librarydesk/library-client/internal/core/domain"
)

const channelBuffer = 64

// Handler consumes one event. Errors are logged and do not stop the worker.
type Handler func(ctx context.Context, ev domain.SessionEvent) error

// Dispatcher delivers session events to a single worker in the order they
// were enqueued.
type Dispatcher struct {
	events  chan domain.SessionEvent
	handler Handler
	log     zerolog.Logger

	mu      sync.Mutex
	dropped int
	done    chan struct{}
}

// NewDispatcher creates a Dispatcher. Call Start before the first event.
func NewDispatcher(handler Handler, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		events:  make(chan domain.SessionEvent, channelBuffer),
		handler: handler,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Start launches the worker. It stops when ctx is cancelled, after draining
// the events already queued.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

// Done is closed once the worker has exited.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Enqueue hands ev to the worker. It never blocks: when the buffer is full
// the event is dropped and counted. Its signature matches Subscribe.
func (d *Dispatcher) Enqueue(ev domain.SessionEvent) {
	select {
	case d.events <- ev:
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		d.log.Warn().Str("reason", string(ev.Reason)).Msg("session event dropped, queue full")
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx))
			return
		case ev := <-d.events:
			d.handle(ctx, ev)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case ev := <-d.events:
			d.handle(ctx, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev domain.SessionEvent) {
	if err := d.handler(ctx, ev); err != nil {
		d.log.Error().Err(err).
			Str("reason", string(ev.Reason)).
			Str("state", string(ev.Session.State())).
			Msg("session event handling failed")
	}
}
