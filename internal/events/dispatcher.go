package events

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher fans a single incoming event channel out to the per-bearer
// Machine it addresses. Exactly one goroutine ever runs a Machine's
// Handle/Enter/Exit methods, so states never need to synchronize access
// to the bearer record they mutate.
type Dispatcher struct {
	log *slog.Logger

	mu       sync.Mutex
	machines map[int]*Machine

	events    chan Event
	closeOnce sync.Once
	closeCh   chan struct{}
	doneCh    chan struct{}
}

// NewDispatcher creates a dispatcher with the given event queue depth.
func NewDispatcher(queueDepth int, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		log:      log,
		machines: make(map[int]*Machine),
		events:   make(chan Event, queueDepth),
		closeCh:  make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Register attaches a bearer's machine under its bearer ID. Must be
// called before any event for that bearer ID is posted.
func (d *Dispatcher) Register(id int, m *Machine) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.machines[id] = m
}

// Unregister removes a bearer's machine, e.g. when the bearer itself is
// torn down for good (subscription removed, SIM absent).
func (d *Dispatcher) Unregister(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.machines, id)
}

// Machine returns the machine registered for id, if any.
func (d *Dispatcher) Machine(id int) (*Machine, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.machines[id]
	return m, ok
}

// Post enqueues ev for asynchronous delivery. It blocks while the queue is
// full, until space frees up or Close is called; a call from the
// dispatcher's own goroutine with a full queue therefore never returns
// until Close.
func (d *Dispatcher) Post(ev Event) {
	select {
	case d.events <- ev:
	case <-d.closeCh:
	}
}

// Run drains the event queue until ctx is canceled or Close is called.
// It is meant to be started once, in its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.closeCh:
			return
		case ev := <-d.events:
			d.deliver(ev)
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	m, ok := d.Machine(ev.BearerID)
	if !ok {
		d.log.Warn("event for unknown bearer dropped", "bearer_id", ev.BearerID, "kind", ev.Kind.String())
		return
	}
	d.log.Debug("dispatching event", "bearer_id", ev.BearerID, "kind", ev.Kind.String(), "state", m.State().Name())
	m.Dispatch(ev)
}

// Close stops Run and waits for it to return.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.closeCh) })
	<-d.doneCh
}
