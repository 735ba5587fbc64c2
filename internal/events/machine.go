package events

import (
	"log/slog"

	"github.com/pdpctl/databearer/pkg/bearer"
)

// Disposition is the outcome of a state's attempt to handle an event.
type Disposition int

const (
	// Handled means the event was fully processed; nothing further is
	// owed it.
	Handled Disposition = iota

	// NotHandled means the current state has no handler for this event;
	// the dispatcher falls back to the Default parent state.
	NotHandled

	// Deferred means the event cannot be handled in the current state
	// but must be re-presented to the machine's new state once a
	// transition completes (the CONNECT/DISCONNECT deferral rule).
	Deferred
)

// Context is passed to every State method; it is the state's only window
// onto the bearer record and the machine that owns it.
type Context struct {
	Bearer *bearer.Bearer
	Log    *slog.Logger

	// Runtime carries whatever per-machine collaborators the concrete
	// states package needs beyond the bearer record itself (driver
	// handles, agent references, configuration). Opaque to this
	// package; states type-assert it back to their own runtime type.
	Runtime interface{}

	machine *Machine
}

// TransitionTo moves the owning machine to next, running exit/enter
// hooks and re-presenting any deferred events.
func (c *Context) TransitionTo(next State) {
	c.machine.transitionTo(next)
}

// State is one node of the per-bearer hierarchical state machine.
// Concrete states live in pkg/states; this package only defines the shape
// they implement and the machinery that drives them.
type State interface {
	// Name returns the state's name, used for logging and Bearer.String.
	Name() string

	// Enter runs once when the machine transitions into this state.
	Enter(ctx *Context)

	// Exit runs once when the machine transitions out of this state.
	Exit(ctx *Context)

	// Handle processes one event. NotHandled causes the dispatcher to
	// fall back to the Default state; Deferred causes the event to be
	// re-presented after the next transition.
	Handle(ctx *Context, ev Event) Disposition
}

// Machine is one bearer's state machine: its current state, its deferred
// event backlog, and the bearer record it mutates. A Machine is only ever
// touched from the dispatcher's single goroutine.
type Machine struct {
	bearer   *bearer.Bearer
	current  State
	def      State
	deferred []Event
	log      *slog.Logger
	runtime  interface{}
}

// NewMachine creates a machine for b, starting in the given initial
// state (ordinarily the Inactive state) with def as the Default parent
// state consulted when the current state returns NotHandled. runtime is
// carried through to every Context as Context.Runtime.
func NewMachine(b *bearer.Bearer, initial, def State, runtime interface{}, log *slog.Logger) *Machine {
	m := &Machine{bearer: b, current: initial, def: def, log: log, runtime: runtime}
	ctx := m.context()
	m.current.Enter(ctx)
	return m
}

// State returns the machine's current state.
func (m *Machine) State() State {
	return m.current
}

// Bearer returns the bearer this machine owns.
func (m *Machine) Bearer() *bearer.Bearer {
	return m.bearer
}

// Runtime returns the per-machine runtime value the machine was
// constructed with, letting callers reach into it after construction
// (e.g. to attach an agent once ownership is acquired).
func (m *Machine) Runtime() interface{} {
	return m.runtime
}

func (m *Machine) context() *Context {
	return &Context{Bearer: m.bearer, Log: m.log, Runtime: m.runtime, machine: m}
}

// Dispatch routes one event to the current state, falling back to the
// Default parent state, and honoring Deferred dispositions.
func (m *Machine) Dispatch(ev Event) {
	ctx := m.context()

	switch m.current.Handle(ctx, ev) {
	case Handled:
		return
	case Deferred:
		m.deferred = append(m.deferred, ev)
		return
	case NotHandled:
	}

	if m.def == nil {
		return
	}
	if m.def.Handle(ctx, ev) == Deferred {
		m.deferred = append(m.deferred, ev)
	}
}

// transitionTo runs the exit hook on the current state, swaps in next,
// runs its enter hook, then re-presents any deferred events against the
// new state in the order they were deferred.
func (m *Machine) transitionTo(next State) {
	ctx := m.context()
	prev := m.current
	if prev != nil {
		prev.Exit(ctx)
	}
	m.current = next
	m.current.Enter(ctx)

	if len(m.deferred) == 0 {
		return
	}
	pending := m.deferred
	m.deferred = nil
	for _, ev := range pending {
		m.Dispatch(ev)
	}
}
