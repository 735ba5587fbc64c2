package events

import (
	"testing"

	"github.com/pdpctl/databearer/pkg/bearer"
)

// recordingState is a minimal State used to exercise the machine's
// transition and deferral bookkeeping without pulling in pkg/states.
type recordingState struct {
	name      string
	entered   int
	exited    int
	onHandle  func(ctx *Context, ev Event) Disposition
	handledAt []Kind
}

func (s *recordingState) Name() string { return s.name }
func (s *recordingState) Enter(ctx *Context) { s.entered++ }
func (s *recordingState) Exit(ctx *Context)  { s.exited++ }
func (s *recordingState) Handle(ctx *Context, ev Event) Disposition {
	s.handledAt = append(s.handledAt, ev.Kind)
	if s.onHandle != nil {
		return s.onHandle(ctx, ev)
	}
	return Handled
}

func newTestBearer() *bearer.Bearer {
	return bearer.New(0, bearer.TransportWWAN, 0, 1)
}

func TestMachineEnterRunsOnConstruction(t *testing.T) {
	b := newTestBearer()
	inactive := &recordingState{name: "Inactive"}
	def := &recordingState{name: "Default"}
	NewMachine(b, inactive, def, nil, nil)

	if inactive.entered != 1 {
		t.Fatalf("entered = %d, want 1", inactive.entered)
	}
}

func TestMachineFallsBackToDefault(t *testing.T) {
	b := newTestBearer()
	current := &recordingState{name: "Activating", onHandle: func(ctx *Context, ev Event) Disposition {
		return NotHandled
	}}
	def := &recordingState{name: "Default"}
	m := NewMachine(b, current, def, nil, nil)

	m.Dispatch(Event{Kind: KindRadioOff})

	if len(def.handledAt) != 1 || def.handledAt[0] != KindRadioOff {
		t.Fatalf("default state did not receive fallback event: %v", def.handledAt)
	}
}

func TestMachineTransitionRunsExitAndEnter(t *testing.T) {
	b := newTestBearer()
	var next *recordingState
	current := &recordingState{name: "Activating", onHandle: func(ctx *Context, ev Event) Disposition {
		ctx.TransitionTo(next)
		return Handled
	}}
	next = &recordingState{name: "Active"}
	def := &recordingState{name: "Default"}
	m := NewMachine(b, current, def, nil, nil)

	m.Dispatch(Event{Kind: KindSetupDataCallDone})

	if current.exited != 1 {
		t.Errorf("previous state Exit count = %d, want 1", current.exited)
	}
	if next.entered != 1 {
		t.Errorf("next state Enter count = %d, want 1", next.entered)
	}
	if m.State().Name() != "Active" {
		t.Errorf("machine state = %s, want Active", m.State().Name())
	}
}

func TestDeferredEventRedeliveredAfterTransition(t *testing.T) {
	b := newTestBearer()
	var active *recordingState
	disconnecting := &recordingState{name: "Disconnecting", onHandle: func(ctx *Context, ev Event) Disposition {
		if ev.Kind == KindConnect {
			return Deferred
		}
		ctx.TransitionTo(active)
		return Handled
	}}
	active = &recordingState{name: "Active"}
	def := &recordingState{name: "Default"}
	m := NewMachine(b, disconnecting, def, nil, nil)

	m.Dispatch(Event{Kind: KindConnect})
	if len(m.deferred) != 1 {
		t.Fatalf("deferred queue = %d, want 1", len(m.deferred))
	}

	m.Dispatch(Event{Kind: KindDeactivateDone})

	if m.State().Name() != "Active" {
		t.Fatalf("machine state = %s, want Active", m.State().Name())
	}
	if len(active.handledAt) != 1 || active.handledAt[0] != KindConnect {
		t.Fatalf("deferred CONNECT was not re-presented to Active: %v", active.handledAt)
	}
	if len(m.deferred) != 0 {
		t.Fatalf("deferred queue should be drained, got %d", len(m.deferred))
	}
}
