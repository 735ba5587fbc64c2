package states

import (
	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/pkg/faults"
)

// Disconnecting waits for the radio driver to confirm a clean
// deactivateDataCall requested while the bearer was Active.
type Disconnecting struct {
	s *registry
}

func (st *Disconnecting) Name() string { return "Disconnecting" }

func (st *Disconnecting) Enter(ctx *events.Context) {}

func (st *Disconnecting) Exit(ctx *events.Context) {}

func (st *Disconnecting) Handle(ctx *events.Context, ev events.Event) events.Disposition {
	b := ctx.Bearer

	switch ev.Kind {
	case events.KindConnect, events.KindDisconnect:
		// Neither can be handled until the deactivate in flight resolves;
		// re-present them to whatever state is entered next.
		return events.Deferred

	case events.KindDeactivateDone:
		if !b.IsTagCurrent(ev.Tag) {
			return events.Handled
		}
		completeAllConsumers(b, faults.None)
		b.ResetForInactive(true)
		ctx.TransitionTo(st.s.inactive)
		return events.Handled

	default:
		return events.NotHandled
	}
}
