package states

import (
	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/internal/raildriver"
)

// DisconnectingError is entered when the modem accepted a setup request
// and allocated a context id, but the reply itself could not be turned
// into usable link properties. The allocated context must still be torn
// down before the bearer can return to Inactive; the consumer-visible
// outcome is the failure recorded on the bearer when this state was
// entered, regardless of how the deactivate itself resolves.
type DisconnectingError struct {
	s *registry
}

func (st *DisconnectingError) Name() string { return "DisconnectingErrorCreatingConnection" }

func (st *DisconnectingError) Enter(ctx *events.Context) {
	b := ctx.Bearer
	rt := runtimeOf(ctx)
	tag := b.BumpTag()
	rt.Env.DataService.DeactivateDataCall(rt.Env.Ctx, b.Cid, raildriver.ReleaseReasonNormal, tag)
}

func (st *DisconnectingError) Exit(ctx *events.Context) {}

func (st *DisconnectingError) Handle(ctx *events.Context, ev events.Event) events.Disposition {
	b := ctx.Bearer
	rt := runtimeOf(ctx)

	switch ev.Kind {
	case events.KindConnect, events.KindDisconnect:
		return events.Deferred

	case events.KindDeactivateDone:
		if !b.IsTagCurrent(ev.Tag) {
			return events.Handled
		}
		completeAllConsumers(b, b.LastFailCause)
		b.ResetForInactive(!rt.Env.Config.RetainSettingsOnCause(b.LastFailCause))
		ctx.TransitionTo(st.s.inactive)
		return events.Handled

	default:
		return events.NotHandled
	}
}
