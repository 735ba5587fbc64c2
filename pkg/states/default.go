package states

import (
	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/internal/raildriver"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/tcpbuffers"
)

// Default is the dispatcher's fallback: consulted whenever the current
// state returns NotHandled. It covers the events every state must react
// to the same way (forced teardown, radio loss, bookkeeping refreshes)
// so the concrete states don't each need to repeat them.
type Default struct {
	s *registry
}

func (st *Default) Name() string { return "Default" }

func (st *Default) Enter(ctx *events.Context) {}

func (st *Default) Exit(ctx *events.Context) {}

func (st *Default) Handle(ctx *events.Context, ev events.Event) events.Disposition {
	b := ctx.Bearer

	switch ev.Kind {
	case events.KindRadioOff:
		if b.IsInactive() {
			return events.Handled
		}
		failure := faults.Failure{Cause: faults.CauseRadioNotAvailable}
		b.LastFailCause = failure
		completeAllConsumers(b, failure)
		b.ResetForInactive(true)
		ctx.TransitionTo(st.s.inactive)
		return events.Handled

	case events.KindTearDownNow:
		// The driver is asked to deactivate any allocated context but is
		// not expected to reply, so the bearer resets immediately instead
		// of waiting in Disconnecting.
		if b.Cid >= 0 {
			rt := runtimeOf(ctx)
			rt.Env.DataService.DeactivateDataCall(rt.Env.Ctx, b.Cid, raildriver.ReleaseReasonNormal, b.Tag)
		}
		completeAllConsumers(b, faults.None)
		b.ResetForInactive(true)
		ctx.TransitionTo(st.s.inactive)
		return events.Handled

	case events.KindResetBearer:
		failure := faults.Failure{Cause: faults.CauseUnknown}
		completeAllConsumers(b, failure)
		b.ResetForInactive(true)
		ctx.TransitionTo(st.s.inactive)
		return events.Handled

	case events.KindCarrierConfigChanged, events.KindServiceStateChanged,
		events.KindVoiceCallStarted, events.KindVoiceCallEnded, events.KindKeepaliveEvent:
		// No consumers means nothing to recompute or report; states that
		// have something to do with these override Handle themselves.
		return events.Handled

	case events.KindReevaluateRestricted:
		// Only Active can actually clear restricted_override; every other
		// state re-presents this once it settles.
		return events.Deferred

	case events.KindDRSOrRATChanged:
		rt := runtimeOf(ctx)
		if ev.RAT != nil {
			b.RadioTechnology = ev.RAT.RadioTechnology
			b.InService = ev.RAT.InService
			b.CarrierAggregation = ev.RAT.CarrierAggregation
		}
		b.LinkProperties.TCPBufferSizes = tcpbuffers.Lookup(radioTechnologyOf(b), b.NRConnected, b.CarrierAggregation, rt.Env.Config.TCPBufferOverrides)
		refreshCapabilities(ctx)
		if rt.Agent != nil {
			rt.Agent.SendLinkProperties(b.LinkProperties)
		}
		return events.Handled

	case events.KindMeterednessChanged:
		if ev.Meteredness != nil && b.Profile != nil {
			b.Profile.Metered = ev.Meteredness.Metered
		}
		refreshCapabilities(ctx)
		return events.Handled

	case events.KindNRFrequencyChanged:
		if ev.NRState != nil {
			b.NRIsMmWave = ev.NRState.MmWave
		}
		refreshCapabilities(ctx)
		return events.Handled

	case events.KindRoamOn:
		b.DataRoaming = true
		refreshCapabilities(ctx)
		return events.Handled

	case events.KindRoamOff:
		b.DataRoaming = false
		refreshCapabilities(ctx)
		return events.Handled

	case events.KindOverrideChanged:
		if ev.Override != nil {
			b.Overrides.UnmeteredOverride = ev.Override.UnmeteredOverride
			b.Overrides.SubscriptionOverride = ev.Override.SubscriptionOverride
			b.Overrides.UnmeteredUseOnly = ev.Override.UnmeteredUseOnly
		}
		refreshCapabilities(ctx)
		return events.Handled

	case events.KindKeepaliveStartRequest:
		if ev.KeepaliveStart != nil && ev.KeepaliveStart.OnCompleted != nil {
			ev.KeepaliveStart.OnCompleted(0, faults.Failure{Cause: faults.CauseUnacceptableNetworkParameter})
		}
		return events.Handled

	case events.KindKeepaliveStopRequest:
		if ev.KeepaliveStop != nil && ev.KeepaliveStop.OnCompleted != nil {
			ev.KeepaliveStop.OnCompleted(faults.Failure{Cause: faults.CauseUnacceptableNetworkParameter})
		}
		return events.Handled

	default:
		return events.Handled
	}
}
