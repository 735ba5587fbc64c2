package states

import (
	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/internal/raildriver"
	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/handover"
	"github.com/pdpctl/databearer/pkg/linkprops"
	"github.com/pdpctl/databearer/pkg/tcpbuffers"
)

// Activating is entered once a setupDataCall request has been submitted
// to the radio driver; the bearer waits here for the asynchronous reply.
type Activating struct {
	s *registry
}

func (st *Activating) Name() string { return "Activating" }

func (st *Activating) Enter(ctx *events.Context) {
	b := ctx.Bearer
	rt := runtimeOf(ctx)

	// A fresh setup attempt always starts with handover_state = IDLE; a
	// non-nil PendingHandoverSnapshot only carries the source's link
	// properties for the modem request below, it is not itself this
	// (destination) bearer's handover state.
	b.HandoverState = bearer.HandoverIdle

	// restricted_override is evaluated once, here, rather than later:
	// capabilities may only ever gain NOT_RESTRICTED, never lose it,
	// without a full teardown, so the decision has to be made before the
	// bearer's capabilities are ever exposed.
	if b.Profile != nil {
		b.Overrides.RestrictedOverride = b.Profile.RestrictedOverride
	}

	reason := raildriver.SetupReasonNormal
	snapshot := b.PendingHandoverSnapshot
	if snapshot != nil {
		reason = raildriver.SetupReasonHandover
	}
	b.PendingHandoverSnapshot = nil

	err := rt.Env.DataService.SetupDataCall(
		rt.Env.Ctx,
		accessNetworkType(b.Transport),
		b.Profile,
		false, false,
		reason,
		snapshot,
		b.Tag,
	)
	if err != nil {
		failure := faults.Failure{Cause: faults.CauseRadioNotAvailable}
		b.LastFailCause = failure
		completeAllConsumers(b, failure)
		if rt.handoverSource != nil {
			handover.CancelSource(rt.handoverSource)
			rt.handoverSource = nil
			rt.handoverSourceAgent = nil
		}
		b.ResetForInactive(!rt.Env.Config.RetainSettingsOnCause(failure))
		ctx.TransitionTo(st.s.inactive)
	}
}

func (st *Activating) Exit(ctx *events.Context) {}

func (st *Activating) Handle(ctx *events.Context, ev events.Event) events.Disposition {
	b := ctx.Bearer
	rt := runtimeOf(ctx)

	switch ev.Kind {
	case events.KindConnect:
		// A second consumer wants the same bearer while it is still
		// coming up; attach it now so it shares the outcome of the
		// setup already in flight.
		p := ev.Connect.Params
		if b.Profile != nil && !b.Profile.CompatibleWith(p.RequestedType) {
			if p.OnCompleted != nil {
				p.OnCompleted(faults.Failure{Cause: faults.CauseUnacceptableNetworkParameter})
			}
			return events.Handled
		}
		p.Tag = b.Tag
		b.AddConsumer(p)
		return events.Handled

	case events.KindDisconnect:
		return events.Deferred

	case events.KindSetupDataCallDone:
		if !b.IsTagCurrent(ev.Tag) {
			return events.Handled
		}
		return st.handleReply(ctx, rt, ev)

	default:
		return events.NotHandled
	}
}

func (st *Activating) handleReply(ctx *events.Context, rt *Runtime, ev events.Event) events.Disposition {
	b := ctx.Bearer
	reply := ev.SetupResult
	if reply == nil {
		return events.Handled
	}

	failure := classifySetupReply(reply)
	if failure.Cause != faults.CauseNone {
		if reply.Response != nil && reply.Response.SuggestedRetryMillis != 0 {
			delay := faults.DecodeRetryDelay(reply.Response.SuggestedRetryMillis)
			if !delay.NoSuggestion {
				for _, p := range b.Consumers {
					rt.Env.Tracker.RecordSuggestedRetryDelay(p.ApnContext, reply.Response.SuggestedRetryMillis)
				}
			}
		}
		b.LastFailCause = failure
		completeAllConsumers(b, failure)
		if rt.handoverSource != nil {
			handover.CancelSource(rt.handoverSource)
			rt.handoverSource = nil
			rt.handoverSourceAgent = nil
		}
		b.ResetForInactive(!rt.Env.Config.RetainSettingsOnCause(failure))
		ctx.TransitionTo(st.s.inactive)
		return events.Handled
	}

	lp, buildFailure := linkprops.Build(reply.Response, linkprops.Inputs{
		Profile:            b.Profile,
		Previous:           b.LinkProperties,
		PlatformDefaultMTU: rt.Env.Config.PlatformDefaultMTU,
	})
	if buildFailure.Cause != faults.CauseNone {
		// The modem accepted the call but the reply itself is unusable
		// (no interface, no usable address). The context id it handed
		// back must still be torn down before the bearer can go idle.
		b.Cid = int(reply.Response.Cid)
		b.LastFailCause = buildFailure
		if rt.handoverSource != nil {
			handover.CancelSource(rt.handoverSource)
			rt.handoverSource = nil
			rt.handoverSourceAgent = nil
		}
		ctx.TransitionTo(st.s.disconnectingError)
		return events.Handled
	}

	lp.TCPBufferSizes = tcpbuffers.Lookup(radioTechnologyOf(b), b.NRConnected, b.CarrierAggregation, rt.Env.Config.TCPBufferOverrides)
	b.Cid = int(reply.Response.Cid)
	b.LinkProperties = lp

	refreshCapabilities(ctx)
	if rt.Agent != nil {
		rt.Agent.SendLinkProperties(lp)
	}

	if rt.handoverSource != nil {
		// Ownership moves to the destination now, atomically, but the
		// source's handover_state only promotes to COMPLETED once the
		// source itself subsequently tears down and enters Inactive (see
		// Bearer.ResetForInactive): setting it here, at the destination's
		// success, would mark it complete before the source has actually
		// relinquished its own connectivity.
		if err := handover.TransferOwnership(rt.Env.AgentOwner, rt.handoverSourceAgent, b.Transport); err == nil && rt.Agent == nil {
			rt.Agent = rt.handoverSourceAgent
		}
		rt.handoverSource = nil
		rt.handoverSourceAgent = nil
	}

	for _, p := range b.Consumers {
		if p.OnCompleted != nil {
			p.OnCompleted(faults.None)
		}
	}
	ctx.TransitionTo(st.s.active)
	return events.Handled
}
