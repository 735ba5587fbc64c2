package states

import (
	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/handover"
)

// Inactive is the state a bearer starts and ends in: no consumers, no
// modem context, no link properties.
type Inactive struct {
	s *registry
}

func (st *Inactive) Name() string { return "Inactive" }

func (st *Inactive) Enter(ctx *events.Context) {
	ctx.Bearer.BumpTag()
}

func (st *Inactive) Exit(ctx *events.Context) {}

func (st *Inactive) Handle(ctx *events.Context, ev events.Event) events.Disposition {
	b := ctx.Bearer

	switch ev.Kind {
	case events.KindConnect:
		return handleInactiveConnect(ctx, st, ev.Connect.Params)

	case events.KindRetryConnection:
		// A saved ConnectionParams from the last attempt; re-run the same
		// initConnection/setup path rather than waiting for a fresh CONNECT.
		if ev.Connect == nil || ev.Connect.Params == nil {
			return events.Handled
		}
		return handleInactiveConnect(ctx, st, ev.Connect.Params)

	case events.KindDisconnect:
		completeDisconnectNoOp(b, ev.Disconnect)
		return events.Handled

	case events.KindResetBearer:
		return events.Handled

	case events.KindSetupDataCallDone, events.KindDeactivateDone:
		// Late reply for a bearer that already returned to Inactive; the
		// tag no longer matches anything meaningful, so it is dropped.
		return events.Handled

	default:
		return events.NotHandled
	}
}

// handleInactiveConnect runs a consumer's connection request (fresh CONNECT
// or a RETRY_CONNECTION re-attempt) against an Inactive bearer: resolves the
// profile, stakes out a handover source if requested, attaches the consumer,
// and transitions to Activating.
func handleInactiveConnect(ctx *events.Context, st *Inactive, p *bearer.ConnectionParams) events.Disposition {
	b := ctx.Bearer
	rt := runtimeOf(ctx)

	profile := b.Profile
	if profile == nil {
		profile = rt.Env.Config.ProfileFor(p.RequestedType)
	}
	if profile == nil || !profile.CompatibleWith(p.RequestedType) {
		if p.OnCompleted != nil {
			p.OnCompleted(faults.Failure{Cause: faults.CauseUnacceptableNetworkParameter})
		}
		return events.Handled
	}

	if p.RequestType == bearer.RequestHandover {
		source, sourceAgent, ok := rt.Env.Tracker.FindHandoverSource(b.Transport.Opposite(), p.RequestedType)
		if !ok {
			if p.OnCompleted != nil {
				p.OnCompleted(faults.Failure{Cause: faults.CauseHandoverFailed})
			}
			return events.Handled
		}
		b.PendingHandoverSnapshot = handover.BeginSource(source)
		rt.handoverSource = source
		rt.handoverSourceAgent = sourceAgent
	}

	b.Profile = profile

	tag := b.BumpTag()
	p.Tag = tag
	b.AddConsumer(p)

	ctx.TransitionTo(st.s.activating)
	return events.Handled
}

// completeDisconnectNoOp resolves a disconnect request against a bearer
// that is already Inactive: there is nothing to tear down, so the
// request always succeeds immediately.
func completeDisconnectNoOp(b *bearer.Bearer, d *bearer.DisconnectParams) {
	if d == nil {
		return
	}
	if d.OnCompleted != nil {
		d.OnCompleted(faults.None)
	}
}
