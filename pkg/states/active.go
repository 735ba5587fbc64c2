package states

import (
	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/internal/raildriver"
	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/capabilities"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/tcpbuffers"
)

// Active is the steady state: a modem context exists and serves at least
// one consumer.
type Active struct {
	s *registry
}

func (st *Active) Name() string { return "Active" }

func (st *Active) Enter(ctx *events.Context) {}

func (st *Active) Exit(ctx *events.Context) {}

func (st *Active) Handle(ctx *events.Context, ev events.Event) events.Disposition {
	b := ctx.Bearer
	rt := runtimeOf(ctx)

	switch ev.Kind {
	case events.KindConnect:
		p := ev.Connect.Params
		if b.Profile != nil && !b.Profile.CompatibleWith(p.RequestedType) {
			if p.OnCompleted != nil {
				p.OnCompleted(faults.Failure{Cause: faults.CauseUnacceptableNetworkParameter})
			}
			return events.Handled
		}
		p.Tag = b.Tag
		b.AddConsumer(p)
		// This APN type is back in active use; it can no longer be
		// withheld from the synthesized capability set.
		b.Overrides.DisabledAPNTypes &^= p.RequestedType
		refreshCapabilities(ctx)
		if rt.Agent != nil {
			rt.Agent.SendLinkProperties(b.LinkProperties)
		}
		if p.OnCompleted != nil {
			p.OnCompleted(faults.None)
		}
		return events.Handled

	case events.KindDisconnect:
		st.handleDisconnect(ctx, rt, ev.Disconnect)
		return events.Handled

	case events.KindLostConnection:
		failure := faults.Failure{Cause: faults.CauseLostConnection}
		b.LastFailCause = failure
		completeAllConsumers(b, failure)
		b.BumpTag()
		b.ResetForInactive(!rt.Env.Config.RetainSettingsOnCause(failure))
		ctx.TransitionTo(st.s.inactive)
		return events.Handled

	case events.KindServiceStateChanged:
		if ev.ServiceState != nil {
			b.DataRoaming = ev.ServiceState.DataRoaming
			b.InService = ev.ServiceState.InService
		}
		refreshCapabilities(ctx)
		return events.Handled

	case events.KindVoiceCallStarted:
		b.VoiceCallActive = true
		if ev.VoiceCall != nil {
			b.ConcurrentVoiceAndDataDisallowed = ev.VoiceCall.ConcurrentVoiceAndDataDisallowed
		}
		refreshCapabilities(ctx)
		return events.Handled

	case events.KindVoiceCallEnded:
		b.VoiceCallActive = false
		refreshCapabilities(ctx)
		return events.Handled

	case events.KindCarrierConfigChanged:
		refreshCapabilities(ctx)
		return events.Handled

	case events.KindReevaluateRestricted:
		// restricted_override may only ever transition present->absent
		// here: once absent it stays absent until a fresh Activating entry
		// re-evaluates it from the profile.
		if b.Overrides.RestrictedOverride {
			b.Overrides.RestrictedOverride = false
			refreshCapabilities(ctx)
		}
		return events.Handled

	case events.KindReevaluateDataConnectionProperties:
		newScore := capabilities.Score(consumerParamsSlice(b))
		if newScore != b.Score {
			b.Score = newScore
			if rt.Agent != nil {
				rt.Agent.SendNetworkScore(b.Score)
			}
		}
		return events.Handled

	case events.KindNRStateChanged:
		if ev.NRState != nil {
			b.NRConnected = ev.NRState.Connected
			b.NRIsMmWave = ev.NRState.MmWave
		}
		b.LinkProperties.TCPBufferSizes = tcpbuffers.Lookup(radioTechnologyOf(b), b.NRConnected, b.CarrierAggregation, rt.Env.Config.TCPBufferOverrides)
		refreshCapabilities(ctx)
		if rt.Agent != nil {
			rt.Agent.SendLinkProperties(b.LinkProperties)
		}
		return events.Handled

	case events.KindBWRefreshResponse, events.KindLinkCapacityChanged:
		if ev.Bandwidth != nil && rt.Env.Config.ModemIsBandwidthSource {
			b.Capabilities.Bandwidth = bearer.Bandwidth{DownKbps: ev.Bandwidth.DownKbps, UpKbps: ev.Bandwidth.UpKbps}
			if rt.Agent != nil {
				rt.Agent.SendNetworkCapabilities(b.Capabilities)
			}
		}
		return events.Handled

	case events.KindKeepaliveStartRequest:
		st.handleKeepaliveStart(ctx, rt, ev.KeepaliveStart)
		return events.Handled

	case events.KindKeepaliveStopRequest:
		st.handleKeepaliveStop(ctx, rt, ev.KeepaliveStop)
		return events.Handled

	case events.KindKeepaliveEvent:
		if rt.Agent != nil && ev.KeepaliveStatus != nil {
			rt.Agent.OnSocketKeepaliveEvent(ev.KeepaliveStatus.Slot, raildriver.SocketKeepaliveStatus(ev.KeepaliveStatus.Status))
		}
		return events.Handled

	case events.KindStartHandover:
		// This bearer is the handover source; the target bearer locates it
		// through the outer tracker and drives the snapshot/transfer itself
		// (see Inactive/Activating). This only updates the observable state.
		b.HandoverState = bearer.HandoverBeingTransferred
		return events.Handled

	case events.KindCompleteHandover:
		b.HandoverState = bearer.HandoverCompleted
		return events.Handled

	case events.KindCancelHandover:
		b.HandoverState = bearer.HandoverIdle
		return events.Handled

	default:
		return events.NotHandled
	}
}

func (st *Active) handleDisconnect(ctx *events.Context, rt *Runtime, d *bearer.DisconnectParams) {
	b := ctx.Bearer

	if d != nil && d.ApnContext != "" {
		handle, ok := findConsumerByApnContext(b, d.ApnContext)
		if ok {
			removed, _ := completeConsumer(b, handle, faults.None)
			if removed != nil {
				// The removed consumer's APN type is withheld from the
				// synthesized capability set until something re-attaches
				// for it, even if another consumer requested the same type.
				b.Overrides.DisabledAPNTypes |= removed.RequestedType
			}
			if d.OnCompleted != nil {
				d.OnCompleted(faults.None)
			}
		} else if d.OnCompleted != nil {
			d.OnCompleted(faults.None)
		}
		if !b.IsInactive() {
			refreshCapabilities(ctx)
			return
		}
	} else if d != nil {
		completeAllConsumers(b, faults.None)
		if d.OnCompleted != nil {
			d.OnCompleted(faults.None)
		}
	}

	if !b.IsInactive() {
		return
	}

	tag := b.BumpTag()
	releaseReason := raildriver.ReleaseReasonNormal
	if d != nil && d.ReleaseType == bearer.ReleaseShutdown {
		releaseReason = raildriver.ReleaseReasonShutdown
	}
	rt.Env.DataService.DeactivateDataCall(rt.Env.Ctx, b.Cid, releaseReason, tag)
	ctx.TransitionTo(st.s.disconnecting)
}

func findConsumerByApnContext(b *bearer.Bearer, apnContext string) (bearer.ConsumerHandle, bool) {
	for handle, p := range b.Consumers {
		if p.ApnContext == apnContext {
			return handle, true
		}
	}
	return bearer.ConsumerHandle{}, false
}

// handleKeepaliveStart forwards a socket-keepalive start request to the
// radio driver on WWAN; WLAN has no modem-side keepalive offload, so it is
// rejected immediately.
func (st *Active) handleKeepaliveStart(ctx *events.Context, rt *Runtime, req *events.KeepaliveStartPayload) {
	if req == nil {
		return
	}
	b := ctx.Bearer
	if b.Transport != bearer.TransportWWAN {
		if req.OnCompleted != nil {
			req.OnCompleted(0, faults.Failure{Cause: faults.CauseUnacceptableNetworkParameter})
		}
		return
	}
	handle, err := rt.Env.DataService.StartNattKeepalive(rt.Env.Ctx, b.Cid, req.IntervalMillis)
	if req.OnCompleted == nil {
		return
	}
	if err != nil {
		req.OnCompleted(0, faults.Failure{Cause: faults.CauseUnknown})
		return
	}
	req.OnCompleted(handle, faults.None)
}

// handleKeepaliveStop forwards a socket-keepalive stop request to the radio
// driver on WWAN; rejected immediately on WLAN for the same reason as
// handleKeepaliveStart.
func (st *Active) handleKeepaliveStop(ctx *events.Context, rt *Runtime, req *events.KeepaliveStopPayload) {
	if req == nil {
		return
	}
	b := ctx.Bearer
	if b.Transport != bearer.TransportWWAN {
		if req.OnCompleted != nil {
			req.OnCompleted(faults.Failure{Cause: faults.CauseUnacceptableNetworkParameter})
		}
		return
	}
	err := rt.Env.DataService.StopNattKeepalive(rt.Env.Ctx, req.Handle)
	if req.OnCompleted == nil {
		return
	}
	if err != nil {
		req.OnCompleted(faults.Failure{Cause: faults.CauseUnknown})
		return
	}
	req.OnCompleted(faults.None)
}
