package states

import (
	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/capabilities"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/wire"
)

// runtimeOf recovers the Runtime a machine was constructed with. Every
// concrete state in this package relies on the machine always being
// constructed through NewBearerMachine, so a failed
// assertion here is a wiring bug, not a recoverable runtime condition.
func runtimeOf(ctx *events.Context) *Runtime {
	return ctx.Runtime.(*Runtime)
}

// completeAllConsumers resolves every attached consumer's OnCompleted
// callback with f and empties the bearer's consumer set.
func completeAllConsumers(b *bearer.Bearer, f faults.Failure) {
	for _, p := range b.Consumers {
		if p.OnCompleted != nil {
			p.OnCompleted(f)
		}
	}
	b.Consumers = make(map[bearer.ConsumerHandle]*bearer.ConnectionParams)
}

// completeConsumer resolves a single consumer's callback, detaches it, and
// returns the removed params so the caller can fold its RequestedType into
// disabled_apn_types.
func completeConsumer(b *bearer.Bearer, handle bearer.ConsumerHandle, f faults.Failure) (*bearer.ConnectionParams, bool) {
	p, ok := b.RemoveConsumer(handle)
	if ok && p.OnCompleted != nil {
		p.OnCompleted(f)
	}
	return p, ok
}

// accessNetworkType is the string the radio data-service driver expects
// for a bearer's transport.
func accessNetworkType(t bearer.Transport) string {
	if t == bearer.TransportWLAN {
		return "IWLAN"
	}
	return "WWAN"
}

// classifySetupReply converts a wire.SetupReply into a Failure, routing
// the modem's numeric cause through when the result is data-service
// specific.
func classifySetupReply(reply *wire.SetupReply) faults.Failure {
	var sr faults.SetupResult
	switch reply.Result {
	case wire.SetupResultSuccess:
		sr = faults.SetupSuccess
	case wire.SetupResultErrorRadioNotAvailable:
		sr = faults.SetupErrorRadioNotAvailable
	case wire.SetupResultErrorInvalidArg:
		sr = faults.SetupErrorInvalidArg
	case wire.SetupResultErrorDataServiceSpecific:
		sr = faults.SetupErrorDataServiceSpecific
	}
	var specific int32
	if reply.Response != nil {
		specific = reply.Response.Cause
	}
	return faults.ClassifySetupResult(sr, specific)
}

// refreshCapabilities recomputes and pushes the bearer's capability set,
// detailed state, and score to its owned agent, if any. Safe to call
// with a nil agent (e.g. from Default, where no agent may be owned).
// Service and voice-call state are read from the bearer's own persisted
// fields, kept current by DRS_OR_RAT_CHANGED/ROAM_ON/ROAM_OFF and
// VOICE_CALL_STARTED/VOICE_CALL_ENDED, rather than threaded through from
// whichever event triggered the refresh.
func refreshCapabilities(ctx *events.Context) {
	b := ctx.Bearer
	rt := runtimeOf(ctx)

	var typeBitmask bearer.Type
	if b.Profile != nil {
		typeBitmask = b.Profile.TypeBitmask &^ b.Overrides.DisabledAPNTypes
	}
	metered := b.Profile != nil && b.Profile.Metered
	service := serviceStateOf(b)
	voice := voiceCallStateOf(b)

	cs := capabilities.Synthesize(capabilities.Inputs{
		TypeBitmask:     typeBitmask,
		Overrides:       b.Overrides,
		Service:         service,
		APNMetered:      metered,
		SubscriptionID:  b.SubscriptionID,
		RadioTechnology: radioTechnologyOf(b),
		NRConnected:     b.NRConnected,
		NRIsMmWave:      b.NRIsMmWave,
		Consumers:       consumerParamsSlice(b),
	})
	b.Capabilities = cs
	b.Score = capabilities.Score(consumerParamsSlice(b))

	if rt.Agent == nil {
		return
	}
	rt.Agent.SendNetworkCapabilities(cs)
	rt.Agent.SendNetworkScore(b.Score)
	rt.Agent.SendNetworkInfo(capabilities.DetailedState(service, voice))
}

// serviceStateOf and voiceCallStateOf build the synthesizer's service and
// voice-call inputs from the bearer's persisted radio-state fields.
func serviceStateOf(b *bearer.Bearer) capabilities.ServiceState {
	return capabilities.ServiceState{DataRoaming: b.DataRoaming, InService: b.InService}
}

func voiceCallStateOf(b *bearer.Bearer) capabilities.VoiceCallState {
	return capabilities.VoiceCallState{
		ConcurrentVoiceAndDataDisallowed: b.ConcurrentVoiceAndDataDisallowed,
		CallActive:                       b.VoiceCallActive,
	}
}

// radioTechnologyOf prefers the bearer's own persisted reading (kept
// current by DRS_OR_RAT_CHANGED); a consumer's hint is only a fallback for
// a bearer that has never received one, e.g. immediately after bring-up.
func radioTechnologyOf(b *bearer.Bearer) string {
	if b.RadioTechnology != "" {
		return b.RadioTechnology
	}
	for _, p := range b.Consumers {
		if p.RadioTechnology != "" {
			return p.RadioTechnology
		}
	}
	return ""
}

func consumerParamsSlice(b *bearer.Bearer) []bearer.ConnectionParams {
	out := make([]bearer.ConnectionParams, 0, len(b.Consumers))
	for _, p := range b.Consumers {
		out = append(out, *p)
	}
	return out
}
