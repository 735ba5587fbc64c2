// Package capabilities synthesizes the capability set exposed to the
// upstream connectivity agent from an APN type bitmask, policy overrides,
// and service state.
package capabilities

import "github.com/pdpctl/databearer/pkg/bearer"

// ServiceState is the subset of radio service state the synthesizer reads:
// roaming and in-service status. Populated by the (out-of-scope) radio
// service driver via DRS_OR_RAT_CHANGED/ROAM_ON/ROAM_OFF events.
type ServiceState struct {
	DataRoaming bool
	InService   bool
}

// VoiceCallState describes whether a concurrent voice call should suspend
// data, used only for DetailedState.
type VoiceCallState struct {
	ConcurrentVoiceAndDataDisallowed bool
	CallActive                       bool
}

// Inputs bundles everything the synthesizer needs beyond the bearer's own
// overrides.
type Inputs struct {
	// TypeBitmask is apn_profile.type_bitmask & ~disabled_apn_types,
	// already computed by the caller.
	TypeBitmask bearer.Type

	Overrides bearer.Overrides

	Service ServiceState

	// APNMetered is the APN meteredness predicate.
	APNMetered bool

	SubscriptionID int

	RadioTechnology string
	NRConnected     bool
	NRIsMmWave      bool

	// Consumers is the attached consumer list. Synthesize does not read
	// it; the score rule is computed separately by Score.
	Consumers []bearer.ConnectionParams
}

// Synthesize derives the exposed capability set from in.
func Synthesize(in Inputs) bearer.CapabilitySet {
	cs := bearer.CapabilitySet{
		Capabilities: bearer.CapTransportCellular,
		Specifier:    bearer.NetworkSpecifier{SubscriptionID: in.SubscriptionID},
	}

	if in.TypeBitmask.Has(bearer.TypeAll) {
		for _, cap := range []bearer.Capability{
			bearer.CapInternet, bearer.CapMMS, bearer.CapSUPL, bearer.CapFOTA,
			bearer.CapIMS, bearer.CapCBS, bearer.CapIA, bearer.CapDUN,
		} {
			cs = cs.With(cap)
		}
	} else {
		for t := bearer.Type(1); t != 0 && t <= bearer.TypeMCX; t <<= 1 {
			if !in.TypeBitmask.Intersects(t) {
				continue
			}
			if cap, ok := bearer.CapabilityForType(t); ok {
				cs = cs.With(cap)
			}
		}
	}

	if meteredRule(in) {
		cs = cs.With(bearer.CapNotMetered)
	}

	if in.Overrides.RestrictedOverride {
		cs = cs.Without(bearer.CapNotRestricted).Without(bearer.CapDUN)
	} else if !defaultRestricted(in.TypeBitmask) {
		cs = cs.With(bearer.CapNotRestricted)
	}

	if !in.Service.DataRoaming {
		cs = cs.With(bearer.CapNotRoaming)
	}

	if in.Overrides.SubscriptionOverride&bearer.OverrideCongested == 0 {
		cs = cs.With(bearer.CapNotCongested)
	}

	cs.Bandwidth = lookupBandwidth(in.RadioTechnology, in.NRConnected, in.NRIsMmWave)

	return cs
}

// meteredRule adds NOT_METERED iff (unmetered-use-only and not
// restricted-override) or the APN itself is not metered. A policy
// unmetered override forces NOT_METERED regardless.
func meteredRule(in Inputs) bool {
	if in.Overrides.UnmeteredOverride {
		return true
	}
	if in.Overrides.UnmeteredUseOnly && !in.Overrides.RestrictedOverride {
		return true
	}
	return !in.APNMetered
}

// defaultRestricted marks a bitmask restricted when only restricted APN
// types are present. Restricted-eligible types are those never reachable
// from an ordinary app request: FOTA, CBS, IA, and EMERGENCY are the
// restricted-only types in this model; DEFAULT, MMS, SUPL, DUN, IMS, MCX
// are not.
func defaultRestricted(bitmask bearer.Type) bool {
	if bitmask == 0 {
		return false
	}
	const restrictedOnly = bearer.TypeFOTA | bearer.TypeCBS | bearer.TypeIA | bearer.TypeEmergency
	return bitmask&^restrictedOnly == 0
}

// Score computes the exposed network score: 50 if any attached consumer
// has an INTERNET request with no network-specifier constraint, else 45.
func Score(consumers []bearer.ConnectionParams) int {
	for _, c := range consumers {
		if c.UnconstrainedInternet {
			return 50
		}
	}
	return 45
}

// DetailedState computes the suspend/connected state: SUSPENDED when the
// service-state tracker reports not-in-service, or concurrent voice+data
// is disallowed and a call is active; CONNECTED otherwise.
func DetailedState(service ServiceState, voice VoiceCallState) bearer.DetailedState {
	if !service.InService {
		return bearer.DetailedStateSuspended
	}
	if voice.ConcurrentVoiceAndDataDisallowed && voice.CallActive {
		return bearer.DetailedStateSuspended
	}
	return bearer.DetailedStateConnected
}
