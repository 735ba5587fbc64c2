package capabilities

import (
	"testing"

	"github.com/pdpctl/databearer/pkg/bearer"
)

func TestSynthesizeCleanBringUp(t *testing.T) {
	cs := Synthesize(Inputs{
		TypeBitmask: bearer.TypeDefault,
		Service:     ServiceState{InService: true},
		APNMetered:  true,
	})
	for _, want := range []bearer.Capability{
		bearer.CapInternet, bearer.CapNotRoaming, bearer.CapNotCongested, bearer.CapTransportCellular,
	} {
		if !cs.Has(want) {
			t.Errorf("missing capability %v in %v", want, cs)
		}
	}
}

func TestSynthesizeIdempotent(t *testing.T) {
	in := Inputs{TypeBitmask: bearer.TypeDefault | bearer.TypeSUPL, APNMetered: true}
	first := Synthesize(in)
	second := Synthesize(in)
	if !first.Equal(second) {
		t.Errorf("Synthesize is not idempotent: %v != %v", first, second)
	}
}

func TestMeteredRule(t *testing.T) {
	cs := Synthesize(Inputs{TypeBitmask: bearer.TypeDefault, APNMetered: false})
	if !cs.Has(bearer.CapNotMetered) {
		t.Error("an unmetered APN should yield NOT_METERED")
	}

	cs = Synthesize(Inputs{TypeBitmask: bearer.TypeDefault, APNMetered: true})
	if cs.Has(bearer.CapNotMetered) {
		t.Error("a metered APN with no overrides should not yield NOT_METERED")
	}

	cs = Synthesize(Inputs{
		TypeBitmask: bearer.TypeDefault,
		APNMetered:  true,
		Overrides:   bearer.Overrides{UnmeteredOverride: true},
	})
	if !cs.Has(bearer.CapNotMetered) {
		t.Error("a policy unmetered override should force NOT_METERED")
	}
}

func TestRestrictedOverrideRemovesCapabilities(t *testing.T) {
	cs := Synthesize(Inputs{
		TypeBitmask: bearer.TypeDefault | bearer.TypeDUN,
		Overrides:   bearer.Overrides{RestrictedOverride: true},
	})
	if cs.Has(bearer.CapNotRestricted) {
		t.Error("restricted override should remove NOT_RESTRICTED")
	}
	if cs.Has(bearer.CapDUN) {
		t.Error("restricted override should remove DUN")
	}
}

func TestScore(t *testing.T) {
	if got := Score(nil); got != 45 {
		t.Errorf("Score(nil) = %d, want 45", got)
	}
	consumers := []bearer.ConnectionParams{{UnconstrainedInternet: false}}
	if got := Score(consumers); got != 45 {
		t.Errorf("Score = %d, want 45", got)
	}
	consumers = append(consumers, bearer.ConnectionParams{UnconstrainedInternet: true})
	if got := Score(consumers); got != 50 {
		t.Errorf("Score = %d, want 50", got)
	}
}

func TestDetailedStateSuspend(t *testing.T) {
	if got := DetailedState(ServiceState{InService: false}, VoiceCallState{}); got != bearer.DetailedStateSuspended {
		t.Errorf("not-in-service should suspend, got %v", got)
	}
	if got := DetailedState(
		ServiceState{InService: true},
		VoiceCallState{ConcurrentVoiceAndDataDisallowed: true, CallActive: true},
	); got != bearer.DetailedStateSuspended {
		t.Errorf("active call with concurrency disallowed should suspend, got %v", got)
	}
	if got := DetailedState(ServiceState{InService: true}, VoiceCallState{}); got != bearer.DetailedStateConnected {
		t.Errorf("in-service with no call should be connected, got %v", got)
	}
}
