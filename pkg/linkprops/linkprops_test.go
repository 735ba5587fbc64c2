package linkprops

import (
	"testing"

	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/wire"
)

func TestBuildCleanBringUp(t *testing.T) {
	resp := &wire.DataCallResponse{
		InterfaceName: "rmnet0",
		Addresses:     []string{"10.0.0.2/24"},
		DNS:           []string{"8.8.8.8"},
		Gateways:      []string{"10.0.0.1"},
		MTU:           1500,
	}
	lp, fail := Build(resp, Inputs{})
	if fail != faults.None {
		t.Fatalf("unexpected failure: %+v", fail)
	}
	if lp.InterfaceName != "rmnet0" || len(lp.Addresses) != 1 || len(lp.DNSServers) != 1 {
		t.Fatalf("unexpected link properties: %+v", lp)
	}
	if lp.MTU != 1500 {
		t.Errorf("MTU = %d, want 1500", lp.MTU)
	}
	if len(lp.Routes) != 1 || lp.Routes[0].Gateway != "10.0.0.1" {
		t.Errorf("unexpected routes: %+v", lp.Routes)
	}
}

func TestBuildModemCauseFails(t *testing.T) {
	resp := &wire.DataCallResponse{Cause: 26}
	lp, fail := Build(resp, Inputs{})
	if !lp.IsEmpty() {
		t.Errorf("link properties should be empty on failure, got %+v", lp)
	}
	if fail.Cause != faults.CauseDataServiceSpecific || fail.Specific != 26 {
		t.Errorf("unexpected failure: %+v", fail)
	}
}

func TestBuildEmptyInterfaceNameFails(t *testing.T) {
	resp := &wire.DataCallResponse{Addresses: []string{"10.0.0.2/24"}}
	_, fail := Build(resp, Inputs{})
	if fail.Cause != faults.CauseUnacceptableNetworkParameter {
		t.Errorf("got %+v, want CauseUnacceptableNetworkParameter", fail)
	}
}

func TestBuildNoUsableAddressFails(t *testing.T) {
	resp := &wire.DataCallResponse{InterfaceName: "rmnet0", Addresses: []string{"0.0.0.0/0"}}
	_, fail := Build(resp, Inputs{})
	if fail.Cause != faults.CauseUnacceptableNetworkParameter {
		t.Errorf("got %+v, want CauseUnacceptableNetworkParameter", fail)
	}
}

func TestBuildDNSFallsBackToSystem(t *testing.T) {
	resp := &wire.DataCallResponse{InterfaceName: "rmnet0", Addresses: []string{"10.0.0.2/24"}}
	lp, fail := Build(resp, Inputs{SystemDNSFallback: [2]string{"1.1.1.1", "1.0.0.1"}})
	if fail != faults.None {
		t.Fatalf("unexpected failure: %+v", fail)
	}
	if len(lp.DNSServers) != 2 {
		t.Fatalf("expected system fallback DNS, got %v", lp.DNSServers)
	}
}

func TestBuildDNSUnusableFallbackFails(t *testing.T) {
	resp := &wire.DataCallResponse{InterfaceName: "rmnet0", Addresses: []string{"10.0.0.2/24"}}
	_, fail := Build(resp, Inputs{SystemDNSFallback: [2]string{"0.0.0.0", "0.0.0.0"}})
	if fail.Cause != faults.CauseUnacceptableNetworkParameter {
		t.Errorf("got %+v, want CauseUnacceptableNetworkParameter", fail)
	}
}

func TestBuildDNSUnusableFallbackExceptionForMMS(t *testing.T) {
	resp := &wire.DataCallResponse{InterfaceName: "rmnet0", Addresses: []string{"10.0.0.2/24"}}
	profile := &bearer.Profile{TypeBitmask: bearer.TypeMMS, MMSProxy: "10.10.10.10"}
	lp, fail := Build(resp, Inputs{
		Profile:           profile,
		SystemDNSFallback: [2]string{"0.0.0.0", "0.0.0.0"},
	})
	if fail != faults.None {
		t.Fatalf("unexpected failure: %+v", fail)
	}
	if len(lp.DNSServers) == 0 {
		t.Fatalf("expected the MMS IP-literal exception to allow the fallback through")
	}
}

func TestBuildMTUPrecedence(t *testing.T) {
	resp := &wire.DataCallResponse{InterfaceName: "rmnet0", Addresses: []string{"10.0.0.2/24"}, DNS: []string{"8.8.8.8"}}
	profile := &bearer.Profile{MTU: 1280}
	lp, _ := Build(resp, Inputs{Profile: profile, PlatformDefaultMTU: 1400})
	if lp.MTU != 1280 {
		t.Errorf("MTU = %d, want profile MTU 1280", lp.MTU)
	}

	lp, _ = Build(resp, Inputs{PlatformDefaultMTU: 1400})
	if lp.MTU != 1400 {
		t.Errorf("MTU = %d, want platform default 1400", lp.MTU)
	}
}

func TestBuildPreservesHTTPProxy(t *testing.T) {
	resp := &wire.DataCallResponse{InterfaceName: "rmnet0", Addresses: []string{"10.0.0.2/24"}, DNS: []string{"8.8.8.8"}}
	previous := bearer.LinkProperties{HTTPProxy: "proxy.example:8080"}
	lp, _ := Build(resp, Inputs{Previous: previous})
	if lp.HTTPProxy != previous.HTTPProxy {
		t.Errorf("HTTPProxy = %q, want %q", lp.HTTPProxy, previous.HTTPProxy)
	}
}
