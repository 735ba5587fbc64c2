// Package handover implements the cross-transport handover mechanics a
// bearer's state machine delegates to: snapshotting a source bearer's
// link properties for the modem, and transferring network-agent
// ownership from the source bearer to the one taking over once the new
// radio call is up.
package handover

import (
	"fmt"

	"github.com/pdpctl/databearer/internal/raildriver"
	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/wire"
)

// Snapshot captures lp as the wire form passed to SetupDataCall alongside
// REQUEST_REASON_HANDOVER.
func Snapshot(lp bearer.LinkProperties) *wire.HandoverSnapshot {
	return &wire.HandoverSnapshot{
		InterfaceName: lp.InterfaceName,
		Addresses:     append([]string(nil), lp.Addresses...),
		DNS:           append([]string(nil), lp.DNSServers...),
		PCSCF:         append([]string(nil), lp.PCSCFAddresses...),
		Gateways:      routeGateways(lp.Routes),
		MTU:           lp.MTU,
	}
}

func routeGateways(routes []bearer.Route) []string {
	var gw []string
	for _, r := range routes {
		if r.Gateway != "" {
			gw = append(gw, r.Gateway)
		}
	}
	return gw
}

// BeginSource marks source as mid-handover and returns a snapshot of its
// current link properties, ready to be carried on the target bearer's
// setupDataCall request.
func BeginSource(source *bearer.Bearer) *wire.HandoverSnapshot {
	source.HandoverState = bearer.HandoverBeingTransferred
	return Snapshot(source.LinkProperties)
}

// CancelSource reverts source to its ordinary Active bookkeeping when a
// handover attempt onto another bearer did not complete.
func CancelSource(source *bearer.Bearer) {
	source.HandoverState = bearer.HandoverIdle
}

// TransferOwnership moves sourceAgent's ownership to the target bearer's
// transport via owner, the authority that tracks which bearer a given
// agent currently belongs to.
func TransferOwnership(owner raildriver.AgentOwner, sourceAgent raildriver.Agent, targetTransport bearer.Transport) error {
	if owner == nil || sourceAgent == nil {
		return fmt.Errorf("handover: no agent owner to transfer to transport %s", targetTransport)
	}
	return owner.AcquireOwnership(sourceAgent, targetTransport)
}

// Release hands sourceAgent back to owner through ReleaseOwnership. The
// states in pkg/states do not call it, including on handover cancel.
func Release(owner raildriver.AgentOwner, sourceAgent raildriver.Agent) {
	if owner == nil || sourceAgent == nil {
		return
	}
	owner.ReleaseOwnership(sourceAgent)
}
