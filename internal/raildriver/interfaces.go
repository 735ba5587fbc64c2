// Package raildriver defines the interfaces the core calls out through:
// the radio data-service driver, the upstream connectivity agent, and the
// outer tracker that owns retry scheduling and cross-bearer policy. All
// three are external collaborators — this package only carries their
// shapes so pkg/states can depend on an interface instead of a concrete
// transport.
package raildriver

import (
	"context"

	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/wire"
)

// ReleaseReason is the reason code passed to DeactivateDataCall
type ReleaseReason int

const (
	ReleaseReasonNormal ReleaseReason = iota
	ReleaseReasonShutdown
	ReleaseReasonHandover
)

// SetupReason distinguishes an ordinary setup from one carrying a handover
// snapshot
type SetupReason int

const (
	SetupReasonNormal SetupReason = iota
	SetupReasonHandover
)

// DataService is the consumed interface to the radio data-service driver
// (RIL) Every call is asynchronous; replies arrive through the
// dispatcher as events carrying the bearer's tag, so a reply whose tag has
// gone stale can be dropped without ever reaching this interface's caller
// a second time.
type DataService interface {
	// SetupDataCall requests a new data call. reason distinguishes a plain
	// bring-up from a handover (in which case snapshot is non-nil and
	// carries the source bearer's link properties). The reply is
	// delivered out-of-band as a SetupDataCallDone event carrying tag.
	SetupDataCall(ctx context.Context, accessNetworkType string, profile *bearer.Profile,
		isModemRoaming, allowRoaming bool, reason SetupReason, snapshot *wire.HandoverSnapshot, tag uint64) error

	// DeactivateDataCall requests teardown of cid. The reply is delivered
	// out-of-band as a DeactivateDone event carrying tag. No reply is
	// expected for TEAR_DOWN_NOW.
	DeactivateDataCall(ctx context.Context, cid int, reason ReleaseReason, tag uint64) error

	// StartNattKeepalive and StopNattKeepalive are forwarded on WWAN only;
	// pkg/states rejects them on WLAN before reaching this interface.
	StartNattKeepalive(ctx context.Context, cid int, intervalMillis int) (handle int, err error)
	StopNattKeepalive(ctx context.Context, handle int) error
}

// SocketKeepaliveStatus is forwarded to the agent via
// OnSocketKeepaliveEvent
type SocketKeepaliveStatus int

const (
	KeepaliveStarted SocketKeepaliveStatus = iota
	KeepaliveStopped
	KeepaliveError
)

// Agent is the consumed interface to the upstream connectivity agent. A
// bearer owns exactly one Agent while Active;
// AcquireOwnership/ReleaseOwnership implement the handover window's atomic
// transfer.
type Agent interface {
	SendLinkProperties(lp bearer.LinkProperties)
	SendNetworkCapabilities(cs bearer.CapabilitySet)
	SendNetworkInfo(state bearer.DetailedState)
	SendNetworkScore(score int)
	OnSocketKeepaliveEvent(slot int, status SocketKeepaliveStatus)
}

// AgentOwner is implemented by whatever holds agents on behalf of bearers
// (typically the outer tracker); it is the authority for the handover
// ownership transfer, since the agent itself has no notion of "which
// bearer owns me".
type AgentOwner interface {
	AcquireOwnership(agent Agent, transport bearer.Transport) error
	ReleaseOwnership(agent Agent)
}

// Tracker is the outer tracker's interface back into a bearer's
// environment: finding a handover source, and receiving the suggested
// retry delay / failure classification this core only reports.
type Tracker interface {
	// FindHandoverSource locates the bearer serving apnType on the given
	// transport, or ok=false if none exists.
	FindHandoverSource(transport bearer.Transport, apnType bearer.Type) (source *bearer.Bearer, sourceAgent Agent, ok bool)

	// RecordSuggestedRetryDelay stores a modem-suggested delay for apnCtx
	// for the outer tracker to consume later.
	RecordSuggestedRetryDelay(apnCtx string, delayMillis int64)
}
