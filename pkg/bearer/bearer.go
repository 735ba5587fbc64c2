// Package bearer defines the per-session connection record: a
// single PDP/PDN-like data bearer bound to one radio transport, its
// consumers, its link properties, and the overrides that shape the
// capabilities exposed to the upstream connectivity layer.
//
// Bearer itself holds no dispatcher or network-agent logic; it is the
// record that internal/events and pkg/states read and mutate while
// processing one event at a time on the shared dispatcher.
package bearer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/wire"
)

// Transport is the radio transport a bearer is bound to.
type Transport int

const (
	TransportWWAN Transport = iota
	TransportWLAN
)

func (t Transport) String() string {
	switch t {
	case TransportWWAN:
		return "WWAN"
	case TransportWLAN:
		return "WLAN"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other transport, used by the handover orchestrator
// to locate a source bearer.
func (t Transport) Opposite() Transport {
	if t == TransportWWAN {
		return TransportWLAN
	}
	return TransportWWAN
}

// HandoverState is a bearer's position in a handover. The wire values
// (1/2/3) are what gets reported to observers.
type HandoverState int

const (
	HandoverIdle         HandoverState = 1
	HandoverBeingTransferred HandoverState = 2
	HandoverCompleted    HandoverState = 3
)

func (h HandoverState) String() string {
	switch h {
	case HandoverIdle:
		return "IDLE"
	case HandoverBeingTransferred:
		return "BEING_TRANSFERRED"
	case HandoverCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// RequestType distinguishes an ordinary bring-up from one that expects a
// handover source to exist.
type RequestType int

const (
	RequestNormal RequestType = iota
	RequestHandover
)

// SubscriptionOverride is a policy bitset applied on top of the APN's own
// metered/restricted state
type SubscriptionOverride uint8

const (
	OverrideUnmetered SubscriptionOverride = 1 << iota
	OverrideCongested
)

// ConsumerHandle identifies one attached APN-context consumer. Opaque to
// everything outside this package; generated with uuid so it is stable
// across process boundaries if a driver adapter ever needs to log it.
type ConsumerHandle uuid.UUID

func (h ConsumerHandle) String() string {
	return uuid.UUID(h).String()
}

// NewConsumerHandle allocates a new opaque consumer handle.
func NewConsumerHandle() ConsumerHandle {
	return ConsumerHandle(uuid.New())
}

// ConnectionParams is attached to the bearer once per consumer
type ConnectionParams struct {
	Handle ConsumerHandle

	// ApnContext identifies the caller-owned context this attachment
	// belongs to; opaque to the bearer, only used for lookups and
	// notifications.
	ApnContext string

	ProfileID        int
	RadioTechnology  string
	RequestType      RequestType
	SubscriptionID   int
	Generation       int

	// RequestedType is the APN type this consumer is attaching for, checked
	// against the profile's bitmask at initConnection and against the
	// disabled-types override on every capability synthesis.
	RequestedType Type

	// UnconstrainedInternet is true when this consumer's request asks for
	// INTERNET with no network-specifier constraint.
	UnconstrainedInternet bool

	// Tag is stamped at initConnection time for stale-reply
	// detection: a completion that arrives stamped with a tag other than
	// the bearer's current tag is dropped.
	Tag uint64

	// OnCompleted is resolved exactly once with the setup/teardown outcome.
	OnCompleted func(faults.Failure)
}

// DisconnectParams describes one teardown request
type DisconnectParams struct {
	// ApnContext is nil (empty string) for "disconnect all".
	ApnContext  string
	Reason      string
	ReleaseType ReleaseType
	OnCompleted func(faults.Failure)
}

// ReleaseType is the reason passed to deactivateDataCall
type ReleaseType int

const (
	ReleaseNormal ReleaseType = iota
	ReleaseDetach
	ReleaseHandover
	ReleaseShutdown
)

// Overrides are external policy inputs that modify exposed capabilities
// without changing the underlying bearer
type Overrides struct {
	UnmeteredOverride    bool
	SubscriptionOverride SubscriptionOverride
	RestrictedOverride   bool
	UnmeteredUseOnly     bool
	DisabledAPNTypes     Type
}

// Bearer is the per-session connection record
type Bearer struct {
	ID             int
	Transport      Transport
	SubscriptionID int

	// instance disambiguates bearers sharing the same (id, transport) over
	// the process lifetime; used only as a tie-breaker in Name().
	instance int

	// Cid is the modem-assigned context id; -1 when inactive.
	Cid int

	// Tag is bumped on every (re)entry to Inactive and on every
	// initConnection; used to discard stale async replies.
	Tag uint64

	Profile *Profile

	Consumers map[ConsumerHandle]*ConnectionParams

	LinkProperties LinkProperties

	Capabilities CapabilitySet

	HandoverState       HandoverState
	HandoverSourceAgent AgentRef

	// PendingHandoverSnapshot carries the source bearer's link properties
	// across the Inactive->Activating transition when initConnection was
	// requested with RequestHandover; Activating hands it to SetupDataCall
	// and clears it once the request is submitted.
	PendingHandoverSnapshot *wire.HandoverSnapshot

	Score int

	Overrides Overrides

	// RadioTechnology, InService, DataRoaming, NRConnected, NRIsMmWave, and
	// CarrierAggregation are the radio-service facts reported through
	// DRS_OR_RAT_CHANGED/ROAM_ON/ROAM_OFF/NR_STATE_CHANGED/
	// NR_FREQUENCY_CHANGED; they persist across a bearer's own lifecycle
	// since they describe the radio, not this bearer's bring-up.
	RadioTechnology    string
	InService          bool
	DataRoaming        bool
	NRConnected        bool
	NRIsMmWave         bool
	CarrierAggregation bool

	// VoiceCallActive and ConcurrentVoiceAndDataDisallowed drive the
	// suspend rule in capabilities.DetailedState; set from
	// VOICE_CALL_STARTED/VOICE_CALL_ENDED.
	VoiceCallActive                  bool
	ConcurrentVoiceAndDataDisallowed bool

	LastFailCause faults.Failure
	LastFailTime  time.Time
	CreateTime    time.Time
}

// AgentRef is a non-owning reference to another bearer's network agent,
// held only during the handover window. The
// zero value means "no reference".
type AgentRef struct {
	Present bool
	BearerID int
}

// New creates an Inactive bearer bound to the given id/transport/instance.
func New(id int, transport Transport, instance, subscriptionID int) *Bearer {
	return &Bearer{
		ID:             id,
		Transport:      transport,
		SubscriptionID: subscriptionID,
		instance:       instance,
		Cid:            -1,
		Consumers:      make(map[ConsumerHandle]*ConnectionParams),
		Score:          45,
		HandoverState:  HandoverIdle,
		InService:      true,
		CreateTime:     time.Now(),
	}
}

// Name returns a human-readable bearer name: "a stable numeric id,
// human-readable name ... an instance counter used as a tie-breaker".
func (b *Bearer) Name() string {
	return fmt.Sprintf("%s-%d-%d", b.Transport, b.ID, b.instance)
}

// IsInactive reports whether the bearer currently serves no consumers:
// consumers is empty iff the bearer's state is Inactive.
func (b *Bearer) IsInactive() bool {
	return len(b.Consumers) == 0
}

// AddConsumer inserts params into Consumers. Insertion order is
// irrelevant.
func (b *Bearer) AddConsumer(p *ConnectionParams) {
	b.Consumers[p.Handle] = p
}

// RemoveConsumer deletes handle from Consumers and returns the removed
// params, if present.
func (b *Bearer) RemoveConsumer(handle ConsumerHandle) (*ConnectionParams, bool) {
	p, ok := b.Consumers[handle]
	if ok {
		delete(b.Consumers, handle)
	}
	return p, ok
}

// BumpTag increments and returns the bearer's tag. Called on every
// (re)entry to Inactive and on every initConnection.
func (b *Bearer) BumpTag() uint64 {
	b.Tag++
	return b.Tag
}

// IsTagCurrent reports whether tag matches the bearer's current tag; a
// false result means the caller must silently drop the reply.
func (b *Bearer) IsTagCurrent(tag uint64) bool {
	return tag == b.Tag
}

// ResetForInactive clears the fields that must not survive into a fresh
// Inactive bearer: cid, link properties, handover source reference.
// Consumers are cleared by the caller. clearProfile additionally drops
// Profile and Overrides; callers pass false when a PDP-reject cause is
// configured to retain the last-used APN settings across the retry.
//
// handover_state settles here rather than being forced to IDLE
// unconditionally: a bearer that was mid-transfer as a handover source
// (BEING_TRANSFERRED) promotes to COMPLETED on its own entry to Inactive,
// per the rule that only the source ever makes that transition, and only
// once it has actually torn down. Any other bearer - one that was never a
// handover source, or a destination, which only ever observes IDLE -
// settles at IDLE.
func (b *Bearer) ResetForInactive(clearProfile bool) {
	b.Cid = -1
	b.LinkProperties = LinkProperties{}
	b.HandoverSourceAgent = AgentRef{}
	if b.HandoverState == HandoverBeingTransferred {
		b.HandoverState = HandoverCompleted
	} else {
		b.HandoverState = HandoverIdle
	}
	b.PendingHandoverSnapshot = nil
	if clearProfile {
		b.Profile = nil
		b.Overrides = Overrides{}
	}
}
