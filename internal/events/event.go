// Package events implements the shared, single-threaded event dispatcher
// that drives every bearer's state machine. Every event for every bearer
// passes through one goroutine, so the states in pkg/states never need to
// take a lock on the bearer record they mutate.
package events

import (
	"time"

	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/wire"
)

// Kind identifies the event being dispatched to a bearer's state machine.
type Kind int

const (
	// KindConnect carries a new consumer's attach request.
	KindConnect Kind = iota

	// KindDisconnect carries a teardown request for one or all consumers.
	KindDisconnect

	// KindSetupDataCallDone carries the radio driver's asynchronous reply
	// to a setupDataCall request.
	KindSetupDataCallDone

	// KindDeactivateDone carries the radio driver's asynchronous reply to
	// a deactivateDataCall request.
	KindDeactivateDone

	// KindLostConnection reports that an Active bearer was torn down
	// externally, e.g. by the modem.
	KindLostConnection

	// KindRadioOff reports the radio going unavailable; every bearer
	// drops to Inactive without waiting for a driver reply.
	KindRadioOff

	// KindCarrierConfigChanged asks an Active bearer to re-synthesize and
	// push its capabilities from its current overrides; other states
	// ignore it.
	KindCarrierConfigChanged

	// KindServiceStateChanged carries updated roaming/in-service status.
	KindServiceStateChanged

	// KindVoiceCallStarted and KindVoiceCallEnded drive the
	// concurrent-voice-and-data suspend rule.
	KindVoiceCallStarted
	KindVoiceCallEnded

	// KindTearDownNow is a synchronous local teardown that expects no
	// driver reply (used for handover source cleanup and shutdown).
	KindTearDownNow

	// KindStartHandover marks this Active bearer as the source of a
	// handover onto the opposite transport (BEING_TRANSFERRED).
	KindStartHandover

	// KindCompleteHandover finalizes a handover once the new bearer's
	// setup has succeeded.
	KindCompleteHandover

	// KindCancelHandover aborts an in-progress handover, returning this
	// Active source bearer's handover state to IDLE; agent ownership is
	// not touched.
	KindCancelHandover

	// KindKeepaliveEvent carries a socket-keepalive status change from
	// the radio driver.
	KindKeepaliveEvent

	// KindResetBearer forces a bearer back to Inactive, discarding any
	// consumers without notifying them of success (used for subscription
	// teardown).
	KindResetBearer

	// KindRetryConnection re-attempts initConnection on an Inactive bearer
	// with the ConnectionParams carried in the event's Connect payload
	// (saved by the caller from an earlier attempt), e.g. after a retry
	// timer set from a modem's suggested delay has elapsed.
	KindRetryConnection

	// KindReevaluateRestricted asks the bearer to drop restricted_override
	// if the outer tracker has determined it is no longer needed. Only
	// Active can actually clear it; every other state defers it.
	KindReevaluateRestricted

	// KindReevaluateDataConnectionProperties asks Active to recompute its
	// score and push it if changed.
	KindReevaluateDataConnectionProperties

	// KindMeterednessChanged carries an updated APN meteredness predicate.
	KindMeterednessChanged

	// KindNRFrequencyChanged carries an updated NR mmWave/sub-6 frequency
	// classification for the bandwidth table.
	KindNRFrequencyChanged

	// KindRoamOn and KindRoamOff carry a data-roaming state transition.
	KindRoamOn
	KindRoamOff

	// KindOverrideChanged carries an updated policy override bundle
	// (unmetered/congested/unmetered-use-only).
	KindOverrideChanged

	// KindDRSOrRATChanged carries an updated data-registration state and
	// radio technology name.
	KindDRSOrRATChanged

	// KindBWRefreshResponse and KindLinkCapacityChanged carry a
	// modem-reported bandwidth sample, applied only when the carrier
	// config designates the modem as the bandwidth source.
	KindBWRefreshResponse
	KindLinkCapacityChanged

	// KindNRStateChanged carries the secondary NR carrier's connected
	// state, refreshing both the TCP buffer table and the bandwidth entry
	// it feeds.
	KindNRStateChanged

	// KindKeepaliveStartRequest and KindKeepaliveStopRequest carry a
	// socket-keepalive request from the outer tracker; forwarded to the
	// radio driver on WWAN, rejected immediately everywhere else.
	KindKeepaliveStartRequest
	KindKeepaliveStopRequest
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "CONNECT"
	case KindDisconnect:
		return "DISCONNECT"
	case KindSetupDataCallDone:
		return "SETUP_DATA_CALL_DONE"
	case KindDeactivateDone:
		return "DEACTIVATE_DONE"
	case KindLostConnection:
		return "LOST_CONNECTION"
	case KindRadioOff:
		return "RADIO_OFF"
	case KindCarrierConfigChanged:
		return "CARRIER_CONFIG_CHANGED"
	case KindServiceStateChanged:
		return "SERVICE_STATE_CHANGED"
	case KindVoiceCallStarted:
		return "VOICE_CALL_STARTED"
	case KindVoiceCallEnded:
		return "VOICE_CALL_ENDED"
	case KindTearDownNow:
		return "TEAR_DOWN_NOW"
	case KindStartHandover:
		return "START_HANDOVER"
	case KindCompleteHandover:
		return "COMPLETE_HANDOVER"
	case KindCancelHandover:
		return "CANCEL_HANDOVER"
	case KindKeepaliveEvent:
		return "KEEPALIVE_EVENT"
	case KindResetBearer:
		return "RESET_BEARER"
	case KindRetryConnection:
		return "RETRY_CONNECTION"
	case KindReevaluateRestricted:
		return "REEVALUATE_RESTRICTED"
	case KindReevaluateDataConnectionProperties:
		return "REEVALUATE_DATA_CONNECTION_PROPERTIES"
	case KindMeterednessChanged:
		return "METEREDNESS_CHANGED"
	case KindNRFrequencyChanged:
		return "NR_FREQUENCY_CHANGED"
	case KindRoamOn:
		return "ROAM_ON"
	case KindRoamOff:
		return "ROAM_OFF"
	case KindOverrideChanged:
		return "OVERRIDE_CHANGED"
	case KindDRSOrRATChanged:
		return "DRS_OR_RAT_CHANGED"
	case KindBWRefreshResponse:
		return "BW_REFRESH_RESPONSE"
	case KindLinkCapacityChanged:
		return "LINK_CAPACITY_CHANGED"
	case KindNRStateChanged:
		return "NR_STATE_CHANGED"
	case KindKeepaliveStartRequest:
		return "KEEPALIVE_START_REQUEST"
	case KindKeepaliveStopRequest:
		return "KEEPALIVE_STOP_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// Event is one message routed through the dispatcher to a single bearer's
// state machine.
type Event struct {
	Kind Kind

	// BearerID selects which bearer's machine receives this event.
	BearerID int

	// Tag is stamped on events that carry an asynchronous driver reply;
	// the receiving state drops the event if it no longer matches the
	// bearer's current tag. Zero for events with no tag affinity.
	Tag uint64

	// EnqueuedAt is informational only, used by the interactive CLI and
	// tests to display event latency.
	EnqueuedAt time.Time

	Connect          *ConnectPayload
	Disconnect       *bearer.DisconnectParams
	SetupResult      *wire.SetupReply
	SetupOutcome     faults.Failure
	DeactivateResult *wire.DeactivateReply
	ServiceState     *ServiceStatePayload
	KeepaliveStatus  *KeepalivePayload
	HandoverRequest  *HandoverPayload

	RAT         *RATPayload
	NRState     *NRPayload
	Override    *OverridePayload
	Meteredness *MeterednessPayload
	VoiceCall   *VoiceCallPayload
	Bandwidth   *BandwidthPayload

	KeepaliveStart *KeepaliveStartPayload
	KeepaliveStop  *KeepaliveStopPayload
}

// ConnectPayload carries a new consumer's connection request.
type ConnectPayload struct {
	Params *bearer.ConnectionParams
}

// ServiceStatePayload carries updated radio service state.
type ServiceStatePayload struct {
	DataRoaming bool
	InService   bool
}

// KeepalivePayload carries a socket-keepalive status update.
type KeepalivePayload struct {
	Slot   int
	Status int
}

// HandoverPayload carries the parameters of a handover request.
type HandoverPayload struct {
	SourceBearerID int
}

// RATPayload carries a DRS_OR_RAT_CHANGED update: the reported radio
// technology name, in-service status, and carrier-aggregation flag feeding
// the TCP buffer table's LTE-CA override.
type RATPayload struct {
	RadioTechnology    string
	InService          bool
	CarrierAggregation bool
}

// NRPayload carries an NR secondary-carrier update: Connected for
// NR_STATE_CHANGED, MmWave for NR_FREQUENCY_CHANGED.
type NRPayload struct {
	Connected bool
	MmWave    bool
}

// OverridePayload carries an OVERRIDE_CHANGED policy bundle. It never
// touches RestrictedOverride or DisabledAPNTypes, which are maintained by
// REEVALUATE_RESTRICTED and CONNECT/DISCONNECT respectively.
type OverridePayload struct {
	UnmeteredOverride    bool
	SubscriptionOverride bearer.SubscriptionOverride
	UnmeteredUseOnly     bool
}

// MeterednessPayload carries an updated APN meteredness predicate.
type MeterednessPayload struct {
	Metered bool
}

// VoiceCallPayload accompanies KindVoiceCallStarted with whether the
// current RAT disallows concurrent voice and data.
type VoiceCallPayload struct {
	ConcurrentVoiceAndDataDisallowed bool
}

// BandwidthPayload carries a modem-reported bandwidth sample in kbps for
// BW_REFRESH_RESPONSE/LINK_CAPACITY_CHANGED.
type BandwidthPayload struct {
	DownKbps int
	UpKbps   int
}

// KeepaliveStartPayload carries a socket-keepalive start request and its
// completion callback, resolved with the modem-assigned keepalive handle
// on success.
type KeepaliveStartPayload struct {
	IntervalMillis int
	OnCompleted    func(handle int, f faults.Failure)
}

// KeepaliveStopPayload carries a socket-keepalive stop request and its
// completion callback.
type KeepaliveStopPayload struct {
	Handle      int
	OnCompleted func(f faults.Failure)
}
