package states

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/internal/raildriver/rmock"
	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/config"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/wire"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	machine *events.Machine
	ds      *rmock.DataService
	agent   *rmock.Agent
	tracker *rmock.Tracker
	cfg     *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessOn(t, bearer.TransportWWAN, nil)
}

// newHarnessOn builds a bearer machine on the given transport, sharing
// owner (an *rmock.AgentOwner) across harnesses so a handover between two
// machines can observe the same ownership transfer.
func newHarnessOn(t *testing.T, transport bearer.Transport, owner *rmock.AgentOwner) *harness {
	t.Helper()
	cfg, err := config.Load("default")
	require.NoError(t, err)

	ds := &rmock.DataService{}
	tr := &rmock.Tracker{}
	agent := &rmock.Agent{}

	b := bearer.New(0, transport, 0, 1)
	env := &Environment{
		DataService: ds,
		Tracker:     tr,
		AgentOwner:  owner,
		Config:      cfg,
		Ctx:         context.Background(),
	}

	m := NewBearerMachine(b, env, testLogger())
	m.Runtime().(*Runtime).Agent = agent

	return &harness{machine: m, ds: ds, agent: agent, tracker: tr, cfg: cfg}
}

func newConnectEvent(handle bearer.ConsumerHandle, apnCtx string, reqType bearer.Type, onDone func(faults.Failure)) events.Event {
	return events.Event{
		Kind:     events.KindConnect,
		BearerID: 0,
		Connect: &events.ConnectPayload{
			Params: &bearer.ConnectionParams{
				Handle:        handle,
				ApnContext:    apnCtx,
				RequestedType: reqType,
				OnCompleted:   onDone,
			},
		},
	}
}

func TestInactiveConnectTransitionsToActivating(t *testing.T) {
	h := newHarness(t)
	handle := bearer.NewConsumerHandle()
	var got faults.Failure
	done := false
	h.machine.Dispatch(newConnectEvent(handle, "default", bearer.TypeDefault, func(f faults.Failure) {
		done = true
		got = f
	}))

	assert.Equal(t, "Activating", h.machine.State().Name())
	assert.False(t, done, "consumer should not complete until setup replies")
	_ = got
	_, ok := h.ds.LastSetup()
	assert.True(t, ok)
}

func TestActivatingSuccessReachesActive(t *testing.T) {
	h := newHarness(t)
	handle := bearer.NewConsumerHandle()
	var result faults.Failure
	h.machine.Dispatch(newConnectEvent(handle, "default", bearer.TypeDefault, func(f faults.Failure) {
		result = f
	}))

	setup, ok := h.ds.LastSetup()
	require.True(t, ok)

	h.machine.Dispatch(events.Event{
		Kind:     events.KindSetupDataCallDone,
		BearerID: 0,
		Tag:      setup.Tag,
		SetupResult: &wire.SetupReply{
			Tag:    setup.Tag,
			Result: wire.SetupResultSuccess,
			Response: &wire.DataCallResponse{
				InterfaceName: "rmnet0",
				Addresses:     []string{"10.0.0.2/32"},
				DNS:           []string{"8.8.8.8"},
				Gateways:      []string{"10.0.0.1"},
				MTU:           1500,
			},
		},
	})

	assert.Equal(t, "Active", h.machine.State().Name())
	assert.Equal(t, faults.None, result)
	assert.NotEmpty(t, h.agent.LinkProperties)
}

func TestActivatingFailureReturnsToInactive(t *testing.T) {
	h := newHarness(t)
	handle := bearer.NewConsumerHandle()
	var result faults.Failure
	h.machine.Dispatch(newConnectEvent(handle, "default", bearer.TypeDefault, func(f faults.Failure) {
		result = f
	}))

	setup, ok := h.ds.LastSetup()
	require.True(t, ok)

	h.machine.Dispatch(events.Event{
		Kind:     events.KindSetupDataCallDone,
		BearerID: 0,
		Tag:      setup.Tag,
		SetupResult: &wire.SetupReply{
			Tag:    setup.Tag,
			Result: wire.SetupResultErrorRadioNotAvailable,
		},
	})

	assert.Equal(t, "Inactive", h.machine.State().Name())
	assert.Equal(t, faults.CauseRadioNotAvailable, result.Cause)
}

func TestStaleSetupReplyIsDropped(t *testing.T) {
	h := newHarness(t)
	handle := bearer.NewConsumerHandle()
	h.machine.Dispatch(newConnectEvent(handle, "default", bearer.TypeDefault, nil))

	setup, ok := h.ds.LastSetup()
	require.True(t, ok)

	h.machine.Dispatch(events.Event{
		Kind:     events.KindSetupDataCallDone,
		BearerID: 0,
		Tag:      setup.Tag + 1,
		SetupResult: &wire.SetupReply{
			Tag:    setup.Tag + 1,
			Result: wire.SetupResultSuccess,
			Response: &wire.DataCallResponse{
				InterfaceName: "rmnet0",
				Addresses:     []string{"10.0.0.2/32"},
			},
		},
	})

	assert.Equal(t, "Activating", h.machine.State().Name())
}

func TestDisconnectFromActiveTearsDown(t *testing.T) {
	h := newHarness(t)
	handle := bearer.NewConsumerHandle()
	h.machine.Dispatch(newConnectEvent(handle, "default", bearer.TypeDefault, nil))
	setup, _ := h.ds.LastSetup()
	h.machine.Dispatch(events.Event{
		Kind: events.KindSetupDataCallDone, BearerID: 0, Tag: setup.Tag,
		SetupResult: &wire.SetupReply{
			Tag: setup.Tag, Result: wire.SetupResultSuccess,
			Response: &wire.DataCallResponse{InterfaceName: "rmnet0", Addresses: []string{"10.0.0.2/32"}, DNS: []string{"8.8.8.8"}},
		},
	})
	require.Equal(t, "Active", h.machine.State().Name())

	var disconnectResult faults.Failure
	h.machine.Dispatch(events.Event{
		Kind:     events.KindDisconnect,
		BearerID: 0,
		Disconnect: &bearer.DisconnectParams{
			OnCompleted: func(f faults.Failure) { disconnectResult = f },
		},
	})

	assert.Equal(t, "Disconnecting", h.machine.State().Name())
	assert.Equal(t, 1, len(h.ds.DeactivateCalls))
	assert.Equal(t, faults.None, disconnectResult)

	tag := h.ds.DeactivateCalls[0].Tag
	h.machine.Dispatch(events.Event{Kind: events.KindDeactivateDone, BearerID: 0, Tag: tag})
	assert.Equal(t, "Inactive", h.machine.State().Name())
}

func TestDisconnectDuringActivatingIsDeferredThenApplied(t *testing.T) {
	h := newHarness(t)
	handle := bearer.NewConsumerHandle()
	var connectResult faults.Failure
	h.machine.Dispatch(newConnectEvent(handle, "default", bearer.TypeDefault, func(f faults.Failure) {
		connectResult = f
	}))
	require.Equal(t, "Activating", h.machine.State().Name())

	var disconnectResult faults.Failure
	disconnectSeen := false
	h.machine.Dispatch(events.Event{
		Kind:     events.KindDisconnect,
		BearerID: 0,
		Disconnect: &bearer.DisconnectParams{
			OnCompleted: func(f faults.Failure) { disconnectResult = f; disconnectSeen = true },
		},
	})
	// Still Activating: the disconnect was deferred, not yet applied.
	assert.Equal(t, "Activating", h.machine.State().Name())
	assert.False(t, disconnectSeen)

	setup, _ := h.ds.LastSetup()
	h.machine.Dispatch(events.Event{
		Kind: events.KindSetupDataCallDone, BearerID: 0, Tag: setup.Tag,
		SetupResult: &wire.SetupReply{
			Tag: setup.Tag, Result: wire.SetupResultSuccess,
			Response: &wire.DataCallResponse{InterfaceName: "rmnet0", Addresses: []string{"10.0.0.2/32"}, DNS: []string{"8.8.8.8"}},
		},
	})

	// Activating resolved the consumer on success, then the deferred
	// disconnect re-presented against Active tore it straight back down.
	assert.Equal(t, faults.None, connectResult)
	assert.Equal(t, "Disconnecting", h.machine.State().Name())

	tag := h.ds.DeactivateCalls[0].Tag
	h.machine.Dispatch(events.Event{Kind: events.KindDeactivateDone, BearerID: 0, Tag: tag})
	assert.Equal(t, "Inactive", h.machine.State().Name())
	assert.Equal(t, faults.None, disconnectResult)
}

func TestRadioOffForcesInactiveFromAnyState(t *testing.T) {
	h := newHarness(t)
	handle := bearer.NewConsumerHandle()
	var result faults.Failure
	h.machine.Dispatch(newConnectEvent(handle, "default", bearer.TypeDefault, func(f faults.Failure) {
		result = f
	}))
	require.Equal(t, "Activating", h.machine.State().Name())

	h.machine.Dispatch(events.Event{Kind: events.KindRadioOff, BearerID: 0})

	assert.Equal(t, "Inactive", h.machine.State().Name())
	assert.Equal(t, faults.CauseRadioNotAvailable, result.Cause)
}

func TestHandoverSourceReachesCompletedOnlyAfterItsOwnTeardown(t *testing.T) {
	owner := &rmock.AgentOwner{}

	source := newHarnessOn(t, bearer.TransportWWAN, owner)
	sourceHandle := bearer.NewConsumerHandle()
	source.machine.Dispatch(newConnectEvent(sourceHandle, "default", bearer.TypeDefault, nil))
	setup, _ := source.ds.LastSetup()
	source.machine.Dispatch(events.Event{
		Kind: events.KindSetupDataCallDone, BearerID: 0, Tag: setup.Tag,
		SetupResult: &wire.SetupReply{
			Tag: setup.Tag, Result: wire.SetupResultSuccess,
			Response: &wire.DataCallResponse{InterfaceName: "rmnet0", Addresses: []string{"10.0.0.2/32"}, DNS: []string{"8.8.8.8"}},
		},
	})
	require.Equal(t, "Active", source.machine.State().Name())

	dest := newHarnessOn(t, bearer.TransportWLAN, owner)
	dest.tracker.HandoverSource = source.machine.Bearer()
	dest.tracker.HandoverSourceAgent = source.agent
	dest.tracker.HandoverSourceFound = true

	destHandle := bearer.NewConsumerHandle()
	dest.machine.Dispatch(events.Event{
		Kind:     events.KindConnect,
		BearerID: 0,
		Connect: &events.ConnectPayload{
			Params: &bearer.ConnectionParams{
				Handle:        destHandle,
				ApnContext:    "default",
				RequestedType: bearer.TypeDefault,
				RequestType:   bearer.RequestHandover,
			},
		},
	})
	require.Equal(t, "Activating", dest.machine.State().Name())

	// The source staked out BEING_TRANSFERRED the moment the destination
	// started its handover attempt; it must not jump straight to COMPLETED.
	assert.Equal(t, bearer.HandoverBeingTransferred, source.machine.Bearer().HandoverState)

	destSetup, ok := dest.ds.LastSetup()
	require.True(t, ok)
	dest.machine.Dispatch(events.Event{
		Kind: events.KindSetupDataCallDone, BearerID: 0, Tag: destSetup.Tag,
		SetupResult: &wire.SetupReply{
			Tag: destSetup.Tag, Result: wire.SetupResultSuccess,
			Response: &wire.DataCallResponse{InterfaceName: "rmnet1", Addresses: []string{"10.0.0.3/32"}, DNS: []string{"8.8.8.8"}},
		},
	})
	require.Equal(t, "Active", dest.machine.State().Name())

	// Ownership transferred to the destination, but the source itself has
	// not torn down yet: it stays BEING_TRANSFERRED, not COMPLETED.
	require.Equal(t, 1, len(owner.Acquired))
	assert.Equal(t, bearer.HandoverBeingTransferred, source.machine.Bearer().HandoverState)

	// The source now tears down on its own, normally.
	source.machine.Dispatch(events.Event{
		Kind:       events.KindDisconnect,
		BearerID:   0,
		Disconnect: &bearer.DisconnectParams{},
	})
	require.Equal(t, "Disconnecting", source.machine.State().Name())
	srcDeactivate := source.ds.DeactivateCalls[0]
	source.machine.Dispatch(events.Event{Kind: events.KindDeactivateDone, BearerID: 0, Tag: srcDeactivate.Tag})

	assert.Equal(t, "Inactive", source.machine.State().Name())
	assert.Equal(t, bearer.HandoverCompleted, source.machine.Bearer().HandoverState)
}

func TestLinkPropertiesBuildFailureRoutesThroughDisconnectingError(t *testing.T) {
	h := newHarness(t)
	handle := bearer.NewConsumerHandle()
	var result faults.Failure
	h.machine.Dispatch(newConnectEvent(handle, "default", bearer.TypeDefault, func(f faults.Failure) {
		result = f
	}))
	setup, _ := h.ds.LastSetup()

	h.machine.Dispatch(events.Event{
		Kind: events.KindSetupDataCallDone, BearerID: 0, Tag: setup.Tag,
		SetupResult: &wire.SetupReply{
			Tag: setup.Tag, Result: wire.SetupResultSuccess,
			Response: &wire.DataCallResponse{
				InterfaceName: "", // missing interface name fails link-properties validation
				Cid:           7,
			},
		},
	})

	assert.Equal(t, "DisconnectingErrorCreatingConnection", h.machine.State().Name())
	require.Equal(t, 1, len(h.ds.DeactivateCalls))
	assert.Equal(t, 7, h.ds.DeactivateCalls[0].Cid)

	tag := h.ds.DeactivateCalls[0].Tag
	h.machine.Dispatch(events.Event{Kind: events.KindDeactivateDone, BearerID: 0, Tag: tag})

	assert.Equal(t, "Inactive", h.machine.State().Name())
	assert.Equal(t, faults.CauseUnacceptableNetworkParameter, result.Cause)
}
