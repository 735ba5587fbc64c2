package main

import (
	"context"
	"sync"
	"time"

	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/internal/raildriver"
	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/wire"
)

// simModem is a stand-in radio data-service driver: every call succeeds
// immediately and schedules its asynchronous reply on a short delay, the
// way a real modem's AT/QMI round-trip would, without actually talking to
// hardware. scriptedFailure lets the operator force the next setup to
// fail with a given wire result for testing a retry path.
type simModem struct {
	dispatcher *events.Dispatcher

	mu              sync.Mutex
	nextCid         int32
	scriptedFailure wire.SetupResult
	scriptedRetryMs int64
}

func newSimModem(d *events.Dispatcher) *simModem {
	return &simModem{dispatcher: d, nextCid: 1}
}

func (m *simModem) ScriptFailure(result wire.SetupResult, retryMillis int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scriptedFailure = result
	m.scriptedRetryMs = retryMillis
}

func (m *simModem) SetupDataCall(ctx context.Context, accessNetworkType string, profile *bearer.Profile,
	isModemRoaming, allowRoaming bool, reason raildriver.SetupReason, snapshot *wire.HandoverSnapshot, tag uint64) error {

	bearerID, _ := bearerIDFromContext(ctx)

	m.mu.Lock()
	failure := m.scriptedFailure
	retryMs := m.scriptedRetryMs
	m.scriptedFailure = wire.SetupResultSuccess
	m.scriptedRetryMs = 0
	m.nextCid++
	cid := m.nextCid
	m.mu.Unlock()

	go func() {
		time.Sleep(30 * time.Millisecond)
		reply := &wire.SetupReply{Tag: tag}
		if failure != wire.SetupResultSuccess {
			reply.Result = failure
			reply.Response = &wire.DataCallResponse{SuggestedRetryMillis: retryMs}
		} else {
			reply.Result = wire.SetupResultSuccess
			reply.Response = &wire.DataCallResponse{
				Cid:           cid,
				InterfaceName: "rmnet0",
				Addresses:     []string{"10.0.0.2/32"},
				DNS:           []string{"8.8.8.8", "8.8.4.4"},
				Gateways:      []string{"10.0.0.1"},
				MTU:           1500,
			}
			if snapshot != nil {
				reply.Response.PCSCF = snapshot.PCSCF
			}
		}
		m.dispatcher.Post(events.Event{
			Kind:        events.KindSetupDataCallDone,
			BearerID:    bearerID,
			Tag:         tag,
			SetupResult: reply,
			EnqueuedAt:  time.Now(),
		})
	}()
	return nil
}

func (m *simModem) DeactivateDataCall(ctx context.Context, cid int, reason raildriver.ReleaseReason, tag uint64) error {
	bearerID, _ := bearerIDFromContext(ctx)
	go func() {
		time.Sleep(15 * time.Millisecond)
		m.dispatcher.Post(events.Event{
			Kind:             events.KindDeactivateDone,
			BearerID:         bearerID,
			Tag:              tag,
			DeactivateResult: &wire.DeactivateReply{Tag: tag, Success: true},
			EnqueuedAt:       time.Now(),
		})
	}()
	return nil
}

func (m *simModem) StartNattKeepalive(ctx context.Context, cid int, intervalMillis int) (int, error) {
	return 1, nil
}

func (m *simModem) StopNattKeepalive(ctx context.Context, handle int) error {
	return nil
}

var _ raildriver.DataService = (*simModem)(nil)

type bearerIDKey struct{}

func withBearerID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, bearerIDKey{}, id)
}

func bearerIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(bearerIDKey{}).(int)
	return id, ok
}
