// Package rmock provides hand-written test doubles for the raildriver
// interfaces.
package rmock

import (
	"context"
	"sync"

	"github.com/pdpctl/databearer/internal/raildriver"
	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/wire"
)

// DataService is a scriptable fake of raildriver.DataService.
type DataService struct {
	mu sync.Mutex

	SetupCalls      []SetupCall
	DeactivateCalls []DeactivateCall

	SetupErr      error
	DeactivateErr error

	KeepaliveHandle int
	KeepaliveErr    error
}

// SetupCall records one SetupDataCall invocation.
type SetupCall struct {
	AccessNetworkType string
	Profile           *bearer.Profile
	Reason            raildriver.SetupReason
	Snapshot          *wire.HandoverSnapshot
	Tag               uint64
}

// DeactivateCall records one DeactivateDataCall invocation.
type DeactivateCall struct {
	Cid    int
	Reason raildriver.ReleaseReason
	Tag    uint64
}

var _ raildriver.DataService = (*DataService)(nil)

func (d *DataService) SetupDataCall(ctx context.Context, accessNetworkType string, profile *bearer.Profile,
	isModemRoaming, allowRoaming bool, reason raildriver.SetupReason, snapshot *wire.HandoverSnapshot, tag uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.SetupCalls = append(d.SetupCalls, SetupCall{accessNetworkType, profile, reason, snapshot, tag})
	return d.SetupErr
}

func (d *DataService) DeactivateDataCall(ctx context.Context, cid int, reason raildriver.ReleaseReason, tag uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.DeactivateCalls = append(d.DeactivateCalls, DeactivateCall{cid, reason, tag})
	return d.DeactivateErr
}

func (d *DataService) StartNattKeepalive(ctx context.Context, cid int, intervalMillis int) (int, error) {
	return d.KeepaliveHandle, d.KeepaliveErr
}

func (d *DataService) StopNattKeepalive(ctx context.Context, handle int) error {
	return d.KeepaliveErr
}

// LastSetup returns the most recent SetupDataCall invocation, or the zero
// value if none occurred.
func (d *DataService) LastSetup() (SetupCall, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.SetupCalls) == 0 {
		return SetupCall{}, false
	}
	return d.SetupCalls[len(d.SetupCalls)-1], true
}

// Agent is a recording fake of raildriver.Agent.
type Agent struct {
	mu sync.Mutex

	LinkProperties  []bearer.LinkProperties
	Capabilities    []bearer.CapabilitySet
	NetworkInfo     []bearer.DetailedState
	Scores          []int
	KeepaliveEvents []KeepaliveEvent
}

type KeepaliveEvent struct {
	Slot   int
	Status raildriver.SocketKeepaliveStatus
}

var _ raildriver.Agent = (*Agent)(nil)

func (a *Agent) SendLinkProperties(lp bearer.LinkProperties) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.LinkProperties = append(a.LinkProperties, lp)
}

func (a *Agent) SendNetworkCapabilities(cs bearer.CapabilitySet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Capabilities = append(a.Capabilities, cs)
}

func (a *Agent) SendNetworkInfo(state bearer.DetailedState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.NetworkInfo = append(a.NetworkInfo, state)
}

func (a *Agent) SendNetworkScore(score int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Scores = append(a.Scores, score)
}

func (a *Agent) OnSocketKeepaliveEvent(slot int, status raildriver.SocketKeepaliveStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.KeepaliveEvents = append(a.KeepaliveEvents, KeepaliveEvent{slot, status})
}

// LastCapabilities returns the most recently pushed capability set.
func (a *Agent) LastCapabilities() (bearer.CapabilitySet, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.Capabilities) == 0 {
		return bearer.CapabilitySet{}, false
	}
	return a.Capabilities[len(a.Capabilities)-1], true
}

// AgentOwner is a recording fake of raildriver.AgentOwner.
type AgentOwner struct {
	mu sync.Mutex

	AcquireErr error

	Acquired []AcquireCall
	Released []raildriver.Agent
}

// AcquireCall records one AcquireOwnership invocation.
type AcquireCall struct {
	Agent     raildriver.Agent
	Transport bearer.Transport
}

var _ raildriver.AgentOwner = (*AgentOwner)(nil)

func (o *AgentOwner) AcquireOwnership(agent raildriver.Agent, transport bearer.Transport) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.AcquireErr != nil {
		return o.AcquireErr
	}
	o.Acquired = append(o.Acquired, AcquireCall{agent, transport})
	return nil
}

func (o *AgentOwner) ReleaseOwnership(agent raildriver.Agent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Released = append(o.Released, agent)
}

// Tracker is a scriptable fake of raildriver.Tracker.
type Tracker struct {
	mu sync.Mutex

	HandoverSource      *bearer.Bearer
	HandoverSourceAgent raildriver.Agent
	HandoverSourceFound bool

	RecordedDelays map[string]int64
}

var _ raildriver.Tracker = (*Tracker)(nil)

func (t *Tracker) FindHandoverSource(transport bearer.Transport, apnType bearer.Type) (*bearer.Bearer, raildriver.Agent, bool) {
	return t.HandoverSource, t.HandoverSourceAgent, t.HandoverSourceFound
}

func (t *Tracker) RecordSuggestedRetryDelay(apnCtx string, delayMillis int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.RecordedDelays == nil {
		t.RecordedDelays = make(map[string]int64)
	}
	t.RecordedDelays[apnCtx] = delayMillis
}
