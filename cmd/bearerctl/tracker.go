package main

import (
	"sync"

	"github.com/pdpctl/databearer/internal/raildriver"
	"github.com/pdpctl/databearer/pkg/bearer"
)

// consoleTracker is the outer tracker's role played for the CLI: it knows
// every live bearer (for handover source lookup) and just prints whatever
// retry delay the modem suggests, since there is no real retry scheduler
// here.
type consoleTracker struct {
	mu      sync.Mutex
	bearers map[int]*bearerEntry
}

type bearerEntry struct {
	b     *bearer.Bearer
	agent raildriver.Agent
}

func newConsoleTracker() *consoleTracker {
	return &consoleTracker{bearers: make(map[int]*bearerEntry)}
}

func (t *consoleTracker) register(id int, b *bearer.Bearer, agent raildriver.Agent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bearers[id] = &bearerEntry{b: b, agent: agent}
}

func (t *consoleTracker) FindHandoverSource(transport bearer.Transport, apnType bearer.Type) (*bearer.Bearer, raildriver.Agent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.bearers {
		if e.b.Transport != transport || e.b.IsInactive() {
			continue
		}
		if e.b.Profile != nil && e.b.Profile.CompatibleWith(apnType) {
			return e.b, e.agent, true
		}
	}
	return nil, nil, false
}

func (t *consoleTracker) RecordSuggestedRetryDelay(apnCtx string, delayMillis int64) {
	printf("tracker: %s suggested retry delay %dms\n", apnCtx, delayMillis)
}

var _ raildriver.Tracker = (*consoleTracker)(nil)

// consoleAgentOwner logs ownership transfers; there is nothing else in this
// CLI that needs to act on them.
type consoleAgentOwner struct{}

func (consoleAgentOwner) AcquireOwnership(agent raildriver.Agent, transport bearer.Transport) error {
	printf("agent owner: acquired agent for %s\n", transport)
	return nil
}

func (consoleAgentOwner) ReleaseOwnership(agent raildriver.Agent) {
	printf("agent owner: released agent\n")
}

var _ raildriver.AgentOwner = consoleAgentOwner{}
