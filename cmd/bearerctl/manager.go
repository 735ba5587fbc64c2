package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/config"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/states"
)

// manager owns every live bearer's machine plus the fakes that stand in
// for the radio driver and the outer connectivity stack. One manager
// backs the whole interactive session.
type manager struct {
	log        *slog.Logger
	dispatcher *events.Dispatcher
	modem      *simModem
	tracker    *consoleTracker
	owner      consoleAgentOwner
	cfg        *config.Config
	baseCtx    context.Context

	mu      sync.Mutex
	nextID  int
	bearers map[int]*bearerHandle
}

type bearerHandle struct {
	b     *bearer.Bearer
	agent *consoleAgent
}

func newManager(cfg *config.Config, log *slog.Logger) *manager {
	d := events.NewDispatcher(64, log)
	m := &manager{
		log:        log,
		dispatcher: d,
		tracker:    newConsoleTracker(),
		cfg:        cfg,
		baseCtx:    context.Background(),
		bearers:    make(map[int]*bearerHandle),
	}
	m.modem = newSimModem(d)
	return m
}

// run starts the dispatcher loop; call in its own goroutine.
func (m *manager) run(ctx context.Context) {
	m.dispatcher.Run(ctx)
}

// addBearer creates a new Inactive bearer bound to transport and
// registers its machine with the dispatcher.
func (m *manager) addBearer(transport bearer.Transport) *bearerHandle {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.mu.Unlock()

	b := bearer.New(id, transport, 0, 1)
	agent := newConsoleAgent(b.Name())

	env := &states.Environment{
		DataService: m.modem,
		Tracker:     m.tracker,
		AgentOwner:  m.owner,
		Config:      m.cfg,
		Ctx:         withBearerID(m.baseCtx, id),
	}
	mach := states.NewBearerMachine(b, env, m.log)
	mach.Runtime().(*states.Runtime).Agent = agent

	m.dispatcher.Register(id, mach)
	m.tracker.register(id, b, agent)

	h := &bearerHandle{b: b, agent: agent}
	m.mu.Lock()
	m.bearers[id] = h
	m.mu.Unlock()

	printf("bearer %d (%s) created\n", id, transport)
	return h
}

func (m *manager) find(id int) (*bearerHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.bearers[id]
	return h, ok
}

func (m *manager) list() []*bearerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*bearerHandle, 0, len(m.bearers))
	for _, h := range m.bearers {
		out = append(out, h)
	}
	return out
}

// connect attaches a new consumer requesting apnType to the bearer, or
// creates one on demand if id is unknown.
func (m *manager) connect(id int, transport bearer.Transport, apnContext string, apnType bearer.Type, requestType bearer.RequestType) {
	h, ok := m.find(id)
	if !ok {
		h = m.addBearer(transport)
		id = h.b.ID
	}

	done := make(chan faults.Failure, 1)
	params := &bearer.ConnectionParams{
		Handle:        bearer.NewConsumerHandle(),
		ApnContext:    apnContext,
		RequestType:   requestType,
		RequestedType: apnType,
		OnCompleted: func(f faults.Failure) {
			done <- f
		},
	}

	m.dispatcher.Post(events.Event{
		Kind:       events.KindConnect,
		BearerID:   id,
		EnqueuedAt: time.Now(),
		Connect:    &events.ConnectPayload{Params: params},
	})

	select {
	case f := <-done:
		if f.Cause == faults.CauseNone {
			printf("bearer %d: connected, apn=%s type=%s\n", id, apnContext, apnType)
		} else {
			printf("bearer %d: connect failed, cause=%s\n", id, f.Cause)
		}
	case <-time.After(2 * time.Second):
		printf("bearer %d: connect timed out waiting for a reply\n", id)
	}
}

// disconnect tears down one consumer (apnContext non-empty) or every
// consumer on the bearer (apnContext empty).
func (m *manager) disconnect(id int, apnContext string) {
	if _, ok := m.find(id); !ok {
		printf("bearer %d: unknown\n", id)
		return
	}

	done := make(chan faults.Failure, 1)
	m.dispatcher.Post(events.Event{
		Kind:       events.KindDisconnect,
		BearerID:   id,
		EnqueuedAt: time.Now(),
		Disconnect: &bearer.DisconnectParams{
			ApnContext:  apnContext,
			ReleaseType: bearer.ReleaseNormal,
			OnCompleted: func(f faults.Failure) {
				done <- f
			},
		},
	})

	select {
	case f := <-done:
		if f.Cause == faults.CauseNone {
			printf("bearer %d: disconnected\n", id)
		} else {
			printf("bearer %d: disconnect reported cause=%s\n", id, f.Cause)
		}
	case <-time.After(2 * time.Second):
		printf("bearer %d: disconnect timed out waiting for a reply\n", id)
	}
}

// radioOff posts KindRadioOff to every live bearer, mirroring a modem
// losing service.
func (m *manager) radioOff() {
	for _, h := range m.list() {
		m.dispatcher.Post(events.Event{Kind: events.KindRadioOff, BearerID: h.b.ID, EnqueuedAt: time.Now()})
	}
}

// handover starts a new bearer on the opposite transport from source,
// requesting a handover bring-up.
func (m *manager) handover(sourceID int, apnContext string, apnType bearer.Type) {
	h, ok := m.find(sourceID)
	if !ok {
		printf("bearer %d: unknown\n", sourceID)
		return
	}
	target := h.b.Transport.Opposite()
	m.connect(-1, target, apnContext, apnType, bearer.RequestHandover)
}

func (m *manager) status() {
	bearers := m.list()
	if len(bearers) == 0 {
		printf("no bearers\n")
		return
	}
	for _, h := range bearers {
		b := h.b
		printf("bearer %-12s cid=%-3d consumers=%-2d handover=%-18s score=%-3d caps=%s\n",
			b.Name(), b.Cid, len(b.Consumers), b.HandoverState, b.Score, h.agent.Capabilities.String())
	}
}

func (m *manager) close() {
	m.dispatcher.Close()
}
