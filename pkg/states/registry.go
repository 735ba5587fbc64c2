package states

import (
	"log/slog"

	"github.com/pdpctl/databearer/internal/events"
	"github.com/pdpctl/databearer/pkg/bearer"
)

// registry holds one instance of each state (the five concrete states plus
// Default) so they can refer to each other for transitions without import
// cycles or forward declarations. NewBearerMachine builds a fresh registry
// for every machine; none of the states carry per-bearer data themselves
// (that lives on bearer.Bearer, reached through events.Context).
type registry struct {
	inactive           *Inactive
	activating         *Activating
	active             *Active
	disconnecting      *Disconnecting
	disconnectingError *DisconnectingError
	def                *Default
}

func newRegistry() *registry {
	r := &registry{}
	r.inactive = &Inactive{s: r}
	r.activating = &Activating{s: r}
	r.active = &Active{s: r}
	r.disconnecting = &Disconnecting{s: r}
	r.disconnectingError = &DisconnectingError{s: r}
	r.def = &Default{s: r}
	return r
}

// NewBearerMachine wires up a fresh events.Machine for b, starting
// Inactive, with env shared across every bearer's machine.
func NewBearerMachine(b *bearer.Bearer, env *Environment, log *slog.Logger) *events.Machine {
	r := newRegistry()
	rt := &Runtime{Env: env}
	return events.NewMachine(b, r.inactive, r.def, rt, log)
}
