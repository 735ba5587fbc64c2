// Package states implements the five concrete bearer states (Inactive,
// Activating, Active, Disconnecting, DisconnectingErrorCreatingConnection)
// and the Default parent state, on top of the internal/events machinery.
package states

import (
	"context"

	"github.com/pdpctl/databearer/internal/raildriver"
	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/config"
)

// Environment bundles the external collaborators shared by every bearer's
// machine: the radio data-service driver, the outer tracker, agent
// ownership, and static carrier configuration.
type Environment struct {
	DataService raildriver.DataService
	Tracker     raildriver.Tracker
	AgentOwner  raildriver.AgentOwner
	Config      *config.Config
	Ctx         context.Context
}

// Runtime is the per-bearer value carried through events.Context.Runtime:
// the shared Environment plus this bearer's own agent, once owned.
type Runtime struct {
	Env   *Environment
	Agent raildriver.Agent

	// handoverSource and handoverSourceAgent are set by Inactive when a
	// RequestHandover initConnection locates a source bearer, and consumed
	// by Activating once its own setupDataCall succeeds (to transfer agent
	// ownership; the source's own handover_state only reaches COMPLETED
	// later, when the source itself tears down) or fails (to cancel the
	// handover on the source).
	handoverSource      *bearer.Bearer
	handoverSourceAgent raildriver.Agent
}
