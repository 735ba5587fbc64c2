package main

import (
	"github.com/pdpctl/databearer/internal/raildriver"
	"github.com/pdpctl/databearer/pkg/bearer"
)

// consoleAgent stands in for the upstream connectivity agent: it just
// prints whatever the bearer pushes to it and remembers the latest of
// each, for the status command.
type consoleAgent struct {
	name string

	LinkProperties bearer.LinkProperties
	Capabilities   bearer.CapabilitySet
	NetworkInfo    bearer.DetailedState
	Score          int
}

func newConsoleAgent(name string) *consoleAgent {
	return &consoleAgent{name: name}
}

func (a *consoleAgent) SendLinkProperties(lp bearer.LinkProperties) {
	a.LinkProperties = lp
	printf("[%s] link properties: iface=%s addrs=%v dns=%v mtu=%d\n",
		a.name, lp.InterfaceName, lp.Addresses, lp.DNSServers, lp.MTU)
}

func (a *consoleAgent) SendNetworkCapabilities(cs bearer.CapabilitySet) {
	a.Capabilities = cs
	printf("[%s] capabilities: %s\n", a.name, cs.String())
}

func (a *consoleAgent) SendNetworkInfo(state bearer.DetailedState) {
	a.NetworkInfo = state
	printf("[%s] network info: %s\n", a.name, state)
}

func (a *consoleAgent) SendNetworkScore(score int) {
	a.Score = score
	printf("[%s] score: %d\n", a.name, score)
}

func (a *consoleAgent) OnSocketKeepaliveEvent(slot int, status raildriver.SocketKeepaliveStatus) {
	printf("[%s] keepalive slot %d: %d\n", a.name, slot, status)
}

var _ raildriver.Agent = (*consoleAgent)(nil)
