// Package linkprops builds a bearer.LinkProperties from a radio data
// service's DataCallResponse, the serving APN profile, and a system DNS
// fallback pair.
package linkprops

import (
	"net/netip"

	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/wire"
)

// anyLocal matches both the IPv4 and IPv6 unspecified addresses, which the
// modem may legitimately include as a DNS entry meaning "none configured".
func isAnyLocal(s string) bool {
	addr, err := netip.ParseAddr(stripPrefix(s))
	if err != nil {
		return false
	}
	return addr.IsUnspecified()
}

// stripPrefix removes a trailing "/N" CIDR prefix length, if present, so
// address parsing sees a bare IP.
func stripPrefix(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return s[:i]
		}
	}
	return s
}

// Inputs bundles everything the builder needs beyond the DataCallResponse
// itself.
type Inputs struct {
	Profile *bearer.Profile

	// Previous carries the bearer's link properties from before this
	// build, used only to preserve HTTPProxy.
	Previous bearer.LinkProperties

	// SystemDNSFallback is the platform's fallback DNS pair, used only
	// when the modem supplied none.
	SystemDNSFallback [2]string

	// PlatformDefaultMTU is used when neither the response nor the APN
	// profile specify an MTU.
	PlatformDefaultMTU int

	// TCPBufferSizes is precomputed by pkg/tcpbuffers and copied through
	// verbatim; the builder itself has no opinion on radio technology.
	TCPBufferSizes string
}

// Build translates resp + in into validated link properties. On any error
// the returned LinkProperties is the zero value.
func Build(resp *wire.DataCallResponse, in Inputs) (bearer.LinkProperties, faults.Failure) {
	if resp.Cause != 0 {
		return bearer.LinkProperties{}, faults.Failure{
			Cause:    faults.CauseDataServiceSpecific,
			Specific: resp.Cause,
		}
	}

	if resp.InterfaceName == "" {
		return bearer.LinkProperties{}, faults.Failure{Cause: faults.CauseUnacceptableNetworkParameter}
	}

	var addrs []string
	for _, a := range resp.Addresses {
		if !isAnyLocal(a) {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return bearer.LinkProperties{}, faults.Failure{Cause: faults.CauseUnacceptableNetworkParameter}
	}

	dns, ok := resolveDNS(resp.DNS, in)
	if !ok {
		return bearer.LinkProperties{}, faults.Failure{Cause: faults.CauseUnacceptableNetworkParameter}
	}

	var routes []bearer.Route
	for _, gw := range resp.Gateways {
		if gw == "" || isAnyLocal(gw) {
			routes = append(routes, bearer.Route{Destination: "0.0.0.0/0"})
			continue
		}
		routes = append(routes, bearer.Route{Destination: "0.0.0.0/0", Gateway: gw})
	}

	mtu := resp.MTU
	if mtu == 0 && in.Profile != nil && in.Profile.MTU != 0 {
		mtu = in.Profile.MTU
	}
	if mtu == 0 && in.PlatformDefaultMTU != 0 {
		mtu = in.PlatformDefaultMTU
	}

	lp := bearer.LinkProperties{
		InterfaceName:  resp.InterfaceName,
		Addresses:      addrs,
		DNSServers:     dns,
		Routes:         routes,
		PCSCFAddresses: append([]string(nil), resp.PCSCF...),
		MTU:            mtu,
		TCPBufferSizes: in.TCPBufferSizes,
		HTTPProxy:      in.Previous.HTTPProxy,
	}
	return lp, faults.None
}

// resolveDNS prefers the modem's own addresses (excluding any-local);
// otherwise falls back to the system pair if dnsOK; otherwise fails.
func resolveDNS(modemDNS []string, in Inputs) ([]string, bool) {
	var dns []string
	for _, d := range modemDNS {
		if !isAnyLocal(d) {
			dns = append(dns, d)
		}
	}
	if len(dns) > 0 {
		return dns, true
	}
	if !dnsOK(in.SystemDNSFallback, in.Profile) {
		return nil, false
	}
	var fallback []string
	for _, f := range in.SystemDNSFallback {
		if f != "" {
			fallback = append(fallback, f)
		}
	}
	if len(fallback) == 0 {
		return nil, false
	}
	return fallback, true
}

// dnsOK implements a race-avoidance exception: both fallback addresses
// being "0.0.0.0" is normally unusable, unless the APN is MMS and its MMS
// proxy is an IP literal (a known race between DNS propagation and the
// MMS APN coming up).
func dnsOK(fallback [2]string, profile *bearer.Profile) bool {
	bothZero := fallback[0] == "0.0.0.0" && fallback[1] == "0.0.0.0"
	if !bothZero {
		return true
	}
	if profile == nil {
		return false
	}
	return profile.TypeBitmask.Intersects(bearer.TypeMMS) && profile.MMSProxyIsIPLiteral()
}
