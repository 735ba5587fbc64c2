package bearer

import "net/netip"

// isIPLiteral reports whether s parses as a bare IP address (optionally with
// a port), as opposed to a hostname.
func isIPLiteral(s string) bool {
	if _, err := netip.ParseAddr(s); err == nil {
		return true
	}
	if addrPort, err := netip.ParseAddrPort(s); err == nil {
		return addrPort.IsValid()
	}
	return false
}
