package bearer

// LinkProperties are the address/DNS/route/MTU/proxy/TCP-buffer facts
// exposed to the operating system's connectivity layer. The zero value is
// "no properties", which is what an Inactive bearer carries.
type LinkProperties struct {
	InterfaceName string
	Addresses     []string
	DNSServers    []string
	Routes        []Route
	PCSCFAddresses []string
	MTU           int
	TCPBufferSizes string
	HTTPProxy     string
}

// Route is a single route entry. A zero Gateway means point-to-point.
type Route struct {
	Destination string
	Gateway     string
}

// IsEmpty reports whether no properties have been set, the value a failed
// build must produce.
func (lp LinkProperties) IsEmpty() bool {
	return lp.InterfaceName == "" && len(lp.Addresses) == 0
}
