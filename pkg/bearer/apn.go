package bearer

import "strings"

// Type is a bitmask of APN types an ApnProfile may serve
type Type uint32

const (
	TypeDefault Type = 1 << iota
	TypeMMS
	TypeSUPL
	TypeDUN
	TypeFOTA
	TypeIMS
	TypeCBS
	TypeIA
	TypeEmergency
	TypeMCX

	// TypeAll is every concrete type except TypeEmergency ORed together; a
	// profile carrying it is compatible with any requested APN type.
	TypeAll = TypeDefault | TypeMMS | TypeSUPL | TypeDUN | TypeFOTA | TypeIMS | TypeCBS | TypeIA | TypeMCX
)

var typeNames = []struct {
	bit  Type
	name string
}{
	{TypeDefault, "DEFAULT"},
	{TypeMMS, "MMS"},
	{TypeSUPL, "SUPL"},
	{TypeDUN, "DUN"},
	{TypeFOTA, "FOTA"},
	{TypeIMS, "IMS"},
	{TypeCBS, "CBS"},
	{TypeIA, "IA"},
	{TypeEmergency, "EMERGENCY"},
	{TypeMCX, "MCX"},
}

// Has reports whether t includes every bit set in other.
func (t Type) Has(other Type) bool {
	return t&other == other
}

// Intersects reports whether t and other share any bit.
func (t Type) Intersects(other Type) bool {
	return t&other != 0
}

func (t Type) String() string {
	if t == 0 {
		return "NONE"
	}
	var names []string
	for _, tn := range typeNames {
		if t.Intersects(tn.bit) {
			names = append(names, tn.name)
		}
	}
	return strings.Join(names, "|")
}

// Protocol is the requested PDP protocol for an APN profile.
type Protocol int

const (
	ProtocolIPv4 Protocol = iota
	ProtocolIPv6
	ProtocolIPv4v6
)

func (p Protocol) String() string {
	switch p {
	case ProtocolIPv4:
		return "IP"
	case ProtocolIPv6:
		return "IPV6"
	case ProtocolIPv4v6:
		return "IPV4V6"
	default:
		return "UNKNOWN"
	}
}

// AuthType is the APN authentication method.
type AuthType int

const (
	AuthNone AuthType = iota
	AuthPAP
	AuthCHAP
	AuthPAPOrCHAP
)

// Profile is the APN configuration a bearer serves: entry name, APN name,
// proxy, ports, type bitmask, MTU, protocol, authentication.
type Profile struct {
	EntryName string
	APNName   string
	Proxy     string
	Port      int
	MMSProxy  string
	MMSPort   int

	TypeBitmask Type
	MTU         int
	Protocol    Protocol
	AuthType    AuthType
	User        string
	Password    string

	// Metered reports whether this APN counts against a data plan. Derived
	// from carrier config in a real implementation; stored directly here
	// since this core only consumes the predicate.
	Metered bool

	// RestrictedOverride is the carrier-config-driven policy a fresh
	// Activating entry copies onto the bearer's Overrides: true for APNs
	// that must never expose NOT_RESTRICTED (e.g. a carrier-gated IMS
	// APN), regardless of their type bitmask.
	RestrictedOverride bool
}

// CompatibleWith reports whether the profile can serve an additional
// consumer requesting the given APN type: the requested type must
// intersect the profile's bitmask.
func (p *Profile) CompatibleWith(requested Type) bool {
	if p == nil {
		return true
	}
	return p.TypeBitmask.Intersects(requested) || p.TypeBitmask.Has(TypeAll)
}

// MMSProxyIsIPLiteral reports whether the profile's MMS proxy is an IP
// literal rather than a hostname. Used by the link-properties builder's
// DNS-ok exception for MMS APNs.
func (p *Profile) MMSProxyIsIPLiteral() bool {
	if p == nil || p.MMSProxy == "" {
		return false
	}
	return isIPLiteral(p.MMSProxy)
}
