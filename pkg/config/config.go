// Package config loads the carrier-config YAML bundle embedded at build
// time: APN profiles, TCP buffer overrides, platform defaults, and the
// PDP-reject settings-retention policy.
package config

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/faults"
	"github.com/pdpctl/databearer/pkg/tcpbuffers"
)

//go:embed carrier/*.yaml
var carrierFS embed.FS

// apnProfileConfig is the YAML shape of one apn_profiles entry.
type apnProfileConfig struct {
	EntryName string   `yaml:"entry_name"`
	APNName   string   `yaml:"apn_name"`
	Proxy     string   `yaml:"proxy"`
	Port      int      `yaml:"port"`
	MMSProxy  string   `yaml:"mms_proxy"`
	MMSPort   int      `yaml:"mms_port"`
	Types     []string `yaml:"types"`
	MTU       int      `yaml:"mtu"`
	Protocol  string   `yaml:"protocol"`
	AuthType  string   `yaml:"auth_type"`
	User      string   `yaml:"user"`
	Password  string   `yaml:"password"`
	Metered   bool     `yaml:"metered"`

	// RestrictedOverride marks an APN that must never expose
	// NOT_RESTRICTED regardless of its type bitmask (e.g. a carrier-gated
	// IMS APN); copied onto the bearer's Overrides by Activating's Enter.
	RestrictedOverride bool `yaml:"restricted_override"`
}

// manifest is the YAML shape of one carrier config file.
type manifest struct {
	Name                           string             `yaml:"name"`
	PlatformDefaultMTU             int                `yaml:"platform_default_mtu"`
	APNProfiles                    []apnProfileConfig `yaml:"apn_profiles"`
	TCPBufferOverrides             []string           `yaml:"tcp_buffer_overrides"`
	RetainSettingsOnSpecificCauses []int32            `yaml:"retain_settings_on_specific_causes"`

	// ModemIsBandwidthSource gates BW_REFRESH_RESPONSE/LINK_CAPACITY_CHANGED:
	// only a carrier config that designates the modem as the authoritative
	// bandwidth source lets a live sample override the static table.
	ModemIsBandwidthSource bool `yaml:"modem_is_bandwidth_source"`
}

// Config is the parsed, ready-to-use form of a carrier config bundle.
type Config struct {
	Name                   string
	PlatformDefaultMTU     int
	Profiles               map[string]*bearer.Profile
	TCPBufferOverrides     tcpbuffers.Overrides
	ModemIsBandwidthSource bool

	retainSpecificCauses map[int32]bool
}

// Load reads the named carrier config (e.g. "default") from the embedded
// bundle and parses it.
func Load(name string) (*Config, error) {
	data, err := carrierFS.ReadFile("carrier/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("config: carrier bundle %q not found: %w", name, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("config: parsing carrier bundle %q: %w", name, err)
	}

	cfg := &Config{
		Name:                   m.Name,
		PlatformDefaultMTU:     m.PlatformDefaultMTU,
		Profiles:               make(map[string]*bearer.Profile, len(m.APNProfiles)),
		TCPBufferOverrides:     tcpbuffers.ParseOverrides(m.TCPBufferOverrides),
		ModemIsBandwidthSource: m.ModemIsBandwidthSource,
		retainSpecificCauses:   make(map[int32]bool, len(m.RetainSettingsOnSpecificCauses)),
	}
	for _, c := range m.RetainSettingsOnSpecificCauses {
		cfg.retainSpecificCauses[c] = true
	}
	for _, p := range m.APNProfiles {
		profile, err := toProfile(p)
		if err != nil {
			return nil, fmt.Errorf("config: apn profile %q: %w", p.EntryName, err)
		}
		cfg.Profiles[p.EntryName] = profile
	}
	return cfg, nil
}

func toProfile(c apnProfileConfig) (*bearer.Profile, error) {
	bitmask, err := parseTypes(c.Types)
	if err != nil {
		return nil, err
	}
	protocol, err := parseProtocol(c.Protocol)
	if err != nil {
		return nil, err
	}
	auth, err := parseAuthType(c.AuthType)
	if err != nil {
		return nil, err
	}
	return &bearer.Profile{
		EntryName:          c.EntryName,
		APNName:            c.APNName,
		Proxy:              c.Proxy,
		Port:               c.Port,
		MMSProxy:           c.MMSProxy,
		MMSPort:            c.MMSPort,
		TypeBitmask:        bitmask,
		MTU:                c.MTU,
		Protocol:           protocol,
		AuthType:           auth,
		User:               c.User,
		Password:           c.Password,
		Metered:            c.Metered,
		RestrictedOverride: c.RestrictedOverride,
	}, nil
}

var typeNames = map[string]bearer.Type{
	"default":   bearer.TypeDefault,
	"mms":       bearer.TypeMMS,
	"supl":      bearer.TypeSUPL,
	"dun":       bearer.TypeDUN,
	"fota":      bearer.TypeFOTA,
	"ims":       bearer.TypeIMS,
	"cbs":       bearer.TypeCBS,
	"ia":        bearer.TypeIA,
	"emergency": bearer.TypeEmergency,
	"mcx":       bearer.TypeMCX,
	"all":       bearer.TypeAll,
}

func parseTypes(names []string) (bearer.Type, error) {
	var bitmask bearer.Type
	for _, n := range names {
		t, ok := typeNames[strings.ToLower(n)]
		if !ok {
			return 0, fmt.Errorf("unknown apn type %q", n)
		}
		bitmask |= t
	}
	return bitmask, nil
}

func parseProtocol(s string) (bearer.Protocol, error) {
	switch strings.ToLower(s) {
	case "", "ip", "ipv4":
		return bearer.ProtocolIPv4, nil
	case "ipv6":
		return bearer.ProtocolIPv6, nil
	case "ipv4v6":
		return bearer.ProtocolIPv4v6, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q", s)
	}
}

func parseAuthType(s string) (bearer.AuthType, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return bearer.AuthNone, nil
	case "pap":
		return bearer.AuthPAP, nil
	case "chap":
		return bearer.AuthCHAP, nil
	case "pap_or_chap":
		return bearer.AuthPAPOrCHAP, nil
	default:
		return 0, fmt.Errorf("unknown auth type %q", s)
	}
}

// RetainSettingsOnCause reports whether a bearer reset to Inactive after
// this failure should keep its profile and overrides rather than discard
// them for the next consumer to rebuild from scratch. Only
// CauseDataServiceSpecific failures carrying a configured transient
// sub-cause are retained; every other cause resets fully.
func (c *Config) RetainSettingsOnCause(f faults.Failure) bool {
	if f.Cause != faults.CauseDataServiceSpecific {
		return false
	}
	return c.retainSpecificCauses[f.Specific]
}

// ProfileFor returns a configured profile compatible with the requested
// APN type, or nil if none serves it. Profiles are held in a map, so when
// several are compatible which one is returned is not defined.
func (c *Config) ProfileFor(requested bearer.Type) *bearer.Profile {
	for _, p := range c.Profiles {
		if p.CompatibleWith(requested) {
			return p
		}
	}
	return nil
}
