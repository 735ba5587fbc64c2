// Package tcpbuffers implements the fixed TCP receive/send buffer table
// keyed by radio technology, with a 5G-over-LTE override and a carrier
// config string override.
package tcpbuffers

import (
	"fmt"
	"strconv"
	"strings"
)

// defaults is the built-in table: "rmin,rdef,rmax,wmin,wdef,wmax".
var defaults = map[string]string{
	"GPRS":   "4092,8760,48000,4096,8760,48000",
	"EDGE":   "4093,26280,70000,4096,16384,130072",
	"UMTS":   "58254,349525,1048576,58254,349525,1048576",
	"1xRTT":  "16384,32768,131072,4096,16384,102400",
	"evdo":   "4094,87380,262144,4096,16384,262144",
	"eHRPD":  "131072,262144,1048576,4096,16384,524288",
	"HSDPA":  "61167,367002,1101005,8738,52429,262114",
	"HSPA":   "40778,244668,734003,16777,100663,301990",
	"HSPAP":  "122334,734003,2202010,32040,192239,576717",
	"LTE":    "524288,1048576,2097152,262144,524288,1048576",
	"LTE-CA": "610000,2097152,4194304,2097152,4194304,8388608",
	"NR":     "2097152,6291456,12582912,2097152,6291456,12582912",
}

// evdoAliases collapses EVDO variants onto the single "evdo" table entry.
var evdoAliases = map[string]bool{
	"EVDO_0": true, "EVDO_A": true, "EVDO_B": true,
}

// normalize maps a reported radio technology name onto the table's key
// space, collapsing EVDO variants.
func normalize(rat string) string {
	if evdoAliases[rat] {
		return "evdo"
	}
	return rat
}

// fallback is used when rat is absent from the table, keeping the classic
// 14-packet-window values.
const fallback = "14,14,14,14,14,14"

// Overrides is a parsed carrier-config override table, keyed by radio
// technology with "r,r,r,w,w,w" values.
type Overrides map[string]string

// ParseOverride parses one "ratname:r,r,r,w,w,w" entry. An error is
// returned for a malformed entry; malformed entries should be skipped by
// the caller rather than aborting the whole table.
func ParseOverride(entry string) (rat string, values string, err error) {
	idx := strings.IndexByte(entry, ':')
	if idx < 0 {
		return "", "", fmt.Errorf("tcpbuffers: malformed override %q: missing ':'", entry)
	}
	rat, values = entry[:idx], entry[idx+1:]
	parts := strings.Split(values, ",")
	if len(parts) != 6 {
		return "", "", fmt.Errorf("tcpbuffers: malformed override %q: want 6 comma-separated values, got %d", entry, len(parts))
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(strings.TrimSpace(p)); err != nil {
			return "", "", fmt.Errorf("tcpbuffers: malformed override %q: %w", entry, err)
		}
	}
	return rat, values, nil
}

// ParseOverrides parses a carrier-config string array into an Overrides
// table, skipping (and not returning) malformed entries.
func ParseOverrides(entries []string) Overrides {
	out := make(Overrides)
	for _, e := range entries {
		rat, values, err := ParseOverride(e)
		if err != nil {
			continue
		}
		out[rat] = values
	}
	return out
}

// Lookup does a table lookup by radio technology, with the
// LTE/LTE-CA-over-NR-NSA override applied before the carrier-config
// override, which always wins if present for the resolved rat name.
func Lookup(rat string, nrConnected, carrierAggregation bool, overrides Overrides) string {
	resolved := normalize(rat)

	switch resolved {
	case "LTE":
		if nrConnected {
			resolved = "NR"
		}
	case "LTE-CA":
		if nrConnected {
			resolved = "NR"
		} else if !carrierAggregation {
			resolved = "LTE"
		}
	}

	if v, ok := overrides[resolved]; ok {
		return v
	}
	if v, ok := defaults[resolved]; ok {
		return v
	}
	return fallback
}
