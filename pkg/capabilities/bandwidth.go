package capabilities

import "github.com/pdpctl/databearer/pkg/bearer"

// bandwidthTable is the built-in per-radio-technology (down, up) kbps
// estimate, the same shape as the TCP buffer table but carrying bandwidth
// instead of window sizes.
var bandwidthTable = map[string]bearer.Bandwidth{
	"GPRS":   {DownKbps: 80, UpKbps: 20},
	"EDGE":   {DownKbps: 236, UpKbps: 118},
	"UMTS":   {DownKbps: 384, UpKbps: 384},
	"HSDPA":  {DownKbps: 4100, UpKbps: 384},
	"HSPA":   {DownKbps: 4100, UpKbps: 2000},
	"HSPAP":  {DownKbps: 13000, UpKbps: 5850},
	"LTE":    {DownKbps: 51000, UpKbps: 51000},
	"LTE-CA": {DownKbps: 102000, UpKbps: 51000},
	"NR":     {DownKbps: 145000, UpKbps: 60000},
}

// nrMmWaveBandwidth overrides the NR entry when the connected cell is
// mmWave, which carries far higher throughput than sub-6.
var nrMmWaveBandwidth = bearer.Bandwidth{DownKbps: 1300000, UpKbps: 100000}

// fallbackBandwidth is used for a radio technology absent from the table.
var fallbackBandwidth = bearer.Bandwidth{DownKbps: 14, UpKbps: 14}

// lookupBandwidth resolves the bandwidth estimate for a radio technology,
// applying the NR mmWave override when applicable.
func lookupBandwidth(radioTechnology string, nrConnected, nrIsMmWave bool) bearer.Bandwidth {
	resolved := radioTechnology
	if nrConnected {
		resolved = "NR"
	}
	if resolved == "NR" && nrIsMmWave {
		return nrMmWaveBandwidth
	}
	if bw, ok := bandwidthTable[resolved]; ok {
		return bw
	}
	return fallbackBandwidth
}
