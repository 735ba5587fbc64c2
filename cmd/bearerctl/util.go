package main

import (
	"fmt"

	"github.com/pdpctl/databearer/pkg/wire"
)

// printf writes operator-facing console output. A dedicated function
// (rather than bare fmt.Printf calls scattered around) gives the fakes
// in modem.go/tracker.go/agent.go one place to route through if the
// shell ever grows a quieter output mode.
func printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// wireSetupResultFromCode maps the raw numeric code the operator types
// at the fail-next prompt onto the wire enum; any unrecognized value
// falls back to SetupResultErrorInvalidArg.
func wireSetupResultFromCode(code int) wire.SetupResult {
	switch wire.SetupResult(code) {
	case wire.SetupResultSuccess, wire.SetupResultErrorRadioNotAvailable,
		wire.SetupResultErrorInvalidArg, wire.SetupResultErrorDataServiceSpecific:
		return wire.SetupResult(code)
	default:
		return wire.SetupResultErrorInvalidArg
	}
}
