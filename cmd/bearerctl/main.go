// Command bearerctl is an interactive shell driving a live
// databearer state machine set against a simulated radio driver,
// useful for exercising connect/disconnect/handover/radio-loss
// sequences without real hardware.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/pdpctl/databearer/pkg/bearer"
	"github.com/pdpctl/databearer/pkg/config"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load("default")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load carrier config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := newManager(cfg, log)
	go mgr.run(ctx)
	defer mgr.close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bearerctl> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	printHelp()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			fmt.Println("Exiting...")
			return
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			printHelp()

		case "add":
			cmdAdd(mgr, args)

		case "connect", "c":
			cmdConnect(mgr, args)

		case "disconnect", "d":
			cmdDisconnect(mgr, args)

		case "handover", "ho":
			cmdHandover(mgr, args)

		case "radio-off":
			mgr.radioOff()

		case "status", "s":
			mgr.status()

		case "fail-next":
			cmdFailNext(mgr, args)

		case "quit", "exit", "q":
			fmt.Println("Exiting...")
			return

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Println(`
bearerctl commands:
  add <wwan|wlan>                    - create an idle bearer on a transport
  connect <id|new> <wwan|wlan> <apn-ctx> <type>
                                      - attach a consumer (type: default, mms, ims, ...)
  disconnect <id> [apn-ctx]          - tear down one or all consumers on a bearer
  handover <source-id> <apn-ctx> <type>
                                      - bring up a bearer on the opposite transport as a handover target
  radio-off                          - simulate radio loss on every bearer
  status                             - show every bearer's state
  fail-next <cause> [retry-ms]       - script the next SETUP_DATA_CALL to fail
  help                               - show this help
  quit                               - exit

Types: default, mms, supl, dun, fota, ims, cbs, ia, emergency, mcx`)
}

func parseTransport(s string) (bearer.Transport, bool) {
	switch strings.ToLower(s) {
	case "wwan":
		return bearer.TransportWWAN, true
	case "wlan":
		return bearer.TransportWLAN, true
	default:
		return 0, false
	}
}

func parseType(s string) (bearer.Type, bool) {
	switch strings.ToLower(s) {
	case "default":
		return bearer.TypeDefault, true
	case "mms":
		return bearer.TypeMMS, true
	case "supl":
		return bearer.TypeSUPL, true
	case "dun":
		return bearer.TypeDUN, true
	case "fota":
		return bearer.TypeFOTA, true
	case "ims":
		return bearer.TypeIMS, true
	case "cbs":
		return bearer.TypeCBS, true
	case "ia":
		return bearer.TypeIA, true
	case "emergency":
		return bearer.TypeEmergency, true
	case "mcx":
		return bearer.TypeMCX, true
	default:
		return 0, false
	}
}

func cmdAdd(mgr *manager, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: add <wwan|wlan>")
		return
	}
	transport, ok := parseTransport(args[0])
	if !ok {
		fmt.Printf("Unknown transport: %s\n", args[0])
		return
	}
	mgr.addBearer(transport)
}

func cmdConnect(mgr *manager, args []string) {
	if len(args) < 4 {
		fmt.Println("Usage: connect <id|new> <wwan|wlan> <apn-ctx> <type>")
		return
	}
	transport, ok := parseTransport(args[1])
	if !ok {
		fmt.Printf("Unknown transport: %s\n", args[1])
		return
	}
	apnType, ok := parseType(args[3])
	if !ok {
		fmt.Printf("Unknown APN type: %s\n", args[3])
		return
	}

	id := -1
	if args[0] != "new" {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("Invalid bearer id: %s\n", args[0])
			return
		}
		id = n
	}

	mgr.connect(id, transport, args[2], apnType, bearer.RequestNormal)
}

func cmdDisconnect(mgr *manager, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: disconnect <id> [apn-ctx]")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid bearer id: %s\n", args[0])
		return
	}
	apnContext := ""
	if len(args) >= 2 {
		apnContext = args[1]
	}
	mgr.disconnect(id, apnContext)
}

func cmdHandover(mgr *manager, args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: handover <source-id> <apn-ctx> <type>")
		return
	}
	sourceID, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid bearer id: %s\n", args[0])
		return
	}
	apnType, ok := parseType(args[2])
	if !ok {
		fmt.Printf("Unknown APN type: %s\n", args[2])
		return
	}
	mgr.handover(sourceID, args[1], apnType)
}

func cmdFailNext(mgr *manager, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: fail-next <cause-code> [retry-ms]")
		fmt.Println("  cause-code is the raw wire SetupResult value, e.g. 1 for ERROR_RADIO_NOT_AVAILABLE")
		return
	}
	code, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid cause code: %s\n", args[0])
		return
	}
	retryMs := int64(0)
	if len(args) >= 2 {
		v, err := strconv.ParseInt(args[1], 10, 64)
		if err == nil {
			retryMs = v
		}
	}
	mgr.modem.ScriptFailure(wireSetupResultFromCode(code), retryMs)
	fmt.Printf("next setupDataCall on any bearer will fail with code %d\n", code)
}
