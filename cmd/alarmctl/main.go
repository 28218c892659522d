package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// alarmctl - Command-line client for the alarmclock daemon
// ============================================================================
// One-shot commands go over the daemon's Unix socket as line-delimited JSON.
// "watch" follows display frames on the websocket; "console" is an
// interactive prompt over the same socket.
//
// Usage:
//   alarmctl toggle-alarm
//   alarmctl set-alarm 6:30
//   alarmctl state
//   alarmctl watch
//   alarmctl console
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/alarmclock.sock)
//   -ws URL         Websocket URL (default: ws://127.0.0.1:3101/ws)
// ============================================================================

const (
	defaultSocketPath = "/tmp/alarmclock.sock"
	defaultWSURL      = "ws://127.0.0.1:3101/ws"
	dialTimeout       = 3 * time.Second
)

// Action payloads (duplicated from the daemon for a standalone binary)
type minutesPayload struct {
	Minutes int `json:"minutes"`
}

type turnPayload struct {
	Detents int `json:"detents"`
}

type pressPayload struct {
	HoldMS int `json:"hold_ms"`
}

// ActionEnvelope wraps actions for JSON
type ActionEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response. State is kept raw so the
// client prints whatever the daemon reports.
type IPCResponse struct {
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	State  json.RawMessage `json:"state,omitempty"`
}

type options struct {
	socketPath string
	wsURL      string
}

func main() {
	opts, args, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "help", "-h", "--help":
		printUsage()
		return
	case "watch":
		if err := runWatch(opts.wsURL, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	case "console":
		if err := runConsole(opts.socketPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	env, err := parseCommand(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		printUsage()
		os.Exit(1)
	}

	resp, err := sendEnvelope(opts.socketPath, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	printResponse(os.Stdout, resp)
}

// parseOptions strips the leading -socket/-ws options off args.
func parseOptions(args []string) (options, []string, error) {
	opts := options{socketPath: defaultSocketPath, wsURL: defaultWSURL}
	for len(args) > 0 {
		var dst *string
		switch args[0] {
		case "-socket", "--socket":
			dst = &opts.socketPath
		case "-ws", "--ws":
			dst = &opts.wsURL
		default:
			return opts, args, nil
		}
		if len(args) < 2 {
			return opts, nil, fmt.Errorf("%s requires an argument", args[0])
		}
		*dst = args[1]
		args = args[2:]
	}
	return opts, args, nil
}

// parseCommand maps one command line onto an action envelope.
func parseCommand(args []string) (ActionEnvelope, error) {
	if len(args) == 0 {
		return ActionEnvelope{}, errors.New("missing command")
	}

	need := func(what string) error {
		if len(args) < 2 {
			return fmt.Errorf("%s requires %s", args[0], what)
		}
		return nil
	}

	switch args[0] {
	case "toggle-alarm", "toggle":
		return ActionEnvelope{Type: "toggle_alarm"}, nil

	case "set-alarm", "alarm":
		if err := need("a time (HH:MM)"); err != nil {
			return ActionEnvelope{}, err
		}
		m, err := parseClock(args[1])
		if err != nil {
			return ActionEnvelope{}, err
		}
		return withData("set_alarm", minutesPayload{Minutes: m})

	case "set-time", "time":
		if err := need("a time (HH:MM)"); err != nil {
			return ActionEnvelope{}, err
		}
		m, err := parseClock(args[1])
		if err != nil {
			return ActionEnvelope{}, err
		}
		return withData("set_time", minutesPayload{Minutes: m})

	case "sync-time", "sync":
		return ActionEnvelope{Type: "sync_time"}, nil

	case "reset-encoder", "reset":
		return ActionEnvelope{Type: "reset_encoder"}, nil

	case "turn":
		if err := need("a detent count"); err != nil {
			return ActionEnvelope{}, err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return ActionEnvelope{}, fmt.Errorf("invalid detent count: %w", err)
		}
		return withData("sim_turn", turnPayload{Detents: n})

	case "press":
		if err := need("a hold time in ms"); err != nil {
			return ActionEnvelope{}, err
		}
		ms, err := strconv.Atoi(args[1])
		if err != nil || ms <= 0 {
			return ActionEnvelope{}, fmt.Errorf("invalid hold time: %q", args[1])
		}
		return withData("sim_press", pressPayload{HoldMS: ms})

	case "state", "status":
		return ActionEnvelope{Type: "request_state"}, nil

	default:
		return ActionEnvelope{}, fmt.Errorf("unknown command: %s", args[0])
	}
}

func withData(typ string, payload any) (ActionEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return ActionEnvelope{}, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return ActionEnvelope{Type: typ, Data: data}, nil
}

// parseClock accepts H:MM or HH:MM and returns minutes past midnight.
func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(m) != 2 || h == "" || len(h) > 2 {
		return 0, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}

func sendEnvelope(socketPath string, env ActionEnvelope) (IPCResponse, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	return roundTrip(conn, bufio.NewReader(conn), env)
}

// roundTrip writes one envelope and reads one response line.
func roundTrip(w io.Writer, r *bufio.Reader, env ActionEnvelope) (IPCResponse, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("marshal action: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return IPCResponse{}, fmt.Errorf("send action: %w", err)
	}

	line, err := r.ReadBytes('\n')
	if err != nil {
		return IPCResponse{}, fmt.Errorf("read response: %w", err)
	}
	var resp IPCResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return IPCResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status == "error" {
		return resp, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return resp, nil
}

func printResponse(w io.Writer, resp IPCResponse) {
	if len(resp.State) == 0 {
		fmt.Fprintln(w, "ok")
		return
	}
	var v any
	if err := json.Unmarshal(resp.State, &v); err != nil {
		fmt.Fprintf(w, "%s\n", resp.State)
		return
	}
	pretty, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintf(w, "%s\n", pretty)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `alarmctl - Control the alarmclock daemon

Usage:
  alarmctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/alarmclock.sock)
  -ws URL         Websocket URL for watch (default: ws://127.0.0.1:3101/ws)

Commands:
  toggle-alarm, toggle      Toggle the alarm on or off
  set-alarm, alarm <HH:MM>  Set and enable the alarm
  set-time, time <HH:MM>    Set the clock by hand
  sync-time, sync           Sync the clock from NTP now
  reset-encoder, reset      Move the knob position to 0
  turn <N>                  Turn the simulated knob N detents (sim backend)
  press <MS>                Hold the simulated switch for MS ms (sim backend)
  state, status             Print the daemon state as JSON
  watch                     Follow display frames over the websocket
  console                   Interactive prompt
  help, -h, --help          Show this help message

Examples:
  alarmctl set-alarm 6:45
  alarmctl -socket /run/alarmclock.sock state
  alarmctl turn -3
`)
}
