package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

// runConsole keeps one IPC connection open and runs commands typed at the
// prompt until EOF or "exit".
func runConsole(socketPath string) error {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "alarmclock> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		HistoryFile:     historyPath(),
		AutoComplete:    consoleCompleter(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	printConsoleHelp(out)
	r := bufio.NewReader(conn)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "exit", "quit", "q":
			return nil
		case "help", "?":
			printConsoleHelp(out)
			continue
		}

		env, err := parseCommand(fields)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		resp, err := roundTrip(conn, r, env)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if resp.Status == "" {
				// transport failure; the connection is gone
				return err
			}
			continue
		}
		printResponse(out, resp)
	}
}

// historyPath is ~/.alarmctl_history, or no history when there is no home.
func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".alarmctl_history")
}

func consoleCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("toggle-alarm"),
		readline.PcItem("set-alarm"),
		readline.PcItem("set-time"),
		readline.PcItem("sync-time"),
		readline.PcItem("reset-encoder"),
		readline.PcItem("turn"),
		readline.PcItem("press"),
		readline.PcItem("state"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func printConsoleHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  toggle-alarm          set-alarm HH:MM       set-time HH:MM
  sync-time             reset-encoder         state
  turn N                press MS              exit
`)
}
