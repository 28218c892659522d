package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// Protocol: Line-delimited JSON
//   - Client sends: {"type": "action_name", "data": {...}}
//   - Server responds: {"status": "ok"} or {"status": "error", "error": "msg"}
//   - "request_state" responses carry the daemon snapshot in "state".
// ============================================================================

// IPCResponse represents the response sent back to IPC clients
type IPCResponse struct {
	Status string         `json:"status"`          // "ok" or "error"
	Error  string         `json:"error,omitempty"` // error message if status == "error"
	State  *StateSnapshot `json:"state,omitempty"`
}

const ipcSnapshotTimeout = time.Second

// runIPCServer starts the Unix domain socket server.
// It runs until ctx is canceled, at which point it closes the listener and exits.
func runIPCServer(ctx context.Context, socketPath string, actions chan<- Action, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0660); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				logger.Debug("IPC listener closed")
				return nil
			}

			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(ctx, conn, actions, logger)
	}
}

// handleIPCConnection handles a single IPC connection
func handleIPCConnection(ctx context.Context, conn net.Conn, actions chan<- Action, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	reply := func(resp IPCResponse) {
		if err := encoder.Encode(resp); err != nil {
			logger.Error("IPC failed to send response", "error", err)
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		logger.Debug("IPC received", "line", line)

		act, err := UnmarshalAction([]byte(line))
		if err != nil {
			reply(IPCResponse{Status: "error", Error: fmt.Sprintf("parse action: %v", err)})
			continue
		}

		if _, ok := act.(RequestStateSnapshot); ok {
			snap, err := requestSnapshot(ctx, actions, ipcSnapshotTimeout)
			if err != nil {
				reply(IPCResponse{Status: "error", Error: err.Error()})
				continue
			}
			reply(IPCResponse{Status: "ok", State: &snap})
			continue
		}

		select {
		case actions <- act:
			reply(IPCResponse{Status: "ok"})
		default:
			reply(IPCResponse{Status: "error", Error: "action queue full"})
		}
	}

	logger.Debug("IPC connection closed")
}

// requestSnapshot round-trips a RequestStateSnapshot through the daemon loop.
func requestSnapshot(ctx context.Context, actions chan<- Action, timeout time.Duration) (StateSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply := make(chan StateSnapshot, 1)
	select {
	case actions <- RequestStateSnapshot{Reply: reply}:
	case <-ctx.Done():
		return StateSnapshot{}, fmt.Errorf("request state: %w", ctx.Err())
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return StateSnapshot{}, fmt.Errorf("wait for state: %w", ctx.Err())
	}
}

// SendIPCAction sends an action to the daemon via IPC and returns the response
func SendIPCAction(socketPath string, act Action) (IPCResponse, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := MarshalAction(act)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("marshal action: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", strings.TrimSpace(string(data))); err != nil {
		return IPCResponse{}, fmt.Errorf("send action: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return IPCResponse{}, fmt.Errorf("decode response: %w", err)
	}

	if resp.Status != "ok" {
		return resp, fmt.Errorf("ipc error: %s", resp.Error)
	}

	return resp, nil
}
