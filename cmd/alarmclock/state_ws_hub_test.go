package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// NOTE: The hub tests construct Clients with a nil websocket.Conn and never
// take a path that writes to it; the hub guards conn.Close() against nil.

// newTestHub returns a hub with small buffers for deterministic tests.
func newTestHub(t *testing.T, sendBuf int, broadcastBuf int) *Hub {
	t.Helper()
	return NewHub(slog.Default(), HubConfig{
		SendBuf:      sendBuf,
		BroadcastBuf: broadcastBuf,
	})
}

func newTestClient(hub *Hub, name string, buf int) *Client {
	return &Client{
		hub:        hub,
		send:       make(chan []byte, buf),
		id:         name,
		remoteAddr: name,
		logger:     slog.Default(),
	}
}

func registerAndWait(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.register <- c
	waitUntil(t, 500*time.Millisecond, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		_, ok := hub.clients[c]
		return ok
	}, c.id+" not registered in time")
}

func TestHub_BroadcastDeliveredToAllClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 4, 8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	c1 := newTestClient(hub, "c1", 4)
	c2 := newTestClient(hub, "c2", 4)
	registerAndWait(t, hub, c1)
	registerAndWait(t, hub, c2)
	if hub.ClientCount() != 2 {
		t.Fatalf("ClientCount=%d, want 2", hub.ClientCount())
	}

	msg := []byte(`{"type":"display","data":{"time":" 7:00"}}`)

	// Write to the channel directly; BroadcastBytes may drop under scheduling.
	hub.broadcast <- msg

	for _, c := range []*Client{c1, c2} {
		select {
		case got := <-c.send:
			if string(got) != string(msg) {
				t.Fatalf("%s got %q, want %q", c.id, string(got), string(msg))
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timeout waiting for %s to receive broadcast", c.id)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for hub to stop")
	}

	// Shutdown closes every client queue.
	for _, c := range []*Client{c1, c2} {
		if _, ok := <-c.send; ok {
			t.Fatalf("%s send channel still open after shutdown", c.id)
		}
	}
}

func TestHub_SlowClientDisconnectedOnFullSendBuffer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 1, 8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	slow := newTestClient(hub, "slow", 1)
	fast := newTestClient(hub, "fast", 8)
	registerAndWait(t, hub, slow)
	registerAndWait(t, hub, fast)

	// Pre-fill slow client buffer to simulate it being stuck.
	slow.send <- []byte(`"already queued"`)

	msg := []byte(`{"type":"display","data":{"firing":true}}`)
	hub.broadcast <- msg

	select {
	case got := <-fast.send:
		if string(got) != string(msg) {
			t.Fatalf("fast client got %q, want %q", string(got), string(msg))
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for fast client to receive broadcast")
	}

	// Drain the pre-filled message, then expect the channel to be closed.
	select {
	case <-slow.send:
	default:
	}

	waitUntil(t, 750*time.Millisecond, func() bool {
		select {
		case _, ok := <-slow.send:
			return !ok
		default:
			return false
		}
	}, "expected slow send channel to be closed")

	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount=%d, want 1", hub.ClientCount())
	}
}

func TestRunBroadcaster_CoalescesBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 16, 16)
	go hub.Run(ctx)

	c := newTestClient(hub, "viewer", 16)
	registerAndWait(t, hub, c)

	src := make(chan DisplayFrame, 16)
	go RunBroadcaster(ctx, hub, src, slog.Default())

	// A burst: the first frame goes out at once, the last one after the window.
	for _, tm := range []string{" 7:00", " 7:01", " 7:02", " 7:03"} {
		src <- DisplayFrame{Time: tm}
	}

	readFrame := func() DisplayFrame {
		t.Helper()
		select {
		case raw := <-c.send:
			var env struct {
				Type string       `json:"type"`
				Data DisplayFrame `json:"data"`
			}
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("decode %s: %v", raw, err)
			}
			if env.Type != "display" {
				t.Fatalf("type=%q, want display", env.Type)
			}
			return env.Data
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for frame")
			return DisplayFrame{}
		}
	}

	if f := readFrame(); f.Time != " 7:00" {
		t.Fatalf("first frame %q, want \" 7:00\"", f.Time)
	}
	if f := readFrame(); f.Time != " 7:03" {
		t.Fatalf("coalesced frame %q, want \" 7:03\"", f.Time)
	}

	select {
	case raw := <-c.send:
		t.Fatalf("unexpected extra message %s", raw)
	case <-time.After(3 * wsDisplayCoalesceWindow):
	}
}

func TestStateServer_SendsStateInitThenFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actions := make(chan Action, 4)
	ws := NewStateServer(slog.Default(), actions, HubConfig{})
	go ws.Hub().Run(ctx)

	// Stand-in for the daemon loop: answer snapshot requests.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case act := <-actions:
				if req, ok := act.(RequestStateSnapshot); ok {
					req.Reply <- StateSnapshot{AlarmTime: " 6:00", ClockStatus: "standard"}
				}
			}
		}
	}()

	srv := httptest.NewServer(newHTTPMux(ws, "/ws", actions, slog.Default()))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var init struct {
		Type string        `json:"type"`
		Data StateSnapshot `json:"data"`
	}
	if err := conn.ReadJSON(&init); err != nil {
		t.Fatalf("read state_init: %v", err)
	}
	if init.Type != "state_init" || init.Data.AlarmTime != " 6:00" {
		t.Fatalf("state_init = %+v", init)
	}

	waitUntil(t, time.Second, func() bool { return ws.Hub().ClientCount() == 1 }, "client not registered")

	ws.Hub().BroadcastBytes([]byte(`{"type":"display","data":{"time":"12:34"}}`))
	var frame struct {
		Type string       `json:"type"`
		Data DisplayFrame `json:"data"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read display: %v", err)
	}
	if frame.Type != "display" || frame.Data.Time != "12:34" {
		t.Fatalf("display = %+v", frame)
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}
