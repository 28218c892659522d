package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ============================================================================
// State WebSocket: hub + per-client pumps + broadcaster
// ============================================================================
//
// The websocket is the remote face of the clock: every rendered DisplayFrame
// is pushed to all connected clients.
//
//   - A Hub tracks connected clients
//   - Per-client write pumps so one slow client doesn't block others
//   - A broadcaster loop coalesces frames (latest-wins) and fans out
//
// Messages are JSON text frames with an envelope: {type, ts, data}. The first
// message on connect is "state_init" with a StateSnapshot in data; after that
// "display" messages carry a DisplayFrame.
//
// ============================================================================

// envelope is the wire format envelope for WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// ============================================================================
// Hub
// ============================================================================

type Hub struct {
	logger *slog.Logger

	// Buffered broadcast channel for already-serialized JSON frames.
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

type HubConfig struct {
	// SendBuf is the per-client outbound queue size. Zero means 32.
	SendBuf int

	// BroadcastBuf is the hub inbound broadcast queue size. Zero means 128.
	BroadcastBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 32
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 128
	}

	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled.
// It disconnects all clients on shutdown.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Debug("ws hub starting")

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("ws hub stopping (context canceled)")
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered", "client_id", c.id, "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			// Collect slow clients first, then remove them after we unlock.
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		safeCloseChan(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		// Closing send signals writePump to exit.
		safeCloseChan(c.send)

		h.logger.Info("ws client disconnected", "client_id", c.id, "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

func safeCloseChan(ch chan []byte) {
	defer func() {
		_ = recover() // ignore "close of closed channel"
	}()
	close(ch)
}

// BroadcastBytes enqueues a pre-serialized JSON WS frame for broadcast.
// It never blocks; if the hub queue is full it drops the message.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "bytes", len(msg))
	}
}

// ============================================================================
// Client
// ============================================================================

type Client struct {
	hub *Hub

	conn *websocket.Conn
	send chan []byte

	id         string
	remoteAddr string
	logger     *slog.Logger
}

// NewClient creates a client with a buffered send channel and a fresh id.
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 32
	if hub != nil && hub.sendBuf > 0 {
		sendBuf = hub.sendBuf
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

// wsDisplayCoalesceWindow is the maximum time window during which bursty
// frames (fast knob turns) are coalesced, latest-wins, before broadcasting.
const wsDisplayCoalesceWindow = 50 * time.Millisecond

// closeStatus extracts a websocket close code / text when possible.
func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

func (c *Client) logExit(pump string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.logger.Debug("ws "+pump+" exiting (close)", "client_id", c.id, "code", code, "reason", text)
		return
	}
	c.logger.Debug("ws "+pump+" exiting", "client_id", c.id, "error", err)
}

// writePump writes messages from the send queue to the websocket.
// It exits on write error or when send is closed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: hub is disconnecting us.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("writePump", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("writePump", err)
				return
			}
		}
	}
}

// readPump reads and discards incoming messages to detect disconnects and
// handle control frames. It exits on read error, then unregisters the client.
func (c *Client) readPump(ctx context.Context) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logExit("readPump", err)
			if c.hub != nil {
				c.hub.unregister <- c
			}
			return
		}
	}
}

// ============================================================================
// HTTP Handler + server wiring
// ============================================================================

type StateServer struct {
	logger *slog.Logger

	hub *Hub

	// Used for the initial snapshot on connect (through the daemon loop).
	actions chan<- Action
}

// NewStateServer constructs the WS state server components. Register it on a
// mux, start hub.Run(ctx), and start RunBroadcaster.
func NewStateServer(logger *slog.Logger, actions chan<- Action, cfg HubConfig) *StateServer {
	return &StateServer{
		logger:  logger,
		hub:     NewHub(logger, cfg),
		actions: actions,
	}
}

func (s *StateServer) Hub() *Hub { return s.hub }

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStateWS upgrades and registers a client, then sends state_init.
func (s *StateServer) handleStateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)

	// Register client first so broadcasts can reach it.
	s.hub.register <- client

	// Pumps must outlive the request context; net/http cancels it when the
	// handler returns. The hub and socket errors end the connection instead.
	go client.writePump(context.Background())
	go client.readPump(context.Background())

	if s.actions == nil {
		return
	}
	snap, err := requestSnapshot(r.Context(), s.actions, time.Second)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("ws snapshot request failed", "error", err)
		}
		return
	}

	now := time.Now().UTC()
	initMsg, err := json.Marshal(envelope{Type: "state_init", Ts: &now, Data: snap})
	if err != nil {
		s.logger.Warn("ws marshal state_init failed", "error", err)
		return
	}
	// Enqueue init message; if client is already slow, disconnect.
	select {
	case client.send <- initMsg:
	default:
		s.hub.unregister <- client
	}
}

// ============================================================================
// Display adapter + broadcaster
// ============================================================================

// wsDisplay is a Display that hands frames to the broadcaster. Render never
// blocks the daemon loop; when the queue is full the oldest pending frame is
// dropped.
type wsDisplay struct {
	frames chan DisplayFrame
}

func newWSDisplay(buf int) *wsDisplay {
	if buf <= 0 {
		buf = 16
	}
	return &wsDisplay{frames: make(chan DisplayFrame, buf)}
}

func (d *wsDisplay) Render(f DisplayFrame) {
	for {
		select {
		case d.frames <- f:
			return
		default:
		}
		select {
		case <-d.frames:
		default:
		}
	}
}

// RunBroadcaster reads rendered frames, marshals them, and broadcasts them to
// all hub clients. Frames arriving in bursts are flushed at most once every
// wsDisplayCoalesceWindow (no debounce-on-silence). Intended to run as a
// single goroutine.
func RunBroadcaster(ctx context.Context, hub *Hub, src <-chan DisplayFrame, logger *slog.Logger) {
	if hub == nil || src == nil {
		return
	}

	var pending *DisplayFrame
	var timer *time.Timer
	var timerCh <-chan time.Time

	flush := func() {
		if pending == nil {
			return
		}
		now := time.Now().UTC()
		msg, err := json.Marshal(envelope{Type: "display", Ts: &now, Data: *pending})
		pending = nil
		if err != nil {
			logger.Warn("ws broadcaster marshal failed", "error", err)
			return
		}
		hub.BroadcastBytes(msg)
	}

	stopTimer := func() {
		if timer != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer = nil
		timerCh = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			stopTimer()
			return

		case <-timerCh:
			// Keep the window open only while frames keep arriving.
			if pending == nil {
				timer = nil
				timerCh = nil
				continue
			}
			flush()
			timer.Reset(wsDisplayCoalesceWindow)

		case f, ok := <-src:
			if !ok {
				flush()
				stopTimer()
				logger.Info("ws broadcaster stopping (source ended)")
				return
			}
			copyF := f
			if timer == nil {
				// First frame of a burst goes out immediately; the window
				// then collects the rest.
				pending = &copyF
				flush()
				timer = time.NewTimer(wsDisplayCoalesceWindow)
				timerCh = timer.C
				continue
			}
			pending = &copyF
		}
	}
}
