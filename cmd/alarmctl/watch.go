package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

const (
	watchReadTimeout = 60 * time.Second
	watchPingPeriod  = 30 * time.Second
)

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type displayFrame struct {
	Time         string `json:"time"`
	Date         string `json:"date"`
	DateVisible  bool   `json:"date_visible"`
	Label        string `json:"label"`
	AlarmTime    string `json:"alarm_time"`
	AlarmEnabled bool   `json:"alarm_enabled"`
	Firing       bool   `json:"firing"`
	SetMode      bool   `json:"set_mode"`
	Status       string `json:"status"`
}

// runWatch prints every display frame the daemon broadcasts until interrupted.
func runWatch(wsURL string, out io.Writer) error {
	u, err := url.Parse(wsURL)
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	d := websocket.Dialer{HandshakeTimeout: dialTimeout}
	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()
	log.Printf("connected (press Ctrl+C to exit)")

	var writeMu sync.Mutex

	_ = conn.SetReadDeadline(time.Now().Add(watchReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchReadTimeout))
	})

	pingTicker := time.NewTicker(watchPingPeriod)
	defer pingTicker.Stop()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(dialTimeout))
				writeMu.Unlock()
				if err != nil {
					log.Printf("ping failed: %v", err)
					return
				}
			}
		}
	}()

	readErr := make(chan error, 1)
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					readErr <- err
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(watchReadTimeout))
			handleWSMessage(out, message)
		}
	}()

	select {
	case <-sigc:
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
		return nil
	case <-done:
		select {
		case err := <-readErr:
			return fmt.Errorf("websocket: %w", err)
		default:
			log.Printf("connection closed")
			return nil
		}
	}
}

func handleWSMessage(out io.Writer, message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		fmt.Fprintf(out, "[TEXT] %s\n", message)
		return
	}

	switch msg.Type {
	case "display":
		var f displayFrame
		if err := json.Unmarshal(msg.Data, &f); err != nil {
			fmt.Fprintf(out, "[DISPLAY] %s\n", msg.Data)
			return
		}
		fmt.Fprintln(out, formatFrame(f))
	case "state_init":
		var state struct {
			Display displayFrame `json:"display"`
		}
		if err := json.Unmarshal(msg.Data, &state); err != nil {
			fmt.Fprintf(out, "[STATE] %s\n", msg.Data)
			return
		}
		fmt.Fprintln(out, formatFrame(state.Display))
	default:
		fmt.Fprintf(out, "[%s] %s\n", msg.Type, msg.Data)
	}
}

// formatFrame renders a frame as one line, roughly as the panel shows it.
func formatFrame(f displayFrame) string {
	date := "--- --.--.----"
	if f.DateVisible {
		date = f.Date
	}
	alarm := "off"
	if f.AlarmEnabled {
		alarm = "on"
	}
	line := fmt.Sprintf("%s  %s  %s %s (%s)  [%s]", f.Time, date, f.Label, f.AlarmTime, alarm, f.Status)
	if f.SetMode {
		line += " SET"
	}
	if f.Firing {
		line += " RING"
	}
	return line
}
