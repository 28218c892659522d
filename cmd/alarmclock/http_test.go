package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPMux_HealthAndState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actions := make(chan Action, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case act := <-actions:
				if req, ok := act.(RequestStateSnapshot); ok {
					req.Reply <- StateSnapshot{Position: 405, ClockStatus: "daylight"}
				}
			}
		}
	}()

	ws := NewStateServer(testLogger(), actions, HubConfig{})
	srv := httptest.NewServer(newHTTPMux(ws, "/ws", actions, testLogger()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok\n" {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	defer resp.Body.Close()
	var snap StateSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if snap.Position != 405 || snap.ClockStatus != "daylight" {
		t.Fatalf("state = %+v", snap)
	}
}

func TestHTTPMux_StateUnavailableWithoutDaemon(t *testing.T) {
	actions := make(chan Action) // nobody reads
	ws := NewStateServer(testLogger(), actions, HubConfig{})
	mux := newHTTPMux(ws, "/ws", actions, testLogger())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rec.Code)
	}
}

func TestRunHTTPServer_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runHTTPServer(ctx, 0, http.NewServeMux(), testLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
