package main

import (
	"strings"
	"testing"
)

func TestMDNSTXT(t *testing.T) {
	txt := mdnsTXT("/ws", "abc")
	want := []string{"version=" + version, "ws=/ws", "id=abc"}
	if len(txt) != len(want) {
		t.Fatalf("txt=%v", txt)
	}
	for i := range want {
		if txt[i] != want[i] {
			t.Errorf("txt[%d]=%q, want %q", i, txt[i], want[i])
		}
	}
}

func TestMDNSInstanceName(t *testing.T) {
	if got := mdnsInstanceName(MDNSConfig{Instance: "bedroom"}); got != "bedroom" {
		t.Errorf("explicit instance=%q", got)
	}
	if got := mdnsInstanceName(MDNSConfig{}); !strings.HasPrefix(got, "alarmclock-") {
		t.Errorf("derived instance=%q", got)
	}
}

func TestStartMDNS_UnknownInterface(t *testing.T) {
	_, err := startMDNS(MDNSConfig{Enabled: true, Interface: "no-such-if0"}, 3101, "/ws", testLogger())
	if err == nil {
		t.Fatal("expected error for unknown interface")
	}
}

func TestMDNSAdvertiser_StopNil(t *testing.T) {
	var a *mdnsAdvertiser
	a.Stop()
}
