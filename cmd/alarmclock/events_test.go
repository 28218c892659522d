package main

import (
	"strings"
	"testing"
)

func TestMarshalAction_RoundTrip(t *testing.T) {
	actions := []Action{
		ToggleAlarm{},
		SetAlarmTime{Minutes: 390},
		SetClockTime{Minutes: 1},
		SyncTime{},
		ResetEncoder{},
		SimTurn{Detents: -4},
		SimPress{HoldMS: 6000},
	}
	for _, act := range actions {
		b, err := MarshalAction(act)
		if err != nil {
			t.Fatalf("marshal %T: %v", act, err)
		}
		got, err := UnmarshalAction(b)
		if err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if got != act {
			t.Errorf("round trip %T: got %#v from %s", act, got, b)
		}
	}
}

func TestUnmarshalAction_WireFormat(t *testing.T) {
	act, err := UnmarshalAction([]byte(`{"type":"set_alarm","data":{"minutes":405}}`))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a, ok := act.(SetAlarmTime); !ok || a.Minutes != 405 {
		t.Fatalf("got %#v", act)
	}

	act, err = UnmarshalAction([]byte(`{"type":"request_state"}`))
	if err != nil {
		t.Fatalf("unmarshal request_state: %v", err)
	}
	if r, ok := act.(RequestStateSnapshot); !ok || r.Reply != nil {
		t.Fatalf("got %#v", act)
	}
}

func TestUnmarshalAction_Errors(t *testing.T) {
	cases := []struct{ in, want string }{
		{`not json`, "envelope"},
		{`{"type":"snooze"}`, "unknown action"},
		{`{"type":"set_alarm"}`, "missing data"},
		{`{"type":"sim_turn","data":{"detents":"x"}}`, "SimTurn"},
		{`{"type":"sim_press","data":{"hold_ms":0}}`, "hold_ms 0 out of range"},
		{`{"type":"sim_press","data":{"hold_ms":-5}}`, "out of range"},
		{`{"type":"sim_press","data":{"hold_ms":2147483648}}`, "SimPress"},
	}
	for _, tc := range cases {
		_, err := UnmarshalAction([]byte(tc.in))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: err=%v, want mention of %q", tc.in, err, tc.want)
		}
	}
}

func TestMarshalAction_RequestStateOmitsReply(t *testing.T) {
	b, err := MarshalAction(RequestStateSnapshot{Reply: make(chan StateSnapshot, 1)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"type":"request_state"}` {
		t.Fatalf("got %s", b)
	}
}
