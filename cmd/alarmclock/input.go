package main

import (
	"bytes"
	"encoding/binary"
	"sync/atomic"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

var inputEventSize = binary.Size(inputEvent{})

func decodeInputEvent(buf []byte) (inputEvent, error) {
	var ev inputEvent
	err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &ev)
	return ev, err
}

// evdevSwitch presents one EV_KEY code of an input device as a pulled-up
// switch line: Read returns false (low) while the key is held.
//
// The reader goroutine writes, the daemon goroutine reads; the atomic makes
// the single bool safe to share.
type evdevSwitch struct {
	code    uint16
	pressed atomic.Bool
}

func newEvdevSwitch(code int) *evdevSwitch {
	return &evdevSwitch{code: uint16(code)}
}

func (s *evdevSwitch) Read() bool {
	return !s.pressed.Load()
}

// handle applies one input event. Autorepeat keeps the key held.
func (s *evdevSwitch) handle(ev inputEvent) {
	if ev.Type != EV_KEY || ev.Code != s.code {
		return
	}
	switch ev.Value {
	case evValuePress, evValueRepeat:
		s.pressed.Store(true)
	case evValueRelease:
		s.pressed.Store(false)
	}
}
