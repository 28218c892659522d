package main

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestDecodeInputEvent(t *testing.T) {
	in := inputEvent{Sec: 12, Usec: 34, Type: EV_KEY, Code: KEY_ENTER, Value: evValuePress}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if buf.Len() != inputEventSize {
		t.Fatalf("encoded %d bytes, want %d", buf.Len(), inputEventSize)
	}
	got, err := decodeInputEvent(buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != in {
		t.Fatalf("got %+v, want %+v", got, in)
	}

	if _, err := decodeInputEvent(buf.Bytes()[:8]); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestEvdevSwitch_Handle(t *testing.T) {
	sw := newEvdevSwitch(KEY_ENTER)
	if !sw.Read() {
		t.Fatal("idle switch should read high")
	}

	key := func(code uint16, value int32) inputEvent {
		return inputEvent{Type: EV_KEY, Code: code, Value: value}
	}

	sw.handle(key(KEY_ENTER, evValuePress))
	if sw.Read() {
		t.Fatal("pressed switch should read low")
	}
	sw.handle(key(KEY_ENTER, evValueRepeat))
	if sw.Read() {
		t.Fatal("autorepeat should keep the switch low")
	}

	// Other keys and event types are ignored.
	sw.handle(key(KEY_ENTER+1, evValueRelease))
	sw.handle(inputEvent{Type: 0x02, Code: KEY_ENTER, Value: evValueRelease})
	if sw.Read() {
		t.Fatal("unrelated event released the switch")
	}

	sw.handle(key(KEY_ENTER, evValueRelease))
	if !sw.Read() {
		t.Fatal("released switch should read high")
	}
}

func TestEvdevSwitch_DrivesEncoderSwitch(t *testing.T) {
	g := newSimGPIO()
	a, _ := g.InputPullUp(1)
	b, _ := g.InputPullUp(2)
	sw := newEvdevSwitch(KEY_ENTER)
	enc := NewQuadratureEncoder(a, b, sw, 1439, 0, 0)

	sw.handle(inputEvent{Type: EV_KEY, Code: KEY_ENTER, Value: evValuePress})
	if !enc.SwitchPressed() {
		t.Fatal("encoder should see the evdev key as pressed")
	}
}
