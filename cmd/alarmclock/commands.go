package main

import "fmt"

// ==============================
// Commands (side effects)
// ==============================

// Command represents a side effect to be executed by the daemon loop.
type Command interface {
	commandMarker()
	String() string
}

// CmdSyncTime starts a network time sync in the background.
type CmdSyncTime struct{}

func (CmdSyncTime) commandMarker() {}
func (CmdSyncTime) String() string { return "CmdSyncTime()" }

// CmdApplyTimeSync installs a synced reading into the clock.
type CmdApplyTimeSync struct {
	DateTime DateTime
	Status   ClockStatus
}

func (CmdApplyTimeSync) commandMarker() {}
func (c CmdApplyTimeSync) String() string {
	return fmt.Sprintf("CmdApplyTimeSync(time=%s, status=%s)", c.DateTime, c.Status)
}

// CmdMarkClockUnknown forgets how the clock was set, keeping its value.
type CmdMarkClockUnknown struct{}

func (CmdMarkClockUnknown) commandMarker() {}
func (CmdMarkClockUnknown) String() string { return "CmdMarkClockUnknown()" }

// CmdSetClockManual sets the clock to Minutes past midnight, date unknown.
type CmdSetClockManual struct {
	Minutes int
}

func (CmdSetClockManual) commandMarker() {}
func (c CmdSetClockManual) String() string {
	return fmt.Sprintf("CmdSetClockManual(time=%s)", formatMinutes(c.Minutes))
}

// CmdResetEncoder moves the encoder to position 0.
type CmdResetEncoder struct{}

func (CmdResetEncoder) commandMarker() {}
func (CmdResetEncoder) String() string { return "CmdResetEncoder()" }

// CmdSetEncoderPosition moves the encoder to Position.
type CmdSetEncoderPosition struct {
	Position int
}

func (CmdSetEncoderPosition) commandMarker() {}
func (c CmdSetEncoderPosition) String() string {
	return fmt.Sprintf("CmdSetEncoderPosition(position=%d)", c.Position)
}

// CmdToneStart starts the beeper.
type CmdToneStart struct {
	FreqHz int
}

func (CmdToneStart) commandMarker() {}
func (c CmdToneStart) String() string {
	return fmt.Sprintf("CmdToneStart(freq_hz=%d)", c.FreqHz)
}

// CmdToneFrequency changes the pitch of a running beeper.
type CmdToneFrequency struct {
	FreqHz int
}

func (CmdToneFrequency) commandMarker() {}
func (c CmdToneFrequency) String() string {
	return fmt.Sprintf("CmdToneFrequency(freq_hz=%d)", c.FreqHz)
}

// CmdToneStop silences the beeper.
type CmdToneStop struct{}

func (CmdToneStop) commandMarker() {}
func (CmdToneStop) String() string { return "CmdToneStop()" }

// CmdRender pushes a frame to the display.
type CmdRender struct {
	Frame DisplayFrame
}

func (CmdRender) commandMarker() {}
func (c CmdRender) String() string {
	return fmt.Sprintf("CmdRender(time=%q, alarm=%q)", c.Frame.Time, c.Frame.AlarmTime)
}

// CmdSimTurn forwards a turn to the simulated knob.
type CmdSimTurn struct {
	Detents int
}

func (CmdSimTurn) commandMarker() {}
func (c CmdSimTurn) String() string { return fmt.Sprintf("CmdSimTurn(detents=%d)", c.Detents) }

// CmdSimPress forwards a press to the simulated knob.
type CmdSimPress struct {
	HoldMS int
}

func (CmdSimPress) commandMarker() {}
func (c CmdSimPress) String() string { return fmt.Sprintf("CmdSimPress(hold_ms=%d)", c.HoldMS) }

// CmdPublishStateSnapshot requests publishing a snapshot to a reply channel.
//
// This is a side-effect command so the reducer stays pure: the reducer produces
// the snapshot, and the effects layer performs the channel send.
type CmdPublishStateSnapshot struct {
	Reply    chan StateSnapshot
	Snapshot StateSnapshot
}

func (CmdPublishStateSnapshot) commandMarker() {}
func (CmdPublishStateSnapshot) String() string { return "CmdPublishStateSnapshot()" }
