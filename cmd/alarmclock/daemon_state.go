package main

// DaemonState is the top-level, daemon-owned state container. The reducer
// owns it; the helper methods below are intended to be called only by the
// daemon goroutine (single-owner).
type DaemonState struct {
	// Latest observations, copied from each Tick.
	Now      Ticks
	Clock    DateTime
	Status   ClockStatus
	Position int

	AlarmEnabled bool
	SetMode      bool

	Switch  SwitchState
	Beep    BeepState
	Sync    SyncState
	Display DisplayState

	// LastError is the most recent effect failure, for snapshots.
	LastError string
}

// SwitchState tracks the 70 ms switch sampler.
type SwitchState struct {
	Started    bool
	LastSample Ticks
	Count      int  // consecutive pressed samples
	LastLevel  bool // pressed at previous sample
}

// BeepState tracks the alarm tone while firing.
type BeepState struct {
	Firing   bool
	LastStep Ticks
	FreqHz   int  // current pitch, 0 when silent
	Muted    bool // the tone failed to start; firing continues without sound
}

// SyncState tracks the network time sync cadence.
type SyncState struct {
	Started     bool
	LastAttempt Ticks
	InFlight    bool
	Attempts    int
	LastOK      bool
	LastErr     string
}

// DisplayState tracks what was last rendered.
type DisplayState struct {
	Rendered   bool
	Last       DisplayFrame
	LastAt     Ticks
	LastMinute int
	Force      bool
}

// StateSnapshot is a coherent copy of daemon state for IPC and UI clients.
type StateSnapshot struct {
	Clock         DateTime     `json:"clock"`
	ClockStatus   string       `json:"clock_status"`
	Position      int          `json:"position"`
	AlarmTime     string       `json:"alarm_time"`
	AlarmEnabled  bool         `json:"alarm_enabled"`
	Firing        bool         `json:"firing"`
	SetMode       bool         `json:"set_mode"`
	SwitchSamples int          `json:"switch_samples"`
	ToneHz        int          `json:"tone_hz"`
	SyncAttempts  int          `json:"sync_attempts"`
	SyncInFlight  bool         `json:"sync_in_flight"`
	LastSyncOK    bool         `json:"last_sync_ok"`
	LastSyncError string       `json:"last_sync_error,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
	Display       DisplayFrame `json:"display"`
}

// Snapshot returns a copy of the externally visible state.
func (s *DaemonState) Snapshot() StateSnapshot {
	if s == nil {
		return StateSnapshot{}
	}
	return StateSnapshot{
		Clock:         s.Clock,
		ClockStatus:   s.Status.String(),
		Position:      s.Position,
		AlarmTime:     formatMinutes(s.Position),
		AlarmEnabled:  s.AlarmEnabled,
		Firing:        s.Beep.Firing,
		SetMode:       s.SetMode,
		SwitchSamples: s.Switch.Count,
		ToneHz:        s.Beep.FreqHz,
		SyncAttempts:  s.Sync.Attempts,
		SyncInFlight:  s.Sync.InFlight,
		LastSyncOK:    s.Sync.LastOK,
		LastSyncError: s.Sync.LastErr,
		LastError:     s.LastError,
		Display:       s.Display.Last,
	}
}

// RequestRender makes the next tick re-evaluate the display.
func (s *DaemonState) RequestRender() {
	s.Display.Force = true
}

// alarmDue reports whether the clock matches the alarm position.
func (s *DaemonState) alarmDue() bool {
	return s.AlarmEnabled && !s.SetMode && s.Clock.MinuteOfDay() == s.Position
}
