package main

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Events and Actions
// ============================================================================
// Events are reducer inputs. Actions are the subset that may arrive from
// outside the daemon (IPC, websocket, alarmctl) and have a JSON envelope.
// ============================================================================

// Event is the input to the reducer. Actions (user intent from IPC or the
// console) are events too.
type Event interface {
	eventMarker()
}

// Action is an Event that can arrive from outside the daemon.
type Action interface {
	Event
	actionMarker()
}

// Tick is emitted by the daemon loop after every encoder poll.
type Tick struct {
	Ticks         Ticks
	Clock         DateTime
	Status        ClockStatus
	Position      int
	SwitchPressed bool
}

func (Tick) eventMarker() {}

// TimeSyncCompleted carries the result of a CmdSyncTime back into the loop.
type TimeSyncCompleted struct {
	DateTime DateTime
	Status   ClockStatus
	Err      error
}

func (TimeSyncCompleted) eventMarker() {}

// CommandFailed is emitted when executing a Command fails.
type CommandFailed struct {
	Command Command
	Err     error
}

func (CommandFailed) eventMarker() {}

// ToggleAlarm flips the alarm enable, like a short click outside set-time mode.
type ToggleAlarm struct{}

// SetAlarmTime moves the alarm to Minutes past midnight and enables it.
type SetAlarmTime struct {
	Minutes int `json:"minutes"`
}

// SetClockTime sets the clock by hand, like committing set-time mode.
type SetClockTime struct {
	Minutes int `json:"minutes"`
}

// SyncTime requests an immediate network time sync.
type SyncTime struct{}

// ResetEncoder moves the encoder position to 0.
type ResetEncoder struct{}

// SimTurn turns the simulated knob by Detents (negative is counter-clockwise).
type SimTurn struct {
	Detents int `json:"detents"`
}

// SimPress holds the simulated switch for HoldMS.
type SimPress struct {
	HoldMS int `json:"hold_ms"`
}

// maxSimHoldMS keeps a hold representable as a Ticks offset.
const maxSimHoldMS = 1<<31 - 1

func validHoldMS(ms int) bool { return ms > 0 && ms <= maxSimHoldMS }

// RequestStateSnapshot asks the daemon for a snapshot of its state. Reply is
// not serialized; the IPC and websocket servers fill it in locally.
type RequestStateSnapshot struct {
	Reply chan StateSnapshot `json:"-"`
}

func (ToggleAlarm) eventMarker()          {}
func (SetAlarmTime) eventMarker()         {}
func (SetClockTime) eventMarker()         {}
func (SyncTime) eventMarker()             {}
func (ResetEncoder) eventMarker()         {}
func (SimTurn) eventMarker()              {}
func (SimPress) eventMarker()             {}
func (RequestStateSnapshot) eventMarker() {}

func (ToggleAlarm) actionMarker()          {}
func (SetAlarmTime) actionMarker()         {}
func (SetClockTime) actionMarker()         {}
func (SyncTime) actionMarker()             {}
func (ResetEncoder) actionMarker()         {}
func (SimTurn) actionMarker()              {}
func (SimPress) actionMarker()             {}
func (RequestStateSnapshot) actionMarker() {}

// ============================================================================
// JSON envelope
// ============================================================================

// ActionEnvelope wraps an action with a type discriminator for JSON marshaling.
type ActionEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalAction deserializes a JSON action envelope into a concrete Action.
func UnmarshalAction(data []byte) (Action, error) {
	var env ActionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "toggle_alarm":
		return ToggleAlarm{}, nil

	case "set_alarm":
		var a SetAlarmTime
		if err := unmarshalData(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SetAlarmTime: %w", err)
		}
		return a, nil

	case "set_time":
		var a SetClockTime
		if err := unmarshalData(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SetClockTime: %w", err)
		}
		return a, nil

	case "sync_time":
		return SyncTime{}, nil

	case "reset_encoder":
		return ResetEncoder{}, nil

	case "sim_turn":
		var a SimTurn
		if err := unmarshalData(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SimTurn: %w", err)
		}
		return a, nil

	case "sim_press":
		var a SimPress
		if err := unmarshalData(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SimPress: %w", err)
		}
		if !validHoldMS(a.HoldMS) {
			return nil, fmt.Errorf("unmarshal SimPress: hold_ms %d out of range", a.HoldMS)
		}
		return a, nil

	case "request_state":
		return RequestStateSnapshot{}, nil

	default:
		return nil, fmt.Errorf("unknown action type: %s", env.Type)
	}
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing data")
	}
	return json.Unmarshal(data, v)
}

// MarshalAction serializes an Action into a JSON action envelope.
func MarshalAction(action Action) ([]byte, error) {
	var env ActionEnvelope
	var payload any

	switch a := action.(type) {
	case ToggleAlarm:
		env.Type = "toggle_alarm"
	case SetAlarmTime:
		env.Type = "set_alarm"
		payload = a
	case SetClockTime:
		env.Type = "set_time"
		payload = a
	case SyncTime:
		env.Type = "sync_time"
	case ResetEncoder:
		env.Type = "reset_encoder"
	case SimTurn:
		env.Type = "sim_turn"
		payload = a
	case SimPress:
		env.Type = "sim_press"
		payload = a
	case RequestStateSnapshot:
		env.Type = "request_state"
	default:
		return nil, fmt.Errorf("unknown action type: %T", action)
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", env.Type, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}
