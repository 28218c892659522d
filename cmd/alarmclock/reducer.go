package main

import (
	"fmt"
	"time"
)

// This file implements the alarm clock main loop as a pure reducer:
//
//   - Events: inputs (ticks with fresh clock/encoder readings, actions, sync results)
//   - Commands: side effects requested by the reducer (clock, encoder, tone, display)
//   - Reduce(): computes next state + commands, without performing I/O
//
// The daemon loop is responsible for executing Commands and feeding results
// back as Events.

// ==============================
// Config and result
// ==============================

// ReducerConfig holds the timing and policy knobs the reducer needs.
type ReducerConfig struct {
	MaxPosition     int
	InitialPosition int

	SwitchSampleMS   int32
	ClickMaxSamples  int
	LongPressSamples int

	ToneHighHz  int
	ToneLowHz   int
	AlternateMS int32

	DisplayRefreshMS int32
	WeekdayNames     []string

	NTPEnabled  bool
	NTPPeriodMS int32
}

// ReduceResult is the output of Reduce(): next state plus a set of Commands to execute.
type ReduceResult struct {
	State    *DaemonState
	Commands []Command
}

// Reduce is the pure reducer:
//
// Rules:
// - Must not perform I/O
// - Must not block
// - Must not mutate anything outside the returned state
//
// When the reducer emits an encoder command it also updates State.Position to
// the value the command will produce, so later rules in the same step see it.
func Reduce(s *DaemonState, e Event, cfg ReducerConfig) ReduceResult {
	if s == nil {
		s = &DaemonState{}
	}

	var cmds []Command

	switch ev := e.(type) {
	case Tick:
		s.Now = ev.Ticks
		s.Clock = ev.Clock
		s.Status = ev.Status
		s.Position = ev.Position

		cmds = append(cmds, reduceSyncCadence(s, cfg)...)
		cmds = append(cmds, reduceSwitch(s, ev.SwitchPressed, cfg)...)
		cmds = append(cmds, reduceAlarm(s, cfg)...)
		cmds = append(cmds, reduceDisplay(s, cfg)...)

	case TimeSyncCompleted:
		s.Sync.InFlight = false
		if ev.Err != nil {
			s.Sync.LastOK = false
			s.Sync.LastErr = ev.Err.Error()
			s.Status = ClockUnknown
			cmds = append(cmds, CmdMarkClockUnknown{})
		} else {
			s.Sync.LastOK = true
			s.Sync.LastErr = ""
			s.Clock = ev.DateTime
			s.Status = ev.Status
			cmds = append(cmds, CmdApplyTimeSync{DateTime: ev.DateTime, Status: ev.Status})
		}
		s.RequestRender()

	case CommandFailed:
		if _, ok := ev.Command.(CmdToneStart); ok && s.Beep.Firing {
			s.Beep.Muted = true
			s.Beep.FreqHz = 0
		}
		if ev.Command != nil {
			s.LastError = fmt.Sprintf("%s: %v", ev.Command, ev.Err)
		} else {
			s.LastError = fmt.Sprint(ev.Err)
		}

	case ToggleAlarm:
		s.AlarmEnabled = !s.AlarmEnabled
		s.RequestRender()

	case SetAlarmTime:
		p := clampInt(ev.Minutes, 0, cfg.MaxPosition)
		s.Position = p
		s.AlarmEnabled = true
		s.RequestRender()
		cmds = append(cmds, CmdSetEncoderPosition{Position: p})

	case SetClockTime:
		cmds = append(cmds, setClockManual(s, clampInt(ev.Minutes, 0, minutesPerDay-1)))
		s.RequestRender()

	case SyncTime:
		if cmd := startSync(s, cfg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case ResetEncoder:
		s.Position = 0
		s.RequestRender()
		cmds = append(cmds, CmdResetEncoder{})

	case SimTurn:
		cmds = append(cmds, CmdSimTurn{Detents: ev.Detents})

	case SimPress:
		if !validHoldMS(ev.HoldMS) {
			s.LastError = fmt.Sprintf("sim press: hold_ms %d out of range", ev.HoldMS)
			break
		}
		cmds = append(cmds, CmdSimPress{HoldMS: ev.HoldMS})

	case RequestStateSnapshot:
		cmds = append(cmds, CmdPublishStateSnapshot{Reply: ev.Reply, Snapshot: s.Snapshot()})

	default:
		// Unknown event type: no-op.
	}

	return ReduceResult{
		State:    s,
		Commands: cmds,
	}
}

const minutesPerDay = 24 * 60

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// ==============================
// Per-tick rules
// ==============================

// reduceSyncCadence starts a sync on the first tick and then once per period.
func reduceSyncCadence(s *DaemonState, cfg ReducerConfig) []Command {
	if !cfg.NTPEnabled || s.Sync.InFlight {
		return nil
	}
	if s.Sync.Started && TicksDiff(s.Now, s.Sync.LastAttempt) <= cfg.NTPPeriodMS {
		return nil
	}
	if cmd := startSync(s, cfg); cmd != nil {
		return []Command{cmd}
	}
	return nil
}

func startSync(s *DaemonState, cfg ReducerConfig) Command {
	if !cfg.NTPEnabled {
		s.LastError = "time sync requested but ntp is disabled"
		return nil
	}
	if s.Sync.InFlight {
		return nil
	}
	s.Sync.Started = true
	s.Sync.LastAttempt = s.Now
	s.Sync.InFlight = true
	s.Sync.Attempts++
	return CmdSyncTime{}
}

// reduceSwitch samples the push switch every SwitchSampleMS.
//
//   - release after fewer than ClickMaxSamples pressed samples is a click
//   - more than LongPressSamples pressed samples enters set-time mode, and
//     keeps the encoder at 0 for as long as the switch stays held
//
// Releasing a long press is not a click; the new time is committed by the
// next click.
func reduceSwitch(s *DaemonState, pressed bool, cfg ReducerConfig) []Command {
	sw := &s.Switch
	if !sw.Started {
		sw.Started = true
		sw.LastSample = s.Now
		return nil
	}
	if TicksDiff(s.Now, sw.LastSample) <= cfg.SwitchSampleMS {
		return nil
	}
	sw.LastSample = s.Now

	var cmds []Command
	if !pressed && sw.LastLevel && sw.Count < cfg.ClickMaxSamples {
		cmds = append(cmds, click(s, cfg)...)
	}
	if pressed {
		sw.Count++
		if sw.Count > cfg.LongPressSamples {
			if !s.SetMode {
				s.RequestRender()
			}
			s.SetMode = true
			s.Position = 0
			cmds = append(cmds, CmdResetEncoder{})
		}
	} else {
		sw.Count = 0
	}
	sw.LastLevel = pressed
	return cmds
}

func click(s *DaemonState, cfg ReducerConfig) []Command {
	s.AlarmEnabled = !s.AlarmEnabled
	s.RequestRender()
	if !s.SetMode {
		return nil
	}
	cmds := []Command{
		setClockManual(s, s.Position),
		CmdSetEncoderPosition{Position: cfg.InitialPosition},
	}
	s.Position = cfg.InitialPosition
	s.SetMode = false
	s.AlarmEnabled = false
	return cmds
}

func setClockManual(s *DaemonState, minutes int) Command {
	s.Clock = DateTimeOf(rtcEpoch.Add(time.Duration(minutes) * time.Minute))
	s.Status = ClockUnknown
	return CmdSetClockManual{Minutes: minutes}
}

// reduceAlarm drives the beeper: start at the high pitch, then alternate
// every AlternateMS while the alarm minute lasts.
func reduceAlarm(s *DaemonState, cfg ReducerConfig) []Command {
	b := &s.Beep
	if s.alarmDue() {
		if !b.Firing {
			b.Firing = true
			b.FreqHz = cfg.ToneHighHz
			b.LastStep = s.Now
			s.RequestRender()
			return []Command{CmdToneStart{FreqHz: b.FreqHz}}
		}
		if !b.Muted && TicksDiff(s.Now, b.LastStep) > cfg.AlternateMS {
			b.LastStep = s.Now
			if b.FreqHz == cfg.ToneHighHz {
				b.FreqHz = cfg.ToneLowHz
			} else {
				b.FreqHz = cfg.ToneHighHz
			}
			return []Command{CmdToneFrequency{FreqHz: b.FreqHz}}
		}
		return nil
	}
	if b.Firing {
		muted := b.Muted
		b.Firing = false
		b.Muted = false
		b.FreqHz = 0
		s.RequestRender()
		if muted {
			return nil
		}
		return []Command{CmdToneStop{}}
	}
	return nil
}

// reduceDisplay re-evaluates the frame on the refresh cadence, on a minute
// change, or when forced, and renders it only if it differs from the last one.
func reduceDisplay(s *DaemonState, cfg ReducerConfig) []Command {
	d := &s.Display
	periodic := TicksDiff(s.Now, d.LastAt) > cfg.DisplayRefreshMS
	minuteChanged := s.Clock.Minute != d.LastMinute
	if d.Rendered && !d.Force && !periodic && !minuteChanged {
		return nil
	}
	if periodic || !d.Rendered {
		d.LastAt = s.Now
	}
	d.LastMinute = s.Clock.Minute
	d.Force = false

	frame := buildFrame(s, cfg)
	if d.Rendered && frame == d.Last {
		return nil
	}
	d.Rendered = true
	d.Last = frame
	return []Command{CmdRender{Frame: frame}}
}

func buildFrame(s *DaemonState, cfg ReducerConfig) DisplayFrame {
	f := DisplayFrame{
		AlarmEnabled: s.AlarmEnabled,
		Firing:       s.Beep.Firing,
		SetMode:      s.SetMode,
		Status:       s.Status.String(),
	}
	if s.SetMode {
		f.Time = formatMinutes(s.Position)
		f.Label = labelSetTime
		return f
	}
	f.Time = formatHM(s.Clock.Hour, s.Clock.Minute)
	if s.Status != ClockUnknown {
		f.DateVisible = true
		f.Date = formatDate(s.Clock, cfg.WeekdayNames)
	}
	if s.AlarmEnabled {
		f.Label = labelAlarm
		f.AlarmTime = formatMinutes(s.Position)
	}
	return f
}
