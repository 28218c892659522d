package main

import (
	"context"
	"log/slog"
)

// effectEnv is everything runEffect may touch. All fields except syncer are
// owned by the daemon goroutine.
type effectEnv struct {
	ctx     context.Context
	clock   *LocalClock
	encoder *QuadratureEncoder
	tone    ToneGenerator
	display Display
	syncer  TimeSyncer // nil when ntp is disabled
	knob    *SimKnob   // nil unless the sim backend is active
	ticks   TickSource

	// async receives events produced outside the daemon goroutine (sync results).
	async chan<- Event
}

// runEffect executes a single reducer-emitted Command and emits any resulting
// Event via onEvent.
//
// Design rules:
// - This function is allowed to perform I/O.
// - It must never call Reduce() directly; it only emits Events to be reduced by the daemon loop.
// - Blocking work (the network sync) runs in its own goroutine and reports through env.async.
func runEffect(env *effectEnv, cmd Command, logger *slog.Logger, onEvent func(Event)) {
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	fail := func(err error) {
		onEvent(CommandFailed{Command: cmd, Err: err})
	}

	switch c := cmd.(type) {
	case CmdSyncTime:
		if env.syncer == nil {
			// Report as a completed sync so the reducer clears InFlight.
			onEvent(TimeSyncCompleted{Err: errNoSyncer{}})
			return
		}
		go runSync(env.ctx, env.syncer, env.async, logger)

	case CmdApplyTimeSync:
		env.clock.Apply(c.DateTime, c.Status)
		logger.Info("clock synced", "time", c.DateTime.String(), "status", c.Status.String())

	case CmdMarkClockUnknown:
		env.clock.MarkUnknown()

	case CmdSetClockManual:
		env.clock.SetManual(c.Minutes)
		logger.Info("clock set manually", "time", formatMinutes(c.Minutes))

	case CmdResetEncoder:
		env.encoder.Reset()

	case CmdSetEncoderPosition:
		env.encoder.Set(c.Position)

	case CmdToneStart:
		if err := env.tone.Start(c.FreqHz); err != nil {
			logger.Error("tone start failed", "error", err, "freq_hz", c.FreqHz)
			fail(err)
			return
		}
		logger.Info("alarm firing", "freq_hz", c.FreqHz)

	case CmdToneFrequency:
		if err := env.tone.SetFrequency(c.FreqHz); err != nil {
			logger.Error("tone frequency failed", "error", err, "freq_hz", c.FreqHz)
			fail(err)
		}

	case CmdToneStop:
		if err := env.tone.Stop(); err != nil {
			logger.Error("tone stop failed", "error", err)
			fail(err)
			return
		}
		logger.Info("alarm stopped")

	case CmdRender:
		if env.display != nil {
			env.display.Render(c.Frame)
		}

	case CmdSimTurn:
		if env.knob == nil {
			fail(errNoSimulator{})
			return
		}
		env.knob.Turn(c.Detents)

	case CmdSimPress:
		if env.knob == nil {
			fail(errNoSimulator{})
			return
		}
		env.knob.Press(env.ticks.Now(), c.HoldMS)

	case CmdPublishStateSnapshot:
		if c.Reply == nil {
			logger.Warn("state snapshot requested with nil reply channel")
			return
		}

		// Never block the daemon loop.
		select {
		case c.Reply <- c.Snapshot:
		default:
			logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	default:
		logger.Warn("unknown command type", "command", cmd.String())
		fail(errUnknownCommand{cmd: cmd})
	}
}

func runSync(ctx context.Context, syncer TimeSyncer, out chan<- Event, logger *slog.Logger) {
	dt, status, err := syncer.Sync(ctx)
	if err != nil {
		logger.Warn("time sync failed", "error", err)
	}
	select {
	case out <- TimeSyncCompleted{DateTime: dt, Status: status, Err: err}:
	case <-ctx.Done():
	}
}

// ==============================
// Effect errors
// ==============================

type errNoSyncer struct{}

func (errNoSyncer) Error() string { return "no time syncer configured" }

type errNoSimulator struct{}

func (errNoSimulator) Error() string { return "simulated input requires gpio.backend: sim" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }
