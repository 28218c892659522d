package main

import (
	"context"
	"log/slog"
	"time"
)

// ============================================================================
// Central Daemon Loop - encoder poll + reducer
// ============================================================================
//
//   - The reducer performs no I/O and computes: next state + commands.
//   - This loop is the only place that touches the encoder, clock, tone and
//     display, through runEffect.
//   - Sync results come back on an async channel and are reduced like any
//     other event.
//
// ============================================================================

// runDaemon is the main loop. On every poll it:
//   - advances the simulated knob (sim backend only)
//   - reads the local clock (which applies the summer-time shift)
//   - samples the encoder
//   - reduces a Tick and executes the resulting commands
//
// Actions from IPC and the websocket server are reduced between polls. The
// encoder, clock, tone and display are touched only from this goroutine.
//
// Shutdown semantics:
//   - Exits when ctx is canceled
//   - Exits cleanly when the actions channel is closed
func runDaemon(
	ctx context.Context,
	actions <-chan Action,
	env *effectEnv,
	cfg ReducerConfig,
	pollInterval time.Duration,
	logger *slog.Logger,
) {
	if env == nil || env.encoder == nil || env.clock == nil {
		logger.Error("daemon environment is incomplete")
		return
	}
	if env.ctx == nil {
		env.ctx = ctx
	}
	async := make(chan Event, 4)
	env.async = async

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	state := &DaemonState{}

	var eventQueue []Event
	var cmdQueue []Command

	enqueueEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}

	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := Reduce(state, ev, cfg)
			if rr.State != nil {
				state = rr.State
			}
			cmdQueue = append(cmdQueue, rr.Commands...)
		}
	}

	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			logger.Debug("effect", "command", cmd.String())
			runEffect(env, cmd, logger, enqueueEvent)

			// Results are reduced promptly so follow-up commands run in order.
			flushEvents()
		}
	}

	step := func(ev Event) {
		enqueueEvent(ev)
		flushEvents()
		flushCommands()
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			if state.Beep.Firing && !state.Beep.Muted {
				if err := env.tone.Stop(); err != nil {
					logger.Error("tone stop failed", "error", err)
				}
			}
			return

		case act, ok := <-actions:
			if !ok {
				logger.Info("daemon stopping (actions channel closed)")
				return
			}
			step(act)

		case ev := <-async:
			step(ev)

		case <-ticker.C:
			now := env.ticks.Now()
			if env.knob != nil {
				env.knob.Step(now)
			}
			clk, status := env.clock.Read()
			env.encoder.Update(now)
			step(Tick{
				Ticks:         now,
				Clock:         clk,
				Status:        status,
				Position:      env.encoder.Position(),
				SwitchPressed: env.encoder.SwitchPressed(),
			})
		}
	}
}
