package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("alarmclock v%s\n", version)
	fmt.Println("Rotary-encoder alarm clock daemon with NTP time and CET/CEST handling")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  alarmclock [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Polls a quadrature rotary encoder with push switch to set the alarm")
	fmt.Println("  time, keeps a clock synced over NTP with automatic summer-time shift,")
	fmt.Println("  beeps through a PWM pin when the alarm is due, and publishes the")
	fmt.Println("  clock face over a websocket.")
	fmt.Println()
	fmt.Println("  Click the knob to toggle the alarm. Hold it for more than 5 s to set")
	fmt.Println("  the time by hand, turn to the time, then click to commit.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (optional)")
	fmt.Println()
	fmt.Println("  -gpio string")
	fmt.Printf("        GPIO backend: %s|%s (default %q)\n", gpioBackendRPIO, gpioBackendSim, gpioBackendRPIO)
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Printf("        Unix domain socket path for IPC (default %q)\n", defaultSocketPath)
	fmt.Println()
	fmt.Println("  -http-port int")
	fmt.Printf("        HTTP/websocket listener port, 0 disables (default %d)\n", defaultHTTPPort)
	fmt.Println()
	fmt.Println("  -ntp-host string")
	fmt.Printf("        NTP server host[:port] (default %q)\n", defaultNTPHost)
	fmt.Println()
	fmt.Println("  -ntp")
	fmt.Println("        Enable periodic NTP sync (default true)")
	fmt.Println()
	fmt.Println("  -mdns")
	fmt.Println("        Advertise the websocket endpoint over mDNS (default false)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Run on a Raspberry Pi with the default wiring")
	fmt.Println("  alarmclock -config /etc/alarmclock.yaml")
	fmt.Println()
	fmt.Println("  # Run anywhere with a simulated knob, drive it with alarmctl")
	fmt.Println("  alarmclock -gpio sim -log-level debug")
	fmt.Println("  alarmctl turn 5")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - The rpio backend needs access to /dev/gpiomem; PWM needs /dev/mem (root)")
	fmt.Println("  - Flags override values from the config file")
	fmt.Println()
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		gpioBackend = flag.String("gpio", gpioBackendRPIO, "GPIO backend: rpio|sim")
		ipcSocket   = flag.String("ipc-socket", defaultSocketPath, "Unix domain socket path for IPC")
		httpPort    = flag.Int("http-port", defaultHTTPPort, "HTTP/websocket listener port (0 disables)")
		ntpHost     = flag.String("ntp-host", defaultNTPHost, "NTP server host[:port]")
		ntpEnabled  = flag.Bool("ntp", true, "Enable periodic NTP sync")
		mdnsEnabled = flag.Bool("mdns", false, "Advertise over mDNS")
		logLevelStr = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		_           = flag.Bool("version", false, "Print version and exit")
		_           = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	var ov FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "gpio":
			ov.GPIOBackend = gpioBackend
		case "ipc-socket":
			ov.IPCSocketPath = ipcSocket
		case "http-port":
			ov.HTTPPort = httpPort
		case "ntp-host":
			ov.NTPHost = ntpHost
		case "ntp":
			ov.NTPEnabled = ntpEnabled
		case "mdns":
			ov.MDNSEnabled = mdnsEnabled
		case "log-level":
			ov.LogLevel = logLevelStr
		}
	})
	ov.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(os.Stderr, logLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("alarmclock stopped", "error", err)
		os.Exit(1)
	}
}

// run wires hardware, servers and the daemon loop, and blocks until a signal
// arrives or the loop exits.
func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	board, err := openGPIO(cfg.GPIO.Backend)
	if err != nil {
		return err
	}
	defer board.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	// Stop background goroutines before waiting on them.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	env, err := buildEffectEnv(ctx, &wg, cfg, board, logger)
	if err != nil {
		return err
	}

	actions := make(chan Action, 64)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := runIPCServer(ctx, ExpandPath(cfg.IPC.SocketPath), actions, logger); err != nil {
			logger.Error("IPC server error", "error", err)
		}
	}()

	var displays multiDisplay
	displays = append(displays, logDisplay{logger: logger})

	if cfg.HTTP.Port > 0 {
		wsDisp := newWSDisplay(16)
		displays = append(displays, wsDisp)

		ws := NewStateServer(logger, actions, HubConfig{})
		wg.Add(3)
		go func() {
			defer wg.Done()
			ws.Hub().Run(ctx)
		}()
		go func() {
			defer wg.Done()
			RunBroadcaster(ctx, ws.Hub(), wsDisp.frames, logger)
		}()
		go func() {
			defer wg.Done()
			mux := newHTTPMux(ws, cfg.HTTP.WSPath, actions, logger)
			if err := runHTTPServer(ctx, cfg.HTTP.Port, mux, logger); err != nil {
				logger.Error("http server error", "error", err)
			}
		}()

		if cfg.MDNS.Enabled {
			adv, err := startMDNS(cfg.MDNS, cfg.HTTP.Port, cfg.HTTP.WSPath, logger)
			if err != nil {
				logger.Warn("mdns disabled", "error", err)
			} else {
				defer adv.Stop()
			}
		}
	}
	env.display = displays

	logger.Debug("configuration",
		"gpio", cfg.GPIO.Backend,
		"pins", fmt.Sprintf("a=%d b=%d sw=%d", cfg.Encoder.PinA, cfg.Encoder.PinB, cfg.Encoder.PinSwitch),
		"max_position", cfg.Encoder.MaxPosition,
		"initial_position", cfg.Encoder.InitialPosition,
		"poll_interval_ms", cfg.Encoder.PollIntervalMS,
		"switch_source", cfg.Switch.Source,
		"tone_enabled", cfg.Tone.Enabled,
		"ntp_enabled", cfg.NTP.Enabled,
		"ntp_host", cfg.NTP.Host,
		"http_port", cfg.HTTP.Port,
		"mdns", cfg.MDNS.Enabled)
	logger.Info("alarmclock running", "version", version, "gpio", cfg.GPIO.Backend, "ipc", cfg.IPC.SocketPath, "http_port", cfg.HTTP.Port)

	runDaemon(ctx, actions, env, cfg.ToReducerConfig(), cfg.PollInterval(), logger)

	logger.Info("shutting down")
	return nil
}

// buildEffectEnv opens the encoder lines, the switch source and the tone
// output, and creates the clock and time syncer.
func buildEffectEnv(ctx context.Context, wg *sync.WaitGroup, cfg Config, board GPIO, logger *slog.Logger) (*effectEnv, error) {
	a, err := board.InputPullUp(cfg.Encoder.PinA)
	if err != nil {
		return nil, fmt.Errorf("encoder pin a: %w", err)
	}
	b, err := board.InputPullUp(cfg.Encoder.PinB)
	if err != nil {
		return nil, fmt.Errorf("encoder pin b: %w", err)
	}

	var sw DigitalInput
	switch cfg.Switch.Source {
	case "evdev":
		evsw := newEvdevSwitch(cfg.Switch.EvdevCode)
		sw = evsw
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runEvdevSwitch(ctx, cfg.Switch.EvdevDevice, evsw); err != nil {
				logger.Error("switch input stopped", "device", cfg.Switch.EvdevDevice, "error", err, "tip", "run as root or add user to 'input' group")
			}
		}()
	default:
		sw, err = board.InputPullUp(cfg.Encoder.PinSwitch)
		if err != nil {
			return nil, fmt.Errorf("encoder switch pin: %w", err)
		}
	}

	var knob *SimKnob
	if sim, ok := board.(*simGPIO); ok {
		knob = newSimKnob(sim, cfg.Encoder.PinA, cfg.Encoder.PinB, cfg.Encoder.PinSwitch)
	}

	var tone ToneGenerator = logTone{logger: logger}
	if cfg.Tone.Enabled {
		pwm, err := board.PWM(cfg.Tone.Pin)
		if err != nil {
			return nil, fmt.Errorf("tone pin: %w", err)
		}
		var amp DigitalOutput
		if cfg.Tone.AmpPin >= 0 {
			amp, err = board.Output(cfg.Tone.AmpPin)
			if err != nil {
				return nil, fmt.Errorf("amplifier pin: %w", err)
			}
		}
		tone = newPWMTone(pwm, amp, cfg.Tone.AmpActiveLow)
	}

	start := rtcEpoch
	if cfg.Clock.SeedFromSystem {
		start = DateTimeOf(time.Now()).Time()
	}
	clock := NewLocalClock(newSoftRTC(start, nil))

	var syncer TimeSyncer
	if cfg.NTP.Enabled {
		syncer = newNTPSyncer(cfg.NTP.Host, cfg.NTPTimeout())
	}

	ticks := monotonicTicks{}
	enc := NewQuadratureEncoder(a, b, sw, cfg.Encoder.MaxPosition, cfg.Encoder.InitialPosition, ticks.Now())

	return &effectEnv{
		ctx:     ctx,
		clock:   clock,
		encoder: enc,
		tone:    tone,
		syncer:  syncer,
		knob:    knob,
		ticks:   ticks,
	}, nil
}
