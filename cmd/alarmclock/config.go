package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the alarmclock daemon.
//
// Keep defaults and validation centralized so the rest of the code can assume
// a well-formed config.
type Config struct {
	Encoder EncoderConfig `yaml:"encoder"`
	Switch  SwitchConfig  `yaml:"switch"`
	GPIO    GPIOConfig    `yaml:"gpio"`
	Tone    ToneConfig    `yaml:"tone"`
	NTP     NTPConfig     `yaml:"ntp"`
	Clock   ClockConfig   `yaml:"clock"`
	Display DisplayConfig `yaml:"display"`
	HTTP    HTTPConfig    `yaml:"http"`
	MDNS    MDNSConfig    `yaml:"mdns"`
	IPC     IPCConfig     `yaml:"ipc"`
	Logging LoggingConfig `yaml:"logging"`
}

type EncoderConfig struct {
	PinA            int `yaml:"pin_a"`
	PinB            int `yaml:"pin_b"`
	PinSwitch       int `yaml:"pin_switch"`
	MaxPosition     int `yaml:"max_position"`
	InitialPosition int `yaml:"initial_position"`
	PollIntervalMS  int `yaml:"poll_interval_ms"`
}

type SwitchConfig struct {
	Source           string `yaml:"source"` // "gpio" or "evdev"
	SampleMS         int    `yaml:"sample_period_ms"`
	ClickMaxSamples  int    `yaml:"click_max_samples"`
	LongPressSamples int    `yaml:"long_press_samples"`
	EvdevDevice      string `yaml:"evdev_device,omitempty"`
	EvdevCode        int    `yaml:"evdev_code,omitempty"`
}

type GPIOConfig struct {
	Backend string `yaml:"backend"` // "rpio" or "sim"
}

type ToneConfig struct {
	Enabled      bool `yaml:"enabled"`
	Pin          int  `yaml:"pin"`
	AmpPin       int  `yaml:"amp_pin"` // -1 = not wired
	AmpActiveLow bool `yaml:"amp_active_low"`
	HighHz       int  `yaml:"freq_high_hz"`
	LowHz        int  `yaml:"freq_low_hz"`
	AlternateMS  int  `yaml:"alternate_ms"`
}

type NTPConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	TimeoutMS int    `yaml:"timeout_ms"`
	PeriodMS  int    `yaml:"period_ms"`
}

type ClockConfig struct {
	SeedFromSystem bool `yaml:"seed_from_system"`
}

type DisplayConfig struct {
	RefreshMS    int      `yaml:"refresh_ms"`
	WeekdayNames []string `yaml:"weekday_names"`
}

type HTTPConfig struct {
	Port   int    `yaml:"port"` // 0 disables the server
	WSPath string `yaml:"ws_path"`
}

type MDNSConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Instance  string `yaml:"instance,omitempty"`
	Interface string `yaml:"interface,omitempty"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go.
func DefaultConfig() Config {
	return Config{
		Encoder: EncoderConfig{
			PinA:            defaultPinA,
			PinB:            defaultPinB,
			PinSwitch:       defaultPinSwitch,
			MaxPosition:     defaultMaxPosition,
			InitialPosition: defaultInitialPosition,
			PollIntervalMS:  defaultPollIntervalMS,
		},
		Switch: SwitchConfig{
			Source:           "gpio",
			SampleMS:         defaultSwitchSampleMS,
			ClickMaxSamples:  defaultClickMaxSamples,
			LongPressSamples: defaultLongPressSamples,
			EvdevCode:        KEY_ENTER,
		},
		GPIO: GPIOConfig{
			Backend: gpioBackendRPIO,
		},
		Tone: ToneConfig{
			Enabled:      true,
			Pin:          defaultTonePin,
			AmpPin:       defaultAmpPin,
			AmpActiveLow: true,
			HighHz:       defaultToneHighHz,
			LowHz:        defaultToneLowHz,
			AlternateMS:  defaultAlternateMS,
		},
		NTP: NTPConfig{
			Enabled:   true,
			Host:      defaultNTPHost,
			TimeoutMS: defaultNTPTimeoutMS,
			PeriodMS:  defaultNTPPeriodMS,
		},
		Display: DisplayConfig{
			RefreshMS:    defaultDisplayMS,
			WeekdayNames: append([]string(nil), defaultWeekdayNames...),
		},
		HTTP: HTTPConfig{
			Port:   defaultHTTPPort,
			WSPath: defaultWSPath,
		},
		IPC: IPCConfig{
			SocketPath: defaultSocketPath,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of the defaults.
// Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides holds flag values that override the config file. Each
// override is only applied if its pointer is non-nil; main.go decides which
// flags exist and sets only those given on the command line.
type FlagOverrides struct {
	GPIOBackend   *string
	IPCSocketPath *string
	HTTPPort      *int
	NTPHost       *string
	NTPEnabled    *bool
	MDNSEnabled   *bool
	LogLevel      *string
}

// Apply merges the overrides into cfg. If the pointer is non-nil, the value is
// applied (even if it is a zero value).
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.GPIOBackend != nil {
		cfg.GPIO.Backend = *o.GPIOBackend
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.HTTPPort != nil {
		cfg.HTTP.Port = *o.HTTPPort
	}
	if o.NTPHost != nil {
		cfg.NTP.Host = *o.NTPHost
	}
	if o.NTPEnabled != nil {
		cfg.NTP.Enabled = *o.NTPEnabled
	}
	if o.MDNSEnabled != nil {
		cfg.MDNS.Enabled = *o.MDNSEnabled
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Encoder
	e := c.Encoder
	if e.MaxPosition <= 0 {
		return errors.New("encoder.max_position must be > 0")
	}
	if e.InitialPosition < 0 || e.InitialPosition > e.MaxPosition {
		return fmt.Errorf("encoder.initial_position must be between 0 and %d", e.MaxPosition)
	}
	if e.PollIntervalMS <= 0 || e.PollIntervalMS > acquisitionWindowMS {
		return fmt.Errorf("encoder.poll_interval_ms must be between 1 and %d", acquisitionWindowMS)
	}
	if e.PinA == e.PinB || e.PinA == e.PinSwitch || e.PinB == e.PinSwitch {
		return errors.New("encoder.pin_a, pin_b and pin_switch must be distinct")
	}

	// Switch
	switch c.Switch.Source {
	case "gpio":
	case "evdev":
		if c.Switch.EvdevDevice == "" {
			return errors.New("switch.source is evdev but switch.evdev_device is empty")
		}
	default:
		return fmt.Errorf("switch.source must be %q or %q", "gpio", "evdev")
	}
	if c.Switch.SampleMS <= 0 {
		return errors.New("switch.sample_period_ms must be > 0")
	}
	if c.Switch.ClickMaxSamples <= 0 {
		return errors.New("switch.click_max_samples must be > 0")
	}
	if c.Switch.LongPressSamples < c.Switch.ClickMaxSamples {
		return errors.New("switch.long_press_samples must be >= switch.click_max_samples")
	}

	// GPIO
	if c.GPIO.Backend != gpioBackendRPIO && c.GPIO.Backend != gpioBackendSim {
		return fmt.Errorf("gpio.backend must be %q or %q", gpioBackendRPIO, gpioBackendSim)
	}

	// Tone
	if c.Tone.Enabled {
		if c.Tone.HighHz <= 0 || c.Tone.LowHz <= 0 {
			return errors.New("tone.freq_high_hz and tone.freq_low_hz must be > 0")
		}
		if c.Tone.AlternateMS <= 0 {
			return errors.New("tone.alternate_ms must be > 0")
		}
	}

	// NTP
	if c.NTP.Enabled {
		if c.NTP.Host == "" {
			return errors.New("ntp.enabled is true but ntp.host is empty")
		}
		if c.NTP.TimeoutMS <= 0 {
			return errors.New("ntp.timeout_ms must be > 0")
		}
		// Ticks comparisons are only valid below 2^31 ms.
		if c.NTP.PeriodMS <= 0 || int64(c.NTP.PeriodMS) >= 1<<31 {
			return errors.New("ntp.period_ms must be > 0 and below 2147483648")
		}
	}

	// Display
	if c.Display.RefreshMS <= 0 {
		return errors.New("display.refresh_ms must be > 0")
	}
	if len(c.Display.WeekdayNames) != 7 {
		return fmt.Errorf("display.weekday_names must have 7 entries, got %d", len(c.Display.WeekdayNames))
	}

	// HTTP
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port must be between 0 and 65535")
	}
	if c.HTTP.WSPath == "" || c.HTTP.WSPath[0] != '/' {
		return errors.New("http.ws_path must start with /")
	}
	if c.MDNS.Enabled && c.HTTP.Port == 0 {
		return errors.New("mdns.enabled requires http.port")
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// Logging
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	return nil
}

// ToReducerConfig extracts the reducer's view of the config.
func (c *Config) ToReducerConfig() ReducerConfig {
	return ReducerConfig{
		MaxPosition:      c.Encoder.MaxPosition,
		InitialPosition:  c.Encoder.InitialPosition,
		SwitchSampleMS:   int32(c.Switch.SampleMS),
		ClickMaxSamples:  c.Switch.ClickMaxSamples,
		LongPressSamples: c.Switch.LongPressSamples,
		ToneHighHz:       c.Tone.HighHz,
		ToneLowHz:        c.Tone.LowHz,
		AlternateMS:      int32(c.Tone.AlternateMS),
		DisplayRefreshMS: int32(c.Display.RefreshMS),
		WeekdayNames:     c.Display.WeekdayNames,
		NTPEnabled:       c.NTP.Enabled,
		NTPPeriodMS:      int32(c.NTP.PeriodMS),
	}
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Encoder.PollIntervalMS) * time.Millisecond
}

func (c *Config) NTPTimeout() time.Duration {
	return time.Duration(c.NTP.TimeoutMS) * time.Millisecond
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
