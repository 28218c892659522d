package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "alarmclock.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadConfigFile_OverlaysDefaults(t *testing.T) {
	p := writeConfig(t, `
encoder:
  initial_position: 420
gpio:
  backend: sim
tone:
  freq_high_hz: 1000
ntp:
  enabled: false
display:
  weekday_names: [Mo, Di, Mi, Do, Fr, Sa, So]
`)
	cfg, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Encoder.InitialPosition != 420 || cfg.Encoder.MaxPosition != defaultMaxPosition {
		t.Errorf("encoder = %+v", cfg.Encoder)
	}
	if cfg.GPIO.Backend != gpioBackendSim || cfg.Tone.HighHz != 1000 || cfg.Tone.LowHz != defaultToneLowHz {
		t.Errorf("gpio/tone = %+v / %+v", cfg.GPIO, cfg.Tone)
	}
	if cfg.NTP.Enabled || cfg.Display.WeekdayNames[1] != "Di" {
		t.Errorf("ntp/display = %+v / %+v", cfg.NTP, cfg.Display)
	}
}

func TestLoadConfigFile_RejectsUnknownFields(t *testing.T) {
	p := writeConfig(t, "encoder:\n  pin_c: 4\n")
	if _, err := LoadConfigFile(p); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadConfigFile_RejectsTrailingDocument(t *testing.T) {
	p := writeConfig(t, "gpio:\n  backend: sim\n---\ngpio:\n  backend: rpio\n")
	if _, err := LoadConfigFile(p); err == nil {
		t.Fatal("expected error for a second document")
	}
}

func TestLoadConfigFile_TrailingDocuments(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"second document with known keys", "gpio:\n  backend: sim\n---\nipc:\n  socket_path: /tmp/x.sock\n", true},
		{"empty mapping document", "gpio:\n  backend: sim\n---\n{}\n", true},
		{"trailing comment only", "gpio:\n  backend: sim\n# done\n", false},
	}
	for _, tt := range tests {
		cfg, err := LoadConfigFile(writeConfig(t, tt.body))
		if tt.wantErr {
			if err == nil || !strings.Contains(err.Error(), "unexpected trailing document") {
				t.Errorf("%s: err=%v, want trailing document error", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if cfg.GPIO.Backend != gpioBackendSim {
			t.Errorf("%s: backend=%q", tt.name, cfg.GPIO.Backend)
		}
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := LoadConfigFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestConfigValidate_Errors(t *testing.T) {
	cases := map[string]struct {
		mut  func(*Config)
		want string
	}{
		"initial above max": {func(c *Config) { c.Encoder.InitialPosition = 2000 }, "initial_position"},
		"poll too slow":     {func(c *Config) { c.Encoder.PollIntervalMS = 100 }, "poll_interval_ms"},
		"shared pins":       {func(c *Config) { c.Encoder.PinB = c.Encoder.PinA }, "distinct"},
		"evdev no device":   {func(c *Config) { c.Switch.Source = "evdev" }, "evdev_device"},
		"bad source":        {func(c *Config) { c.Switch.Source = "usb" }, "switch.source"},
		"long < click":      {func(c *Config) { c.Switch.LongPressSamples = 3 }, "long_press_samples"},
		"bad backend":       {func(c *Config) { c.GPIO.Backend = "sysfs" }, "gpio.backend"},
		"zero tone":         {func(c *Config) { c.Tone.LowHz = 0 }, "freq_low_hz"},
		"ntp no host":       {func(c *Config) { c.NTP.Host = "" }, "ntp.host"},
		"ntp huge period":   {func(c *Config) { c.NTP.PeriodMS = 1 << 31 }, "period_ms"},
		"weekday count":     {func(c *Config) { c.Display.WeekdayNames = []string{"Mon"} }, "weekday_names"},
		"bad port":          {func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		"ws path":           {func(c *Config) { c.HTTP.WSPath = "ws" }, "ws_path"},
		"mdns without http": {func(c *Config) { c.MDNS.Enabled = true; c.HTTP.Port = 0 }, "mdns"},
		"empty socket":      {func(c *Config) { c.IPC.SocketPath = "" }, "socket_path"},
	}
	for name, tc := range cases {
		cfg := DefaultConfig()
		tc.mut(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: error %q does not mention %q", name, err, tc.want)
		}
	}
}

func TestConfigValidate_DisabledSectionsSkipChecks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NTP.Enabled = false
	cfg.NTP.Host = ""
	cfg.Tone.Enabled = false
	cfg.Tone.HighHz = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()
	backend := gpioBackendSim
	port := 0
	ntp := false
	level := "debug"
	FlagOverrides{
		GPIOBackend: &backend,
		HTTPPort:    &port,
		NTPEnabled:  &ntp,
		LogLevel:    &level,
	}.Apply(&cfg)

	if cfg.GPIO.Backend != gpioBackendSim || cfg.HTTP.Port != 0 || cfg.NTP.Enabled || cfg.Logging.Level != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.IPC.SocketPath != defaultSocketPath || cfg.NTP.Host != defaultNTPHost {
		t.Fatalf("unset overrides changed config: %+v", cfg)
	}
}

func TestConfig_ToReducerConfig(t *testing.T) {
	cfg := DefaultConfig()
	rc := cfg.ToReducerConfig()
	if rc.MaxPosition != 1439 || rc.InitialPosition != 360 {
		t.Errorf("positions = %d/%d", rc.MaxPosition, rc.InitialPosition)
	}
	if rc.SwitchSampleMS != 70 || rc.ClickMaxSamples != 15 || rc.LongPressSamples != 72 {
		t.Errorf("switch = %d/%d/%d", rc.SwitchSampleMS, rc.ClickMaxSamples, rc.LongPressSamples)
	}
	if rc.ToneHighHz != 1175 || rc.ToneLowHz != 783 || rc.AlternateMS != 500 {
		t.Errorf("tone = %d/%d/%d", rc.ToneHighHz, rc.ToneLowHz, rc.AlternateMS)
	}
	if rc.DisplayRefreshMS != 300 || !rc.NTPEnabled || rc.NTPPeriodMS != 85987000 {
		t.Errorf("display/ntp = %d/%v/%d", rc.DisplayRefreshMS, rc.NTPEnabled, rc.NTPPeriodMS)
	}
	if cfg.PollInterval().Milliseconds() != 2 || cfg.NTPTimeout().Milliseconds() != 1000 {
		t.Errorf("durations = %s/%s", cfg.PollInterval(), cfg.NTPTimeout())
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cases := map[string]string{
		"":                "",
		"/tmp/x.sock":     "/tmp/x.sock",
		"~":               home,
		"~/alarm.sock":    filepath.Join(home, "alarm.sock"),
		"~other/x":        "~other/x",
		"relative/a.yaml": "relative/a.yaml",
	}
	for in, want := range cases {
		if got := ExpandPath(in); got != want {
			t.Errorf("ExpandPath(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"error":   LogLevelError,
		"WARN":    LogLevelWarn,
		"warning": LogLevelWarn,
		"Info":    LogLevelInfo,
		"debug":   LogLevelDebug,
	} {
		got, err := parseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLogLevel(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := parseLogLevel("trace"); err == nil {
		t.Error("expected error for trace")
	}
}
