package main

// Linux input event types (from <linux/input.h>)
const (
	EV_KEY = 0x01

	// Default key code for a knob push-switch exposed through gpio-keys.
	KEY_ENTER = 28
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Decoder constants. These define the feel of the knob and are not configurable.
const (
	acquisitionWindowMS = 70 // Speed filter window (ms)
	fastGearThreshold   = 4  // Positions per window above which fast gear kicks in
	fastGearStep        = 60 // Extra jump applied per fast window (one hour)
)

// Defaults
const (
	defaultMaxPosition     = 1439 // 23:59 in minutes
	defaultInitialPosition = 360  // 06:00
	defaultPollIntervalMS  = 2

	defaultPinA      = 12
	defaultPinB      = 13
	defaultPinSwitch = 14

	defaultSwitchSampleMS   = 70
	defaultClickMaxSamples  = 15 // < ~1 s
	defaultLongPressSamples = 72 // > ~5 s

	defaultTonePin      = 18
	defaultToneHighHz   = 1175 // D6
	defaultToneLowHz    = 783  // G5
	defaultAlternateMS  = 500
	defaultAmpPin       = -1
	toneCycleLen        = 32
	toneDutyLen         = toneCycleLen / 2
	defaultDisplayMS    = 300
	defaultNTPHost      = "pool.ntp.org"
	defaultNTPTimeoutMS = 1000
	defaultNTPPeriodMS  = 85987000 // ~23.9 h

	defaultHTTPPort   = 3101
	defaultWSPath     = "/ws"
	defaultSocketPath = "/tmp/alarmclock.sock"

	mdnsServiceType = "_alarmclock._tcp"
	mdnsDomain      = "local"
)

var defaultWeekdayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
