package main

import (
	"fmt"
	"log/slog"
)

// DisplayFrame is everything the clock face shows at one moment.
type DisplayFrame struct {
	Time         string `json:"time"`
	Date         string `json:"date"`
	DateVisible  bool   `json:"date_visible"`
	Label        string `json:"label"`
	AlarmTime    string `json:"alarm_time"`
	AlarmEnabled bool   `json:"alarm_enabled"`
	Firing       bool   `json:"firing"`
	SetMode      bool   `json:"set_mode"`
	Status       string `json:"status"`
}

const (
	labelAlarm   = "Alarm"
	labelSetTime = "Set time"
)

func formatHM(hour, minute int) string {
	return fmt.Sprintf("%2d:%02d", hour, minute)
}

// formatMinutes renders minutes past midnight as a clock time.
func formatMinutes(m int) string {
	return formatHM(m/60, m%60)
}

func formatDate(d DateTime, weekdays []string) string {
	name := "???"
	if d.Weekday >= 0 && d.Weekday < len(weekdays) {
		name = weekdays[d.Weekday]
	}
	return fmt.Sprintf("%s %02d.%02d.%04d", name, d.Day, d.Month, d.Year)
}

// Display accepts rendered frames. Render must not block the caller for long.
type Display interface {
	Render(DisplayFrame)
}

// logDisplay writes frames to the log at debug level.
type logDisplay struct {
	logger *slog.Logger
}

func (d logDisplay) Render(f DisplayFrame) {
	d.logger.Debug("display",
		"time", f.Time,
		"date", f.Date,
		"date_visible", f.DateVisible,
		"label", f.Label,
		"alarm", f.AlarmTime,
		"alarm_enabled", f.AlarmEnabled,
		"firing", f.Firing,
	)
}

// multiDisplay fans a frame out to several displays.
type multiDisplay []Display

func (m multiDisplay) Render(f DisplayFrame) {
	for _, d := range m {
		d.Render(f)
	}
}
