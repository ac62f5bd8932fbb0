package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/devnode/devnoti/pkg/events"
	"github.com/devnode/devnoti/pkg/powerinfo"
)

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

func statusText(s powerinfo.ChargeStatus) string {
	switch s {
	case powerinfo.Charging:
		return color.GreenString("charging")
	case powerinfo.Discharging:
		return color.RedString("discharging")
	case powerinfo.Full:
		return "full"
	default:
		return "unknown"
	}
}

// formatEvent renders e on one line.
func formatEvent(e events.Event) string {
	prefix := fmt.Sprintf("%s  %-6s  ", e.Time.Local().Format(time.DateTime), e.Origin)

	switch e.Name {
	case events.BatteryChanged:
		b, err := events.DecodeAs[powerinfo.Battery](e)
		if err != nil {
			break
		}
		return prefix + fmt.Sprintf("battery %d%% %s, power source %s", b.Capacity, b.StatusText, b.PowerSource)
	case events.ConnectionChanged:
		c, err := events.DecodeAs[powerinfo.Connection](e)
		if err != nil {
			break
		}
		return prefix + fmt.Sprintf("%s %s", c.Type, connectedText(c))
	}
	return prefix + fmt.Sprintf("%s %s", e.Name, string(e.Data))
}

func connectedText(c powerinfo.Connection) string {
	if c.Connected() {
		return "connected"
	}
	return "disconnected"
}

func nextRunText(st *powerinfo.ResyncStatus) string {
	if st == nil || st.NextRun == nil {
		return "disabled"
	}
	return st.NextRun.Local().Format(time.DateTime)
}
