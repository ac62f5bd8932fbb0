package main

import (
	"encoding/json"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/devnode/devnoti/pkg/config"
	"github.com/devnode/devnoti/pkg/powerinfo"
)

type statusJSON struct {
	// Battery is omitted when the battery driver is disabled.
	Battery       *statusBatteryJSON    `json:"battery,omitempty"`
	Connections   []statusConnectorJSON `json:"connections"`
	Configuration statusConfigJSON      `json:"configuration"`
}

type statusBatteryJSON struct {
	CapacityPercent int                   `json:"capacityPercent"`
	State           string                `json:"state"`
	PowerSource     powerinfo.PowerSource `json:"powerSource"`
	Health          string                `json:"health"`
	Present         bool                  `json:"present"`
	// The fields below are only set when the generic power supply
	// battery is available.
	ChargeRateWatts *float64 `json:"chargeRateWatts,omitempty"`
	VoltageVolts    *float64 `json:"voltageVolts,omitempty"`
}

type statusConnectorJSON struct {
	Type      powerinfo.ConnectorType `json:"type"`
	State     string                  `json:"state"`
	Connected bool                    `json:"connected"`
}

type statusConfigJSON struct {
	BusType            string     `json:"busType"`
	SysfsRoot          string     `json:"sysfsRoot"`
	EnableBattery      bool       `json:"enableBattery"`
	EnableExtcon       bool       `json:"enableExtcon"`
	ResyncSchedule     string     `json:"resyncSchedule"`
	NextResync         *time.Time `json:"nextResync,omitempty"`
	EventHistory       int        `json:"eventHistory"`
	AllowNonRootAccess bool       `json:"allowNonRootAccess"`
}

// batteryStateString returns a camelCase string for the charge status.
func batteryStateString(s powerinfo.ChargeStatus) string {
	switch s {
	case powerinfo.Charging:
		return "charging"
	case powerinfo.Discharging:
		return "discharging"
	case powerinfo.Full:
		return "full"
	default:
		return "unknown"
	}
}

func buildStatusJSON(data *statusData, cfg config.Config) statusJSON {
	out := statusJSON{
		Connections: make([]statusConnectorJSON, 0, len(data.connections)),
		Configuration: statusConfigJSON{
			BusType:            cfg.BusType(),
			SysfsRoot:          cfg.SysfsRoot(),
			EnableBattery:      cfg.EnableBattery(),
			EnableExtcon:       cfg.EnableExtcon(),
			ResyncSchedule:     cfg.ResyncSchedule(),
			EventHistory:       cfg.EventHistory(),
			AllowNonRootAccess: cfg.AllowNonRootAccess(),
		},
	}

	if data.resync != nil {
		out.Configuration.NextResync = data.resync.NextRun
	}

	if b := data.battery; b != nil {
		out.Battery = &statusBatteryJSON{
			CapacityPercent: b.Capacity,
			State:           batteryStateString(b.Status),
			PowerSource:     b.PowerSource,
			Health:          b.Health,
			Present:         b.Present,
		}
		if d := data.details; d != nil {
			watts := math.Round(d.ChargeRate/1e3*10) / 10
			volts := math.Round(d.Voltage*100) / 100
			out.Battery.ChargeRateWatts = &watts
			out.Battery.VoltageVolts = &volts
		}
	}

	for _, c := range data.connections {
		out.Connections = append(out.Connections, statusConnectorJSON{
			Type:      c.Type,
			State:     c.State,
			Connected: c.Connected(),
		})
	}

	return out
}

func printStatusJSON(cmd *cobra.Command, data *statusData, cfg config.Config) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(buildStatusJSON(data, cfg))
}
