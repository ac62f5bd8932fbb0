package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/devnode/devnoti/pkg/config"
	"github.com/devnode/devnoti/pkg/events"
	"github.com/devnode/devnoti/pkg/powerinfo"
	"github.com/devnode/devnoti/pkg/utils/ptr"
)

func TestBuildStatusJSON(t *testing.T) {
	data := &statusData{
		battery: &powerinfo.Battery{
			Capacity:    64,
			Status:      powerinfo.Charging,
			PowerSource: powerinfo.PowerSourceAC,
			Health:      "Good",
			Present:     true,
		},
		details: &powerinfo.BatteryDetails{ChargeRate: 12345, Voltage: 11.876},
		connections: []powerinfo.Connection{
			{Type: powerinfo.ConnectorUSB, State: "1"},
			{Type: powerinfo.ConnectorHeadphone, State: "0"},
		},
		resync: &powerinfo.ResyncStatus{NextRun: ptr.To(time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC))},
	}
	cfg := config.NewFileFromConfig(&config.RawFileConfig{ResyncSchedule: ptr.To("")}, "")

	out := buildStatusJSON(data, cfg)
	require.NotNil(t, out.Battery)
	require.Equal(t, "charging", out.Battery.State)
	require.Equal(t, 12.3, *out.Battery.ChargeRateWatts)
	require.Equal(t, 11.88, *out.Battery.VoltageVolts)
	require.Len(t, out.Connections, 2)
	require.True(t, out.Connections[0].Connected)
	require.False(t, out.Connections[1].Connected)
	require.Equal(t, "", out.Configuration.ResyncSchedule)
	require.Equal(t, "system", out.Configuration.BusType)
	require.NotNil(t, out.Configuration.NextResync)
	require.Equal(t, 10, out.Configuration.NextResync.Hour())
}

func TestBuildStatusJSONDisabledDevices(t *testing.T) {
	out := buildStatusJSON(&statusData{}, config.NewFileFromConfig(&config.RawFileConfig{}, ""))
	require.Nil(t, out.Battery)

	cmd := &cobra.Command{}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	require.NoError(t, printStatusJSON(cmd, &statusData{}, config.NewFileFromConfig(&config.RawFileConfig{}, "")))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	require.NotContains(t, m, "battery")
	require.Equal(t, []any{}, m["connections"])
	require.NotContains(t, m["configuration"], "nextResync")
}

func TestNextRunText(t *testing.T) {
	require.Equal(t, "disabled", nextRunText(nil))
	require.Equal(t, "disabled", nextRunText(&powerinfo.ResyncStatus{}))

	next := time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC)
	require.Equal(t, next.Local().Format(time.DateTime), nextRunText(&powerinfo.ResyncStatus{NextRun: &next}))
}

func TestFormatEvent(t *testing.T) {
	e, err := events.New(events.ConnectionChanged, events.OriginSignal, powerinfo.Connection{Type: powerinfo.ConnectorHeadphone, State: "1"})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(formatEvent(e), "signal  Headphone connected"), formatEvent(e))

	e, err = events.New(events.BatteryChanged, events.OriginPoll, powerinfo.Battery{Capacity: 9, StatusText: "Discharging", PowerSource: powerinfo.PowerSourceNone})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(formatEvent(e), "poll    battery 9% Discharging, power source none"), formatEvent(e))

	e = events.Event{Name: "other", Origin: events.OriginPoll, Time: time.Now(), Data: json.RawMessage(`{}`)}
	require.True(t, strings.HasSuffix(formatEvent(e), "other {}"))
}
