package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devnode/devnoti/pkg/client"
	"github.com/devnode/devnoti/pkg/config"
	"github.com/devnode/devnoti/pkg/powerinfo"
)

type statusData struct {
	battery     *powerinfo.Battery
	details     *powerinfo.BatteryDetails
	connections []powerinfo.Connection
	resync      *powerinfo.ResyncStatus
	config      *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
// Devices disabled in the daemon config are left nil.
func fetchStatusData() (*statusData, error) {
	data := &statusData{}

	bat, err := apiClient.GetBattery()
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return nil, fmt.Errorf("failed to get battery state: %w", err)
	}
	data.battery = bat

	conns, err := apiClient.GetConnections()
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return nil, fmt.Errorf("failed to get connections: %w", err)
	}
	data.connections = conns

	// Not every system has a generic power supply battery. Leave it out.
	details, err := apiClient.GetBatteryDetails()
	if err == nil {
		data.details = details
	}

	resync, err := apiClient.GetResyncStatus()
	if err == nil {
		data.resync = resync
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	data.config = conf

	return data, nil
}

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current battery and connector state",
		Long:    `Get the current battery state, external connector state, and daemon configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			conf := config.NewFileFromConfig(data.config, "")

			if asJSON {
				return printStatusJSON(cmd, data, conf)
			}

			// Battery.
			cmd.Println(bold("Battery status:"))
			if data.battery == nil {
				cmd.Println("  Battery driver is disabled.")
			} else {
				printBattery(cmd, data.battery)
			}
			if d := data.details; d != nil {
				cmd.Printf("  Full capacity: %s\n", bold("%.0f mWh", d.Full))
				cmd.Printf("  Charge rate: %s\n", bold("%+.1f W", d.ChargeRate/1e3))
				cmd.Printf("  Voltage: %s\n", bold("%.2f V", d.Voltage))
			}

			cmd.Println()

			// Connectors.
			cmd.Println(bold("External connectors:"))
			if data.connections == nil {
				cmd.Println("  External connection driver is disabled.")
			}
			for _, c := range data.connections {
				printConnection(cmd, c)
			}

			cmd.Println()

			// Config.
			cmd.Println(bold("Daemon configuration:"))
			cmd.Printf("  Bus: %s\n", bold("%s", conf.BusType()))
			cmd.Printf("  Attribute root: %s\n", bold("%s", conf.SysfsRoot()))
			cmd.Printf("  Battery driver: %s\n", bool2Text(conf.EnableBattery()))
			cmd.Printf("  External connection driver: %s\n", bool2Text(conf.EnableExtcon()))
			resync := conf.ResyncSchedule()
			if resync == "" {
				resync = "disabled"
			}
			cmd.Printf("  Resync schedule: %s\n", bold("%s", resync))
			if data.resync != nil {
				cmd.Printf("  Next resync: %s\n", bold("%s", nextRunText(data.resync)))
			}
			cmd.Printf("  Event history: %s\n", bold("%d", conf.EventHistory()))
			cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(conf.AllowNonRootAccess()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON.")

	return cmd
}

func printBattery(cmd *cobra.Command, b *powerinfo.Battery) {
	cmd.Printf("  Capacity: %s\n", bold("%d%%", b.Capacity))
	cmd.Printf("  State: %s\n", bold("%s", statusText(b.Status)))
	cmd.Printf("  Power source: %s\n", bold("%s", b.PowerSource))
	cmd.Printf("  Health: %s\n", bold("%s", b.Health))
	cmd.Printf("  Present: %s\n", bool2Text(b.Present))
}

func printConnection(cmd *cobra.Command, c powerinfo.Connection) {
	cmd.Printf("  %s: %s\n", c.Type, bool2Text(c.Connected()))
}

func printSnapshot(cmd *cobra.Command, snap *powerinfo.Snapshot) {
	cmd.Println(bold("Battery status:"))
	if snap.Battery == nil {
		cmd.Println("  Unknown.")
	} else {
		printBattery(cmd, snap.Battery)
	}
	cmd.Println()
	cmd.Println(bold("External connectors:"))
	for _, c := range snap.Connections {
		printConnection(cmd, c)
	}
}
