package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devnode/devnoti/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewEventsCommand() *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:     "events",
		GroupID: gBasic,
		Short:   "List recent state change events",
		Long: `List the state change events recorded by the daemon, oldest first.

Events carry their origin: "signal" for changes delivered over D-Bus and "poll" for changes found when the daemon re-read the hardware attributes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var t time.Time
			if since > 0 {
				t = time.Now().Add(-since)
			}

			evs, err := apiClient.GetEvents(t)
			if err != nil {
				return fmt.Errorf("failed to get events: %w", err)
			}

			if len(evs) == 0 {
				cmd.Println("No events recorded.")
				return nil
			}
			for _, e := range evs {
				cmd.Println(formatEvent(e))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "Only show events newer than this, e.g. 10m. 0 shows all.")

	return cmd
}

func NewResyncCommand() *cobra.Command {
	skipNext := false

	cmd := &cobra.Command{
		Use:     "resync",
		GroupID: gAdvanced,
		Short:   "Re-read all device attributes now",
		Long: `Make the daemon re-read every device attribute immediately.

Differences from the last known state are recorded as poll events. The daemon also does this periodically according to resyncSchedule in the config. Use --skip-next to skip the next periodic run instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if skipNext {
				st, err := apiClient.SkipResync()
				if err != nil {
					return err
				}
				cmd.Printf("Next resync: %s\n", bold("%s", nextRunText(st)))
				return nil
			}

			snap, err := apiClient.Resync()
			if err != nil {
				return err
			}
			printSnapshot(cmd, snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipNext, "skip-next", false, "Skip the next scheduled resync instead of resyncing now.")

	return cmd
}
