package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devnode/devnoti/pkg/config"
	"github.com/devnode/devnoti/pkg/daemon"
	"github.com/devnode/devnoti/pkg/sigbus"
	daemonutils "github.com/devnode/devnoti/pkg/utils/daemon"
)

type installOptions struct {
	allowNonRootAccess bool
	busType            string
	resyncSchedule     string
	eventHistory       int
}

// applyInstallOptions validates o and stores it in conf. Options whose flag
// was not given (changed reports false) keep the value already in conf.
func applyInstallOptions(conf config.Config, o installOptions, changed func(name string) bool) error {
	if changed("bus-type") {
		if o.busType != string(sigbus.SystemBus) && o.busType != string(sigbus.SessionBus) {
			return fmt.Errorf("invalid bus type %q: must be %s or %s", o.busType, sigbus.SystemBus, sigbus.SessionBus)
		}
		conf.SetBusType(o.busType)
	}

	if changed("resync-schedule") {
		if err := daemon.ValidateSchedule(o.resyncSchedule); err != nil {
			return pkgerrors.Wrapf(err, "invalid resync schedule %q", o.resyncSchedule)
		}
		conf.SetResyncSchedule(o.resyncSchedule)
	}

	if changed("event-history") {
		if o.eventHistory <= 0 {
			return fmt.Errorf("invalid event history %d: must be positive", o.eventHistory)
		}
		conf.SetEventHistory(o.eventHistory)
	}

	conf.SetAllowNonRootAccess(o.allowNonRootAccess)
	return nil
}

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	opts := installOptions{}

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install devnoti (system-wide)",
		GroupID: gInstallation,
		Long: `Install devnoti daemon as a systemd service (system-wide).

This makes devnoti run in the background and automatically start on boot. You must run this command as root.

By default, only root user is allowed to access the devnoti daemon. If you want to allow non-root users to query it, use the --allow-non-root-access flag, so you don't have to use sudo every time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			err = applyInstallOptions(conf, opts, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			if opts.allowNonRootAccess {
				logrus.Info("non-root users are allowed to access the devnoti daemon.")
			} else {
				logrus.Info("only root user is allowed to access the devnoti daemon.")
			}

			// Saved first so the daemon reads it on its first start.
			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			err = daemonutils.Install(configPath, unixSocketPath)
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v. Are you root?", err)
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("`systemd' will use current binary (%s) at startup so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run ``devnoti install'' again.\n", exePath)

			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to access devnoti daemon.")
	f.StringVar(&opts.busType, "bus-type", string(sigbus.SystemBus), "D-Bus daemon to subscribe on (system or session).")
	f.StringVar(&opts.resyncSchedule, "resync-schedule", "@every 5m", "Cron expression for periodic resyncs. Empty disables them.")
	f.IntVar(&opts.eventHistory, "event-history", 64, "Number of change events the daemon keeps.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall devnoti (system-wide)",
		GroupID: gInstallation,
		Long: `Uninstall devnoti daemon from systemd (system-wide).

This stops devnoti and removes its unit.

You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			fmt.Println("successfully uninstalled")

			cmd.Printf("Your config is kept in %s, in case you want to use `devnoti' again. If you want a complete uninstall, you can remove both config file and devnoti itself manually.\n", configPath)

			return nil
		},
	}

	return cmd
}
