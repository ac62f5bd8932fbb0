package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/devnode/devnoti/pkg/daemon"
	"github.com/devnode/devnoti/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to always allow non-root users to access the devnoti daemon.
	alwaysAllowNonRootAccess = false
	// logFile, when set, sends daemon logs to a rotated file instead of stderr.
	logFile = ""
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "daemon",
		Hidden:  true,
		Short:   "Run devnoti daemon in the foreground",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			if logFile != "" {
				logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
				logrus.SetOutput(&lumberjack.Logger{
					Filename:   logFile,
					MaxSize:    5, // MB
					MaxBackups: 3,
					MaxAge:     7, // days
					Compress:   true,
				})
			}

			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("devnoti daemon starting")
			return daemon.Run(configPath, unixSocketPath, alwaysAllowNonRootAccess)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Always allow non-root users to access the daemon.")
	f.StringVar(&logFile, "log-file", "", "Write logs to this file, rotated by size, instead of stderr.")

	return cmd
}
