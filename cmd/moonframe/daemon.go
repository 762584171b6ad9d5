package main

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/moonframe/pkg/daemon"
	"github.com/charlie0129/moonframe/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to always allow non-root users to access the moonframe daemon.
	alwaysAllowNonRootAccess = false
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "daemon",
		Hidden:      true,
		Short:       "Run moonframe daemon in the foreground",
		GroupID:     gAdvanced,
		Annotations: offline,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("moonframe daemon starting")

			err := daemon.Run(configPath, unixSocketPath, alwaysAllowNonRootAccess)
			if errors.Is(err, daemon.ErrLowPower) {
				// The board is already off. Nothing else to do.
				logrus.Warn(err)
				return nil
			}
			return err
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Always allow non-root users to access the daemon.")

	return cmd
}
