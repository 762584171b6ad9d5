package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/moonframe/pkg/config"
	daemonutils "github.com/charlie0129/moonframe/pkg/utils/daemon"
	"github.com/charlie0129/moonframe/pkg/utils/ptr"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false

	cmd := &cobra.Command{
		Use:         "install",
		Short:       "Install moonframe (system-wide)",
		GroupID:     gInstallation,
		Annotations: offline,
		Long: `Install moonframe daemon as a systemd service.

This makes moonframe run in the background and automatically start on boot. You must run this command as root.

By default, only root user is allowed to access the moonframe daemon. If you want to allow non-root users to access the daemon, you can use the --allow-non-root-access flag, so you don't have to use sudo every time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			conf.Raw().AllowNonRootAccess = ptr.To(allowNonRootAccess)
			if allowNonRootAccess {
				logrus.Info("non-root users are allowed to access the moonframe daemon.")
			} else {
				logrus.Info("only root user is allowed to access the moonframe daemon.")
			}

			// Refuse to install a config the daemon would reject.
			if _, err := conf.Config(); err != nil {
				return err
			}

			err = daemonutils.Install()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v. Are you root?", err)
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("systemd will use current binary (%s) at startup so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run ``moonframe install'' again.\n", exePath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to access moonframe daemon.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "uninstall",
		Short:       "Uninstall moonframe (system-wide)",
		GroupID:     gInstallation,
		Annotations: offline,
		Long: `Uninstall moonframe daemon from systemd.

This stops moonframe and removes its unit. The config file and the clock state are kept.

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

			logrus.Infof("successfully uninstalled moonframe")
			cmd.Printf("Config file %s was kept.\n", configPath)

			return nil
		},
	}

	return cmd
}
