package main

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/regimentor/oxidbar/internal/config"
	"github.com/regimentor/oxidbar/internal/logging"
	"github.com/regimentor/oxidbar/xdg"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "oxidbar",
		Short:        "Status bar core for Hyprland",
		Long:         "oxidbar tracks workspaces, the system tray, the keyboard layout and audio volume, and emits bar frames as JSON lines.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/oxidbar/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCmd(opts),
		newTrayCmd(opts),
		newMenuCmd(),
		newClickCmd(),
		newWorkspacesCmd(opts),
		newAudioCmd(opts),
		newWatcherCmd(),
	)

	return cmd
}

func (o *options) load(cmd *cobra.Command) error {
	path := o.configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}

	logging.Setup(cfg.LogLevel)
	o.cfg = cfg

	return nil
}

func (o *options) iconResolver() *xdg.IconResolver {
	return xdg.NewIconResolver(xdg.DirRoots(o.cfg.IconDirs...))
}

func (o *options) desktopResolver() *xdg.DesktopEntryResolver {
	return xdg.NewDesktopEntryResolver(xdg.DirRoots(o.cfg.DesktopDirs...))
}

func sessionBus() (*dbus.Conn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}

	return conn, nil
}
