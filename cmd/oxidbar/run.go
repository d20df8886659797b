package main

import (
	"context"
	"io"

	"github.com/godbus/dbus/v5"
	"github.com/regimentor/oxidbar/audio"
	"github.com/regimentor/oxidbar/bar"
	"github.com/regimentor/oxidbar/clock"
	"github.com/regimentor/oxidbar/hyprland"
	"github.com/regimentor/oxidbar/systray"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const clientName = "oxidbar"

func newRunCmd(opts *options) *cobra.Command {
	var (
		watcher bool
		pattern string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Emit bar frames as JSON lines until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("watcher") {
				cfg.Watcher = watcher
			}
			if cmd.Flags().Changed("clock") {
				cfg.Clock = pattern
			}

			return runBar(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&watcher, "watcher", false, "Run a StatusNotifierWatcher if the session has none")
	cmd.Flags().StringVar(&pattern, "clock", clock.DefaultPattern, "strftime pattern of the clock")

	return cmd
}

func runBar(ctx context.Context, opts *options, out io.Writer) error {
	cfg := opts.cfg
	icons := opts.iconResolver()

	sources := bar.Sources{
		Clock:      clock.New(cfg.Clock),
		IconExists: bar.FileExists,
	}

	compositor, err := hyprland.NewClient()
	if err != nil {
		log.Warn().Err(err).Msg("compositor is unavailable, workspaces are disabled")
	} else {
		sources.Workspaces = &hyprland.Snapshotter{
			Compositor: compositor,
			Icons:      icons,
			Desktop:    opts.desktopResolver(),
		}
		sources.Events = compositor
		sources.Keymap = compositor
	}

	conn, err := sessionBus()
	if err != nil {
		log.Warn().Err(err).Msg("tray is disabled")
	} else {
		defer conn.Close()

		if cfg.Watcher {
			if watcher := startWatcher(conn); watcher != nil {
				defer watcher.Close()
			}
		}

		host := systray.NewHost(conn)
		if err := host.Listen(); err != nil {
			log.Warn().Err(err).Msg("tray host is not registered, polling only")
		} else {
			defer host.Close()
			sources.TrayChanges = host.Changes()
		}

		sources.Tray = systray.NewRegistry(conn, icons)
	}

	events := make(chan audio.Event, 64)
	sources.Mixer = audio.NewMixer(audio.NewPulseBackend(clientName, cfg.PulseServer), events)
	sources.AudioEvents = events

	return bar.NewRunner(sources, cfg.BarIntervals(), bar.NewJSONSink(out)).Run(ctx)
}

// startWatcher runs the built-in watcher unless another process owns the
// name already.
func startWatcher(conn *dbus.Conn) *systray.Watcher {
	watcher := systray.NewWatcher(conn)
	if err := watcher.Listen(); err != nil {
		log.Info().Err(err).Msg("using the existing status notifier watcher")
		return nil
	}

	return watcher
}
