package main

import (
	"github.com/regimentor/oxidbar/systray"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatcherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watcher",
		Short: "Run a StatusNotifierWatcher until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := sessionBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			watcher := systray.NewWatcher(conn)
			if err := watcher.Listen(); err != nil {
				return err
			}
			defer watcher.Close()

			<-cmd.Context().Done()
			log.Info().Msg("stopping status notifier watcher")

			return nil
		},
	}
}
