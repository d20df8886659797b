package main

import (
	"fmt"

	"github.com/regimentor/oxidbar/bar"
	"github.com/regimentor/oxidbar/hyprland"
	"github.com/spf13/cobra"
)

func newWorkspacesCmd(opts *options) *cobra.Command {
	var target int

	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "Print workspaces and the keyboard layout as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := hyprland.NewClient()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("switch") {
				if err := client.SwitchWorkspace(cmd.Context(), target); err != nil {
					return fmt.Errorf("failed to switch to workspace %d: %w", target, err)
				}
			}

			snapshotter := &hyprland.Snapshotter{
				Compositor: client,
				Icons:      opts.iconResolver(),
				Desktop:    opts.desktopResolver(),
			}

			var view bar.WorkspacesView

			snapshot, err := snapshotter.Snapshot(cmd.Context())
			if err != nil {
				view = bar.WorkspacesError(err)
			} else {
				view = bar.NewWorkspacesView(snapshot)
			}

			layout := ""
			if keymap, err := client.MainKeymap(cmd.Context()); err == nil {
				layout = bar.LayoutFlag(keymap)
			}

			return writeJSON(cmd.OutOrStdout(), struct {
				Workspaces bar.WorkspacesView `json:"workspaces"`
				Layout     string             `json:"layout"`
			}{view, layout})
		},
	}

	cmd.Flags().IntVar(&target, "switch", 0, "Switch to this workspace first")

	return cmd
}
