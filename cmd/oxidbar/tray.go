package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/regimentor/oxidbar/bar"
	"github.com/regimentor/oxidbar/systray"
	"github.com/spf13/cobra"
)

func newTrayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "tray",
		Aliases: []string{"ls"},
		Short:   "List tray items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := sessionBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			items, err := systray.NewRegistry(conn, opts.iconResolver()).Items(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list tray items: %w", err)
			}

			return writeTray(cmd.OutOrStdout(), items, bar.NewTrayView(items, nil))
		},
	}
}

func writeTray(w io.Writer, items []*systray.Item, view bar.TrayView) error {
	table := tablewriter.NewWriter(w)
	table.Header("Address", "ID", "Text", "Status", "Menu", "Icon")

	for i, item := range items {
		entry := view.Entries[i]
		err := table.Append([]string{
			entry.Address,
			item.ID,
			entry.Tooltip,
			entry.Status,
			strconv.FormatBool(entry.HasMenu),
			iconColumn(entry.Icon),
		})
		if err != nil {
			return fmt.Errorf("failed to add tray row: %w", err)
		}
	}

	return table.Render()
}

func iconColumn(icon bar.TrayIcon) string {
	switch icon.Kind {
	case bar.IconFile:
		return icon.Path
	case bar.IconPixmap:
		return fmt.Sprintf("pixmap %dx%d", icon.Pixmap.Width, icon.Pixmap.Height)
	default:
		return icon.Letter
	}
}

func newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu ADDRESS",
		Short: "Print the menu of a tray item as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := sessionBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			registry := systray.NewRegistry(conn, nil)

			item, err := registry.Item(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			root, err := registry.Menu(cmd.Context(), item)
			if err != nil {
				return err
			}

			entries := bar.MenuEntries(root)
			if entries == nil {
				entries = []bar.MenuEntry{}
			}

			return writeJSON(cmd.OutOrStdout(), entries)
		},
	}
}

func newClickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "click ADDRESS ID",
		Short: "Activate a menu entry of a tray item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid menu id %q: %w", args[1], err)
			}

			conn, err := sessionBus()
			if err != nil {
				return err
			}
			defer conn.Close()

			registry := systray.NewRegistry(conn, nil)

			item, err := registry.Item(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return registry.Activate(cmd.Context(), item, int32(id))
		},
	}
}
