// Package bar turns compositor, tray and audio state into UI-ready models and
// drives their updates from a single loop.
package bar

import (
	"fmt"

	"github.com/regimentor/oxidbar/hyprland"
)

const (
	// NoWorkspaces is shown when the compositor reports no workspaces.
	NoWorkspaces = "no active workspaces"

	// EmptyWorkspace stands for a workspace without windows.
	EmptyWorkspace = "-"
)

type WindowEntry struct {
	Label string `json:"label"`
	Title string `json:"title,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type WorkspaceEntry struct {
	ID      int           `json:"id"`
	Label   string        `json:"label"`
	Active  bool          `json:"active"`
	Monitor string        `json:"monitor,omitempty"`
	Empty   string        `json:"empty,omitempty"`
	Windows []WindowEntry `json:"windows"`
}

// WorkspacesView lists workspaces in ascending id order. Placeholder is set
// instead of entries when there is nothing to show.
type WorkspacesView struct {
	Entries     []WorkspaceEntry `json:"entries"`
	Placeholder string           `json:"placeholder,omitempty"`
}

// NewWorkspacesView builds the view of a snapshot. At most one entry is
// active, the one matching the snapshot's active id.
func NewWorkspacesView(snapshot *hyprland.Snapshot) WorkspacesView {
	if snapshot == nil || len(snapshot.Workspaces) == 0 {
		return WorkspacesView{Entries: []WorkspaceEntry{}, Placeholder: NoWorkspaces}
	}

	sorted := snapshot.Sorted()
	entries := make([]WorkspaceEntry, 0, len(sorted))

	for _, workspace := range sorted {
		entry := WorkspaceEntry{
			ID:      workspace.ID,
			Label:   fmt.Sprintf("%d:", workspace.ID),
			Active:  snapshot.IsActive(workspace.ID),
			Monitor: workspace.MonitorName,
			Windows: make([]WindowEntry, 0, len(workspace.Windows)),
		}

		if len(workspace.Windows) == 0 {
			entry.Empty = EmptyWorkspace
		}

		for _, window := range workspace.Windows {
			windowEntry := WindowEntry{
				Label: window.Label(),
				Title: window.Title,
			}

			if len(window.IconPaths) > 0 {
				windowEntry.Icon = window.IconPaths[0]
			}

			entry.Windows = append(entry.Windows, windowEntry)
		}

		entries = append(entries, entry)
	}

	return WorkspacesView{Entries: entries}
}

// WorkspacesError is the view shown when the compositor cannot be queried.
func WorkspacesError(err error) WorkspacesView {
	return WorkspacesView{
		Entries:     []WorkspaceEntry{},
		Placeholder: fmt.Sprintf("request error (%v)", err),
	}
}
