package hyprland

import (
	"context"
	"fmt"
	"sort"

	"github.com/regimentor/oxidbar/xdg"
	"github.com/rs/zerolog/log"
)

// Compositor lists workspaces and windows. It is satisfied by [*Client].
type Compositor interface {
	Workspaces(ctx context.Context) ([]WorkspaceInfo, error)
	Clients(ctx context.Context) ([]ClientInfo, error)
	ActiveWorkspace(ctx context.Context) (WorkspaceInfo, error)
}

// IconLookup is satisfied by [*xdg.IconResolver].
type IconLookup interface {
	Resolve(identifier string) []string
}

// DesktopLookup is satisfied by [*xdg.DesktopEntryResolver].
type DesktopLookup interface {
	Resolve(class string) (*xdg.DesktopEntry, bool)
}

// Window is a compositor client enriched with its icon and desktop entry.
type Window struct {
	Class        string
	Title        string
	InitialTitle string
	WorkspaceID  int
	IconPaths    []string
	DesktopEntry *xdg.DesktopEntry
}

// Label returns the desktop entry name, or the class when there is none.
func (w *Window) Label() string {
	if w.DesktopEntry != nil && w.DesktopEntry.Name != "" {
		return w.DesktopEntry.Name
	}
	return w.Class
}

func (w *Window) String() string {
	return fmt.Sprintf("class: [%s] title(%s): %s (workspace: %d)", w.Class, w.InitialTitle, w.Title, w.WorkspaceID)
}

type Workspace struct {
	ID          int
	MonitorName string
	MonitorID   *int
	Windows     []*Window
}

// Snapshot is the state of all workspaces at one point in time.
type Snapshot struct {
	Workspaces map[int]*Workspace

	// ActiveID is nil when the active workspace could not be queried.
	ActiveID *int
}

// Sorted returns workspaces in ascending id order.
func (s *Snapshot) Sorted() []*Workspace {
	workspaces := make([]*Workspace, 0, len(s.Workspaces))
	for _, workspace := range s.Workspaces {
		workspaces = append(workspaces, workspace)
	}

	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].ID < workspaces[j].ID
	})

	return workspaces
}

// IsActive reports whether id is the active workspace.
func (s *Snapshot) IsActive(id int) bool {
	return s.ActiveID != nil && *s.ActiveID == id
}

// Snapshotter builds workspace snapshots.
type Snapshotter struct {
	Compositor Compositor
	Icons      IconLookup
	Desktop    DesktopLookup
}

// Snapshot queries workspaces, then windows, then the active workspace.
//
// It fails if workspaces or windows cannot be listed. Windows on unknown
// workspaces are dropped. Failing to query the active workspace is logged
// and leaves ActiveID nil.
func (s *Snapshotter) Snapshot(ctx context.Context) (*Snapshot, error) {
	workspaces, err := s.Compositor.Workspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	snapshot := &Snapshot{Workspaces: make(map[int]*Workspace, len(workspaces))}

	for _, info := range workspaces {
		snapshot.Workspaces[info.ID] = &Workspace{
			ID:          info.ID,
			MonitorName: info.Monitor,
			MonitorID:   info.MonitorID,
			Windows:     []*Window{},
		}
	}

	clients, err := s.Compositor.Clients(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	for _, client := range clients {
		workspace, ok := snapshot.Workspaces[client.Workspace.ID]
		if !ok {
			continue
		}

		workspace.Windows = append(workspace.Windows, s.window(client))
	}

	active, err := s.Compositor.ActiveWorkspace(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to get active workspace")
	} else {
		id := active.ID
		snapshot.ActiveID = &id
	}

	return snapshot, nil
}

func (s *Snapshotter) window(client ClientInfo) *Window {
	window := &Window{
		Class:        client.Class,
		Title:        client.Title,
		InitialTitle: client.InitialTitle,
		WorkspaceID:  client.Workspace.ID,
	}

	iconKey := client.Class

	if s.Desktop != nil {
		if entry, ok := s.Desktop.Resolve(client.Class); ok {
			window.DesktopEntry = entry
			if entry.HasIcon && entry.Icon != "" {
				iconKey = entry.Icon
			}
		}
	}

	if s.Icons != nil && iconKey != "" {
		window.IconPaths = s.Icons.Resolve(iconKey)
		if len(window.IconPaths) == 0 && iconKey != client.Class {
			window.IconPaths = s.Icons.Resolve(client.Class)
		}
	}

	return window
}
