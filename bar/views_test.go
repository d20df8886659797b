package bar

import (
	"bytes"
	"errors"
	"testing"

	"github.com/regimentor/oxidbar/hyprland"
	"github.com/regimentor/oxidbar/systray"
	"github.com/regimentor/oxidbar/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int {
	return &i
}

func TestWorkspacesViewOrdering(t *testing.T) {
	snapshot := &hyprland.Snapshot{
		Workspaces: map[int]*hyprland.Workspace{
			3: {ID: 3, MonitorName: "DP-1"},
			1: {ID: 1, MonitorName: "DP-1", Windows: []*hyprland.Window{
				{Class: "firefox", Title: "Mozilla Firefox", IconPaths: []string{"/icons/firefox.png", "/icons/firefox.svg"}},
				{Class: "kitty", DesktopEntry: &xdg.DesktopEntry{Name: "Kitty"}},
			}},
			2: {ID: 2, MonitorName: "HDMI-A-1"},
		},
		ActiveID: intPtr(2),
	}

	view := NewWorkspacesView(snapshot)

	require.Len(t, view.Entries, 3)
	assert.Empty(t, view.Placeholder)

	ids := make([]int, 0, len(view.Entries))
	active := 0
	for _, entry := range view.Entries {
		ids = append(ids, entry.ID)
		if entry.Active {
			active++
			assert.Equal(t, 2, entry.ID)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
	assert.Equal(t, 1, active)

	first := view.Entries[0]
	assert.Equal(t, "1:", first.Label)
	assert.Empty(t, first.Empty)
	require.Len(t, first.Windows, 2)
	assert.Equal(t, WindowEntry{Label: "firefox", Title: "Mozilla Firefox", Icon: "/icons/firefox.png"}, first.Windows[0])
	assert.Equal(t, WindowEntry{Label: "Kitty"}, first.Windows[1])

	assert.Equal(t, EmptyWorkspace, view.Entries[1].Empty)
	assert.Equal(t, "HDMI-A-1", view.Entries[1].Monitor)
}

func TestWorkspacesViewWithoutActive(t *testing.T) {
	snapshot := &hyprland.Snapshot{
		Workspaces: map[int]*hyprland.Workspace{1: {ID: 1}},
	}

	view := NewWorkspacesView(snapshot)

	require.Len(t, view.Entries, 1)
	assert.False(t, view.Entries[0].Active)
}

func TestWorkspacesViewPlaceholder(t *testing.T) {
	for name, snapshot := range map[string]*hyprland.Snapshot{
		"nil":   nil,
		"empty": {Workspaces: map[int]*hyprland.Workspace{}, ActiveID: intPtr(1)},
	} {
		t.Run(name, func(t *testing.T) {
			view := NewWorkspacesView(snapshot)

			assert.Empty(t, view.Entries)
			assert.Equal(t, NoWorkspaces, view.Placeholder)
		})
	}
}

func TestWorkspacesError(t *testing.T) {
	view := WorkspacesError(errors.New("connection refused"))

	assert.Empty(t, view.Entries)
	assert.Equal(t, "request error (connection refused)", view.Placeholder)
}

func TestTrayIconPriority(t *testing.T) {
	pixmap := &systray.Pixmap{Width: 1, Height: 1, Bytes: []byte{0xff, 0, 0, 0}}
	exists := func(path string) bool {
		return path == "/icons/present.png"
	}

	tests := []struct {
		name string
		item systray.Item
		want TrayIcon
	}{
		{
			name: "existing file",
			item: systray.Item{ID: "a", Icon: systray.Icon{IconPaths: []string{"/icons/present.png"}, Pixmap: pixmap}},
			want: TrayIcon{Kind: IconFile, Path: "/icons/present.png"},
		},
		{
			name: "missing file falls back to pixmap",
			item: systray.Item{ID: "a", Icon: systray.Icon{IconPaths: []string{"/icons/gone.png"}, Pixmap: pixmap}},
			want: TrayIcon{Kind: IconPixmap, Pixmap: pixmap},
		},
		{
			name: "only the first path is considered",
			item: systray.Item{ID: "a", Icon: systray.Icon{IconPaths: []string{"/icons/gone.png", "/icons/present.png"}}},
			want: TrayIcon{Kind: IconLetter, Letter: "A"},
		},
		{
			name: "title letter",
			item: systray.Item{ID: "nm-applet", Title: "network", ToolTip: systray.ToolTip{Title: "Wi-Fi"}},
			want: TrayIcon{Kind: IconLetter, Letter: "N"},
		},
		{
			name: "tooltip letter",
			item: systray.Item{ID: "nm-applet", ToolTip: systray.ToolTip{Title: "wi-Fi"}},
			want: TrayIcon{Kind: IconLetter, Letter: "W"},
		},
		{
			name: "non ascii letter",
			item: systray.Item{ID: "ёлка"},
			want: TrayIcon{Kind: IconLetter, Letter: "Ё"},
		},
		{
			name: "nothing at all",
			item: systray.Item{},
			want: TrayIcon{Kind: IconLetter},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trayIcon(&tt.item, exists))
		})
	}
}

func TestTrayView(t *testing.T) {
	items := []*systray.Item{
		{
			ID:          "telegram",
			Status:      systray.StatusActive,
			ToolTip:     systray.ToolTip{Title: "Telegram"},
			MenuPath:    "/MenuBar",
			HasMenuPath: true,
			BusName:     ":1.5",
			ObjectPath:  "/StatusNotifierItem",
		},
		{
			ID:          "broken",
			Status:      systray.StatusPassive,
			MenuPath:    "/",
			HasMenuPath: true,
			BusName:     ":1.9",
			ObjectPath:  "/StatusNotifierItem",
		},
	}

	view := NewTrayView(items, func(string) bool { return false })

	require.Len(t, view.Entries, 2)
	assert.Equal(t, TrayEntry{
		Address: ":1.5/StatusNotifierItem",
		Icon:    TrayIcon{Kind: IconLetter, Letter: "T"},
		Tooltip: "Telegram",
		Status:  "Active",
		HasMenu: true,
	}, view.Entries[0])
	assert.Equal(t, "broken", view.Entries[1].Tooltip)
	assert.False(t, view.Entries[1].HasMenu)
}

func TestLayoutFlag(t *testing.T) {
	tests := map[string]string{
		"Russian":          flagRU,
		"Русская":          flagRU,
		"ru":               flagRU,
		"English (US)":     flagUS,
		"English (UK)":     flagUS,
		"us":               flagUS,
		"French":           "French",
		"German (Austria)": "German (Austria)",
		"":                 "",
	}

	for keymap, want := range tests {
		t.Run(keymap, func(t *testing.T) {
			assert.Equal(t, want, LayoutFlag(keymap))
		})
	}
}

func TestJSONSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf)

	frame := Frame{
		Workspaces: NewWorkspacesView(nil),
		Tray:       TrayView{Entries: []TrayEntry{}},
		Clock:      "Thu 15 Oct 14:03",
		Layout:     flagUS,
		Audio:      NewAudioView(),
	}

	require.NoError(t, sink.Emit(frame))
	require.NoError(t, sink.Emit(frame))

	lines := bytes.Split(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), []byte("\n"))
	require.Len(t, lines, 2)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &decoded))
	assert.Equal(t, "Thu 15 Oct 14:03", decoded["clock"])
	assert.Equal(t, NoWorkspaces, decoded["workspaces"].(map[string]any)["placeholder"])
	assert.Equal(t, "VOL 0%", decoded["audio"].(map[string]any)["label"])
}
