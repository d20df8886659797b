package bar

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/regimentor/oxidbar/systray"
)

// IconKind is how a tray entry is drawn.
type IconKind string

const (
	IconFile   IconKind = "file"
	IconPixmap IconKind = "pixmap"
	IconLetter IconKind = "letter"
)

type TrayIcon struct {
	Kind   IconKind        `json:"kind"`
	Path   string          `json:"path,omitempty"`
	Pixmap *systray.Pixmap `json:"pixmap,omitempty"`
	Letter string          `json:"letter,omitempty"`
}

type TrayEntry struct {
	Address string   `json:"address"`
	Icon    TrayIcon `json:"icon"`
	Tooltip string   `json:"tooltip"`
	Status  string   `json:"status"`
	HasMenu bool     `json:"has_menu"`
}

// TrayView lists tray items in watcher order.
type TrayView struct {
	Entries []TrayEntry `json:"entries"`
}

// FileExists reports whether path names an existing file.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// NewTrayView builds the view of items. exists decides whether an icon file
// can be used; nil means [FileExists].
func NewTrayView(items []*systray.Item, exists func(string) bool) TrayView {
	if exists == nil {
		exists = FileExists
	}

	entries := make([]TrayEntry, 0, len(items))

	for _, item := range items {
		entries = append(entries, TrayEntry{
			Address: item.Address(),
			Icon:    trayIcon(item, exists),
			Tooltip: trayText(item),
			Status:  string(item.Status),
			HasMenu: item.HasMenu(),
		})
	}

	return TrayView{Entries: entries}
}

// trayIcon prefers the first icon file if it exists, then the pixmap, then
// the first letter of the item's text.
func trayIcon(item *systray.Item, exists func(string) bool) TrayIcon {
	if len(item.Icon.IconPaths) > 0 && exists(item.Icon.IconPaths[0]) {
		return TrayIcon{Kind: IconFile, Path: item.Icon.IconPaths[0]}
	}

	if item.Icon.Pixmap != nil {
		return TrayIcon{Kind: IconPixmap, Pixmap: item.Icon.Pixmap}
	}

	return TrayIcon{Kind: IconLetter, Letter: firstLetter(trayText(item))}
}

// trayText returns title, else tooltip title, else id.
func trayText(item *systray.Item) string {
	switch {
	case item.Title != "":
		return item.Title
	case item.ToolTip.Title != "":
		return item.ToolTip.Title
	default:
		return item.ID
	}
}

func firstLetter(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return ""
	}

	return strings.ToUpper(string(r))
}
