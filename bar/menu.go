package bar

import (
	"strings"

	"github.com/regimentor/oxidbar/systray"
)

type EntryKind string

const (
	EntryAction    EntryKind = "action"
	EntrySeparator EntryKind = "separator"
	EntrySubmenu   EntryKind = "submenu"
)

// MenuEntry is a renderable menu line. Only action entries are activated,
// by sending their ID back to the item.
type MenuEntry struct {
	ID       int32       `json:"id"`
	Kind     EntryKind   `json:"kind"`
	Label    string      `json:"label"`
	Enabled  bool        `json:"enabled"`
	Toggle   string      `json:"toggle,omitempty"`
	Checked  bool        `json:"checked,omitempty"`
	Children []MenuEntry `json:"children,omitempty"`
}

// MenuEntries converts the children of root into menu entries.
//
// Invisible nodes are skipped and disabled ones kept but marked. Separators
// at the end of any level are dropped.
func MenuEntries(root *systray.MenuNode) []MenuEntry {
	if root == nil {
		return nil
	}

	entries := make([]MenuEntry, 0, len(root.Children))

	for _, child := range root.Children {
		if !child.Visible() {
			continue
		}

		entry := MenuEntry{
			ID:      child.ID,
			Label:   stripMnemonic(child.Label()),
			Enabled: child.Enabled(),
		}

		switch {
		case child.IsSeparator():
			entry.Kind = EntrySeparator
		case len(child.Children) > 0:
			entry.Kind = EntrySubmenu
			entry.Children = MenuEntries(child)
		default:
			entry.Kind = EntryAction
			entry.Toggle = child.String("toggle-type")
			if state, ok := child.Props["toggle-state"].AsInt(); ok {
				entry.Checked = state == 1
			}
		}

		entries = append(entries, entry)
	}

	for len(entries) > 0 && entries[len(entries)-1].Kind == EntrySeparator {
		entries = entries[:len(entries)-1]
	}

	return entries
}

// stripMnemonic removes access key markers: "_File" becomes "File" and "__"
// a literal underscore.
func stripMnemonic(label string) string {
	if !strings.Contains(label, "_") {
		return label
	}

	var b strings.Builder
	b.Grow(len(label))

	escaped := false
	for _, r := range label {
		if r == '_' && !escaped {
			escaped = true
			continue
		}

		escaped = false
		b.WriteRune(r)
	}

	return b.String()
}
