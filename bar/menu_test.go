package bar

import (
	"testing"

	"github.com/regimentor/oxidbar/systray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id int32, props map[string]systray.PropValue, children ...*systray.MenuNode) *systray.MenuNode {
	if props == nil {
		props = map[string]systray.PropValue{}
	}
	return &systray.MenuNode{ID: id, Props: props, Children: children}
}

func label(s string) map[string]systray.PropValue {
	return map[string]systray.PropValue{"label": systray.StringValue(s)}
}

func separator() map[string]systray.PropValue {
	return map[string]systray.PropValue{"type": systray.StringValue("separator")}
}

func TestMenuEntriesTrailingSeparator(t *testing.T) {
	root := node(0, nil,
		node(1, label("Open")),
		node(2, label("Quit")),
		node(3, separator()),
	)

	entries := MenuEntries(root)

	require.Len(t, entries, 2)
	assert.Equal(t, "Open", entries[0].Label)
	assert.Equal(t, "Quit", entries[1].Label)
}

func TestMenuEntriesKeepsInnerSeparators(t *testing.T) {
	root := node(0, nil,
		node(1, label("Open")),
		node(2, separator()),
		node(3, label("Quit")),
		node(4, separator()),
		node(5, separator()),
	)

	entries := MenuEntries(root)

	require.Len(t, entries, 3)
	assert.Equal(t, EntrySeparator, entries[1].Kind)
	assert.Equal(t, int32(3), entries[2].ID)
}

func TestMenuEntriesSubmenu(t *testing.T) {
	root := node(0, nil,
		node(1, label("_Recent"),
			node(10, label("a__b.txt")),
			node(11, separator()),
		),
	)

	entries := MenuEntries(root)

	require.Len(t, entries, 1)
	submenu := entries[0]
	assert.Equal(t, EntrySubmenu, submenu.Kind)
	assert.Equal(t, "Recent", submenu.Label)
	require.Len(t, submenu.Children, 1)
	assert.Equal(t, MenuEntry{ID: 10, Kind: EntryAction, Label: "a_b.txt", Enabled: true}, submenu.Children[0])
}

func TestMenuEntriesVisibilityAndToggles(t *testing.T) {
	root := node(0, nil,
		node(1, map[string]systray.PropValue{
			"label":   systray.StringValue("Hidden"),
			"visible": systray.BoolValue(false),
		}),
		node(2, map[string]systray.PropValue{
			"label":   systray.StringValue("Disabled"),
			"enabled": systray.BoolValue(false),
		}),
		node(3, map[string]systray.PropValue{
			"label":        systray.StringValue("Mute"),
			"toggle-type":  systray.StringValue("checkmark"),
			"toggle-state": systray.IntValue(1),
		}),
	)

	entries := MenuEntries(root)

	require.Len(t, entries, 2)
	assert.Equal(t, MenuEntry{ID: 2, Kind: EntryAction, Label: "Disabled"}, entries[0])
	assert.Equal(t, MenuEntry{ID: 3, Kind: EntryAction, Label: "Mute", Enabled: true, Toggle: "checkmark", Checked: true}, entries[1])
}

func TestMenuEntriesNilRoot(t *testing.T) {
	assert.Nil(t, MenuEntries(nil))
}
