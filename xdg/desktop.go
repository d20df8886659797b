package xdg

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

const desktopEntrySection = "Desktop Entry"

// DesktopEntry holds the keys of a .desktop file a bar cares about.
type DesktopEntry struct {
	Name string
	Exec string

	// Icon is only meaningful when HasIcon is set.
	Icon    string
	HasIcon bool
}

// DesktopEntryResolver maps an application class to its desktop entry.
// Results, including misses, are cached for the lifetime of the resolver.
type DesktopEntryResolver struct {
	roots []Root
	cache *xsync.MapOf[string, *DesktopEntry]
}

// NewDesktopEntryResolver returns a resolver over roots, searched in order.
func NewDesktopEntryResolver(roots []Root) *DesktopEntryResolver {
	return &DesktopEntryResolver{
		roots: roots,
		cache: xsync.NewMapOf[string, *DesktopEntry](),
	}
}

// Resolve returns the desktop entry of class. In every root, "<class>.desktop"
// is tried before "<lowercase class>.desktop"; the first existing file wins.
// A file that cannot be parsed counts as no entry.
func (r *DesktopEntryResolver) Resolve(class string) (*DesktopEntry, bool) {
	if class == "" {
		return nil, false
	}

	entry, _ := r.cache.LoadOrCompute(class, func() *DesktopEntry {
		return r.lookup(class)
	})
	if entry == nil {
		return nil, false
	}

	copied := *entry

	return &copied, true
}

func (r *DesktopEntryResolver) lookup(class string) *DesktopEntry {
	names := []string{class + ".desktop"}
	if lower := strings.ToLower(class); lower != class {
		names = append(names, lower+".desktop")
	}

	for _, root := range r.roots {
		for _, name := range names {
			data, err := fs.ReadFile(root.FS, name)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			if err != nil {
				log.Warn().Err(err).Str("root", root.Path).Str("file", name).Msg("failed to read desktop entry")
				return nil
			}

			entry, err := parseDesktopEntry(data)
			if err != nil {
				log.Warn().Err(err).Str("root", root.Path).Str("file", name).Msg("failed to parse desktop entry")
				return nil
			}

			return entry
		}
	}

	return nil
}

// parseDesktopEntry reads Name, Exec and Icon of the [Desktop Entry] group.
func parseDesktopEntry(data []byte) (*DesktopEntry, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		return nil, err
	}

	section, err := file.GetSection(desktopEntrySection)
	if err != nil {
		return nil, err
	}

	entry := &DesktopEntry{
		Name: section.Key("Name").String(),
		Exec: section.Key("Exec").String(),
	}

	if section.HasKey("Icon") {
		entry.Icon = section.Key("Icon").String()
		entry.HasIcon = true
	}

	return entry, nil
}
