// Package xdg resolves application icons and desktop entries from the
// freedesktop data directories.
package xdg

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Root is a directory searched by a resolver. Path is reported in results,
// FS is what is actually read.
type Root struct {
	Path string
	FS   fs.FS
}

// DirRoots returns roots backed by the operating system for the given paths.
// A leading "~" is expanded to the home directory.
func DirRoots(paths ...string) []Root {
	roots := make([]Root, 0, len(paths))

	for _, path := range paths {
		path = ExpandHome(path)
		roots = append(roots, Root{Path: path, FS: os.DirFS(path)})
	}

	return roots
}

// ExpandHome replaces a leading "~" with the home directory of the user.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DefaultIconDirs are the icon roots searched when none are configured.
func DefaultIconDirs() []string {
	return []string{
		"/usr/share/icons",
		"/usr/share/pixmaps",
	}
}

// DefaultDesktopDirs are the application directories searched when none are
// configured, system ones first.
func DefaultDesktopDirs() []string {
	return []string{
		"/usr/share/applications",
		"/usr/local/share/applications",
		"~/.local/share/applications",
	}
}
