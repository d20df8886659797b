package xdg

import (
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"
)

// DefaultMaxDepth is how many directory levels below a root are searched.
// Icon themes nest as <theme>/<size>/<context>/<file>.
const DefaultMaxDepth = 8

// IconCache memoizes resolved icon files per identifier for the lifetime of
// the process. Keys are case-sensitive. It is safe for concurrent use.
type IconCache struct {
	entries *xsync.MapOf[string, []string]
}

func NewIconCache() *IconCache {
	return &IconCache{entries: xsync.NewMapOf[string, []string]()}
}

// Len returns the number of cached identifiers.
func (c *IconCache) Len() int {
	return c.entries.Size()
}

// IconResolver finds icon files whose name without extension equals an
// identifier.
type IconResolver struct {
	roots    []Root
	maxDepth int
	cache    *IconCache
}

type IconOption func(*IconResolver)

// WithMaxDepth bounds traversal below each root.
func WithMaxDepth(depth int) IconOption {
	return func(r *IconResolver) {
		r.maxDepth = depth
	}
}

// WithIconCache makes the resolver share cache with other resolvers.
func WithIconCache(cache *IconCache) IconOption {
	return func(r *IconResolver) {
		r.cache = cache
	}
}

// NewIconResolver returns a resolver over roots, searched in order.
func NewIconResolver(roots []Root, opts ...IconOption) *IconResolver {
	r := &IconResolver{
		roots:    roots,
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.cache == nil {
		r.cache = NewIconCache()
	}

	return r
}

// Resolve returns absolute paths of all icon files for identifier, in
// traversal order. It never fails: unreadable directories are skipped and
// an unknown identifier yields an empty result.
//
// The first call for an identifier walks the roots; later calls, including
// concurrent ones, share its result.
func (r *IconResolver) Resolve(identifier string) []string {
	if identifier == "" {
		return nil
	}

	paths, _ := r.cache.entries.LoadOrCompute(identifier, func() []string {
		return r.walk(identifier)
	})

	return slices.Clone(paths)
}

func (r *IconResolver) walk(identifier string) []string {
	var found []string

	for _, root := range r.roots {
		r.walkDir(root, ".", identifier, &found)
	}

	return found
}

// walkDir appends matches under dir in lexical order. Symlinked directories
// are followed; the depth bound stops cycles.
func (r *IconResolver) walkDir(root Root, dir, identifier string, found *[]string) {
	entries, err := fs.ReadDir(root.FS, dir)
	if err != nil {
		log.Debug().Err(err).Str("root", root.Path).Str("path", dir).Msg("skipping icon directory")
		return
	}

	for _, entry := range entries {
		p := path.Join(dir, entry.Name())

		mode, ok := resolveMode(root.FS, p, entry)
		if !ok {
			continue
		}

		switch {
		case mode.IsDir():
			if depth(p) <= r.maxDepth {
				r.walkDir(root, p, identifier, found)
			}
		case mode.IsRegular() && stem(entry.Name()) == identifier:
			*found = append(*found, filepath.Join(root.Path, filepath.FromSlash(p)))
		}
	}
}

// depth returns the directory level of p, "a" being 1.
func depth(p string) int {
	return strings.Count(p, "/") + 1
}

// stem returns name without its last extension.
func stem(name string) string {
	s := strings.TrimSuffix(name, path.Ext(name))
	if s == "" {
		return name
	}
	return s
}

// resolveMode returns the type of d, following symlinks. Dangling links
// report false.
func resolveMode(fsys fs.FS, p string, d fs.DirEntry) (fs.FileMode, bool) {
	if d.Type()&fs.ModeSymlink == 0 {
		return d.Type(), true
	}

	info, err := fs.Stat(fsys, p)
	if err != nil {
		return 0, false
	}

	return info.Mode().Type(), true
}
