// Package clock formats the bar clock.
package clock

import (
	"time"

	"github.com/ncruces/go-strftime"
)

// DefaultPattern renders e.g. "Thu 15 Oct 14:03".
const DefaultPattern = "%a %d %b %H:%M"

// Format renders t in its location with a strftime pattern. An empty
// pattern means [DefaultPattern].
func Format(pattern string, t time.Time) string {
	if pattern == "" {
		pattern = DefaultPattern
	}

	return strftime.Format(pattern, t)
}

// Clock renders the local time with a fixed pattern.
type Clock struct {
	pattern string
	now     func() time.Time
}

func New(pattern string) *Clock {
	return &Clock{pattern: pattern, now: time.Now}
}

// Text returns the current local time.
func (c *Clock) Text() string {
	return Format(c.pattern, c.now().Local())
}
