package hyprland

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// workspaceEvents are the socket2 events after which the workspace snapshot
// may differ.
var workspaceEvents = map[string]bool{
	"workspace":          true,
	"workspacev2":        true,
	"createworkspace":    true,
	"createworkspacev2":  true,
	"destroyworkspace":   true,
	"destroyworkspacev2": true,
	"moveworkspace":      true,
	"moveworkspacev2":    true,
	"renameworkspace":    true,
	"openwindow":         true,
	"closewindow":        true,
}

// eventName returns the name of a socket2 line of the form EVENT>>DATA.
func eventName(line string) (string, bool) {
	name, _, ok := strings.Cut(line, ">>")
	return name, ok
}

// Listen reads the event socket and sends one value on out for every event
// that affects workspaces. Payloads are discarded.
//
// Listen blocks until ctx is cancelled or the socket fails.
func (c *Client) Listen(ctx context.Context, out chan<- struct{}) error {
	conn, err := c.dialer.DialContext(ctx, "unix", filepath.Join(c.dir, eventSocket))
	if err != nil {
		return fmt.Errorf("hyprland events: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	log.Debug().Str("socket", c.dir).Msg("listening to hyprland events")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		name, ok := eventName(scanner.Text())
		if !ok || !workspaceEvents[name] {
			continue
		}

		select {
		case out <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("hyprland events: %w", err)
	}

	return fmt.Errorf("hyprland events: socket closed")
}
