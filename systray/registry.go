package systray

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

// Conn opens proxies to D-Bus objects. It is satisfied by [*dbus.Conn].
type Conn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

// Registry enumerates the items registered with the StatusNotifierWatcher and
// fetches their menus.
//
// Every call to [Registry.Items] rebuilds the full list; nothing is cached
// between polls except resolved icon files.
type Registry struct {
	conn  Conn
	icons IconLookup
}

// NewRegistry returns a new [Registry]. icons may be nil, in which case items
// have no icon files.
func NewRegistry(conn Conn, icons IconLookup) *Registry {
	return &Registry{
		conn:  conn,
		icons: icons,
	}
}

// Addresses returns the item addresses known to the watcher, in registration
// order.
func (r *Registry) Addresses(ctx context.Context) ([]string, error) {
	watcher := r.conn.Object(StatusNotifierWatcherInterface, StatusNotifierWatcherPath)

	call := watcher.CallWithContext(ctx, getProperty, 0, StatusNotifierWatcherInterface, "RegisteredStatusNotifierItems")
	if call.Err != nil {
		return nil, fmt.Errorf("registered items: %w", call.Err)
	}

	if len(call.Body) != 1 {
		return nil, fmt.Errorf("registered items: %w", ErrInvalidReply)
	}

	value := call.Body[0]
	if variant, ok := value.(dbus.Variant); ok {
		value = variant.Value()
	}

	addresses, ok := value.([]string)
	if !ok {
		return nil, fmt.Errorf("registered items: %w: %T", ErrInvalidReply, value)
	}

	return addresses, nil
}

// Items returns a fresh snapshot of all tray items.
//
// It fails only if the watcher cannot be queried. An item that cannot be
// reached is logged and skipped; the remaining items keep watcher order.
func (r *Registry) Items(ctx context.Context) ([]*Item, error) {
	addresses, err := r.Addresses(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(addresses))

	for _, address := range addresses {
		busName, objectPath := ParseAddress(address)

		item, err := fetchItem(ctx, r.conn.Object(busName, objectPath), busName, objectPath, r.icons)
		if err != nil {
			log.Error().Err(err).Str("item", address).Msg("skipping tray item")
			continue
		}

		items = append(items, item)
	}

	return items, nil
}

// Item fetches a single item by its watcher address.
func (r *Registry) Item(ctx context.Context, address string) (*Item, error) {
	busName, objectPath := ParseAddress(address)

	return fetchItem(ctx, r.conn.Object(busName, objectPath), busName, objectPath, r.icons)
}
