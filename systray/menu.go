package systray

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const MenuInterface = "com.canonical.dbusmenu"

// Menu is a client of the com.canonical.dbusmenu object published by a tray
// item.
type Menu struct {
	object dbus.BusObject
}

// NewMenu returns the menu of the given item, or nil if the item has no menu.
// No D-Bus call is made.
func NewMenu(conn Conn, item *Item) *Menu {
	if !item.HasMenu() {
		return nil
	}

	return &Menu{object: conn.Object(item.BusName, item.MenuPath)}
}

// GetLayout provides the layout and properties that are attached to the
// entries that are in the layout.
//
// parentID is the ID of the parent node for the returned layout. Use 0 to
// retrieve layout from root.
//
// recursionDepth is the number of recursion levels to use. This affects the
// resulting [MenuNode]. Special cases are:
//   - -1: deliver all items (without recursion limit).
//   - 0: disable recursion (children slice will be empty).
//
// propertyNames is the list of properties associated with layout nodes.
// Special case is empty slice (or nil): all properties are returned.
func (m *Menu) GetLayout(ctx context.Context, parentID int32, recursionDepth int32, propertyNames []string) (uint32, *MenuNode, error) {
	if propertyNames == nil {
		propertyNames = []string{}
	}

	call := m.object.CallWithContext(
		ctx,
		MenuInterface+".GetLayout",
		0,
		parentID, recursionDepth, propertyNames,
	)

	if call.Err != nil {
		return 0, nil, fmt.Errorf("layout: %w", call.Err)
	}

	if len(call.Body) != 2 {
		return 0, nil, fmt.Errorf("layout: %w: body has %d values", ErrInvalidReply, len(call.Body))
	}

	revision, ok := call.Body[0].(uint32)
	if !ok {
		return 0, nil, fmt.Errorf("layout: invalid revision type")
	}

	root, err := NewMenuNode(call.Body[1])
	if err != nil {
		return revision, nil, fmt.Errorf("layout: %w", err)
	}

	return revision, root, nil
}

// Clicked tells the application that the node with the given id was clicked.
func (m *Menu) Clicked(ctx context.Context, id int32) error {
	return m.Event(ctx, id, "clicked", "", uint32(time.Now().Unix()))
}

// Hovered tells the application that the node with the given id was hovered.
func (m *Menu) Hovered(ctx context.Context, id int32) error {
	return m.Event(ctx, id, "hovered", "", uint32(time.Now().Unix()))
}

// Event tells the application that an arbitrary event happened to layout node
// with the given ID.
//
// Possible values for eventID are:
//   - clicked
//   - hovered
//
// Vendor-specific events can be sent by prefixing eventID with "x-<vendor>-".
func (m *Menu) Event(ctx context.Context, targetID int32, eventID string, data any, timestamp uint32) error {
	err := m.object.CallWithContext(
		ctx,
		MenuInterface+".Event",
		0,
		targetID,
		eventID,
		dbus.MakeVariant(data),
		timestamp,
	).Err
	if err != nil {
		return fmt.Errorf("event %s on %d: %w", eventID, targetID, err)
	}

	return nil
}

// AboutToShow tells the application that the node with the given id is about
// to be shown. The result reports whether the layout should be refreshed.
func (m *Menu) AboutToShow(ctx context.Context, id int32) (bool, error) {
	call := m.object.CallWithContext(
		ctx,
		MenuInterface+".AboutToShow",
		0,
		id,
	)

	if call.Err != nil {
		return false, fmt.Errorf("about to show: %w", call.Err)
	}

	if len(call.Body) != 1 {
		return false, fmt.Errorf("about to show: %w", ErrInvalidReply)
	}

	needUpdate, ok := call.Body[0].(bool)
	if !ok {
		return false, fmt.Errorf("about to show: %w", ErrInvalidReply)
	}

	return needUpdate, nil
}

// Menu fetches the full menu layout of item.
//
// It returns nil without error and without any D-Bus call if item has no
// menu. Once GetLayout succeeds the tree is best-effort: malformed nodes are
// dropped instead of failing the whole menu.
func (r *Registry) Menu(ctx context.Context, item *Item) (*MenuNode, error) {
	menu := NewMenu(r.conn, item)
	if menu == nil {
		return nil, nil
	}

	_, root, err := menu.GetLayout(ctx, 0, -1, nil)
	if err != nil {
		return nil, fmt.Errorf("menu of %s: %w", item.Address(), err)
	}

	return root, nil
}

// Activate sends a "clicked" event for the menu node id of item. Failures are
// logged and returned; there is no retry.
func (r *Registry) Activate(ctx context.Context, item *Item, id int32) error {
	menu := NewMenu(r.conn, item)
	if menu == nil {
		return fmt.Errorf("activate %d: item %s has no menu", id, item.Address())
	}

	if err := menu.Clicked(ctx, id); err != nil {
		log.Error().Err(err).Str("item", item.Address()).Int32("node", id).Msg("failed to activate menu entry")
		return err
	}

	return nil
}

// AboutToShow notifies item that the submenu id is about to be shown.
func (r *Registry) AboutToShow(ctx context.Context, item *Item, id int32) (bool, error) {
	menu := NewMenu(r.conn, item)
	if menu == nil {
		return false, nil
	}

	return menu.AboutToShow(ctx, id)
}
