package systray

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const (
	StatusNotifierItemInterface = "org.kde.StatusNotifierItem"
	StatusNotifierItemPath      = "/StatusNotifierItem"
)

type Category string

// StatusNotifierItem categories.
const (
	// The item describes the status of a generic application, for instance the
	// current state of a media player.
	CategoryApplicationStatus Category = "ApplicationStatus"

	// The item describes the status of communication oriented applications, like
	// an instant messenger or an email client.
	CategoryCommunications Category = "Communications"

	// The item describes services of the system not seen as a stand alone
	// application by the user, such as an indicator for the activity of a disk
	// indexing service.
	CategorySystemServices Category = "SystemServices"

	// The item describes the state and control of a particular hardware, such as
	// an indicator of the battery charge or sound card volume control.
	CategoryHardware Category = "Hardware"
)

type Status string

// StatusNotifierItem statuses.
const (
	// The item doesn't convey important information to the user, it can be
	// considered an "idle" status and is likely that visualizations will choose
	// to hide it.
	StatusPassive Status = "Passive"

	// The item is active, is more important that the item will be shown in some
	// way to the user.
	StatusActive Status = "Active"

	// The item carries really important information for the user, such as battery
	// charge running out and is wants to incentive the direct user intervention.
	StatusNeedsAttention Status = "NeedsAttention"
)

// parseStatus maps the Status property to [Status]. Unknown and empty values
// are treated as passive.
func parseStatus(s string) Status {
	switch s {
	case "Active":
		return StatusActive
	case "NeedsAttention":
		return StatusNeedsAttention
	default:
		return StatusPassive
	}
}

const (
	getProperty = "org.freedesktop.DBus.Properties.Get"
	peerPing    = "org.freedesktop.DBus.Peer.Ping"
)

// Icon holds everything known about the icon of a tray item.
//
// Hosts should prefer the first existing file of IconPaths, then Pixmap,
// then a textual fallback.
type Icon struct {
	// Freedesktop icon name, empty if the item does not publish one.
	Name string

	// Pixmap chosen for the current status of the item.
	Pixmap *Pixmap

	AttentionName string
	OverlayName   string

	// First pixmap of OverlayIconPixmap, drawn on top of the main icon.
	OverlayPixmap *Pixmap

	// Files found by the icon resolver for the icon lookup key.
	IconPaths []string
}

// Item is a snapshot of a single StatusNotifierItem, as read during one poll
// of the [Registry].
//
// Items have no identity across polls other than the (BusName, ObjectPath)
// pair.
type Item struct {
	// Unique identifier for the application, such as the application name.
	ID string

	// Name that describes the application, can be more descriptive than ID.
	Title string

	// Status of the item or of the associated application.
	Status Status

	// Category of the item, as published by the application.
	Category Category

	Icon    Icon
	ToolTip ToolTip

	// D-Bus path to an object which implements the com.canonical.dbusmenu
	// interface. Only meaningful when HasMenuPath is true.
	MenuPath    dbus.ObjectPath
	HasMenuPath bool

	// Whether the item only supports context menu.
	IsMenu bool

	// Windowing-system dependent identifier.
	WindowID uint32

	BusName    string
	ObjectPath dbus.ObjectPath
}

// Address returns the watcher-style address of the item.
func (item *Item) Address() string {
	return item.BusName + string(item.ObjectPath)
}

// HasMenu reports whether item publishes a usable dbusmenu object.
func (item *Item) HasMenu() bool {
	return item.HasMenuPath && !isDegenerateMenuPath(item.MenuPath)
}

// isDegenerateMenuPath reports whether path stands for "no menu".
func isDegenerateMenuPath(path dbus.ObjectPath) bool {
	return path == "" || path == "/"
}

// IconLookup resolves an icon name or application identifier to icon files.
type IconLookup interface {
	Resolve(identifier string) []string
}

// iconKey returns the identifier used for icon file lookup: icon name, else
// id, else title.
func iconKey(iconName, id, title string) string {
	switch {
	case iconName != "":
		return iconName
	case id != "":
		return id
	default:
		return title
	}
}

// choosePixmap picks the pixmap to display for the given status.
func choosePixmap(status Status, icon, attention []*Pixmap, tooltip ToolTip) *Pixmap {
	primary := firstPixmap(icon)
	if primary == nil {
		primary = firstPixmap(tooltip.Pixmaps)
	}

	if status == StatusNeedsAttention {
		if pixmap := firstPixmap(attention); pixmap != nil {
			return pixmap
		}
	}

	return primary
}

// propertyReader reads StatusNotifierItem properties of a single object.
type propertyReader struct {
	ctx     context.Context
	object  dbus.BusObject
	address string
}

func (r *propertyReader) get(name string) (any, error) {
	call := r.object.CallWithContext(r.ctx, getProperty, 0, StatusNotifierItemInterface, name)
	if call.Err != nil {
		return nil, call.Err
	}

	if len(call.Body) != 1 {
		return nil, fmt.Errorf("property %s: %w", name, ErrInvalidReply)
	}

	variant, ok := call.Body[0].(dbus.Variant)
	if !ok {
		return call.Body[0], nil
	}

	return variant.Value(), nil
}

// logFailure logs a failed property read. Expected absences are skipped
// when quiet is set.
func (r *propertyReader) logFailure(name string, err error, quiet bool) {
	if quiet && isMissingProperty(err) {
		return
	}

	log.Error().
		Err(err).
		Str("item", r.address).
		Str("property", name).
		Msg("failed to read tray item property")
}

// str reads a string property. Failures yield "".
func (r *propertyReader) str(name string, logErrors bool) string {
	value, err := r.get(name)
	if err != nil {
		if logErrors {
			r.logFailure(name, err, false)
		}
		return ""
	}

	s, ok := value.(string)
	if !ok {
		if logErrors {
			r.logFailure(name, fmt.Errorf("%w: %T", errWrongType, value), false)
		}
		return ""
	}

	return s
}

func (r *propertyReader) pixmaps(name string) []*Pixmap {
	value, err := r.get(name)
	if err != nil {
		return nil
	}

	pixmaps, err := pixmapsFromDBus(value)
	if err != nil {
		return nil
	}

	return pixmaps
}

func (r *propertyReader) objectPath(name string) (dbus.ObjectPath, bool) {
	value, err := r.get(name)
	if err != nil {
		return "", false
	}

	switch path := value.(type) {
	case dbus.ObjectPath:
		return path, true
	case string:
		return dbus.ObjectPath(path), true
	default:
		return "", false
	}
}

func (r *propertyReader) boolean(name string) bool {
	value, err := r.get(name)
	if err != nil {
		r.logFailure(name, err, true)
		return false
	}

	b, ok := value.(bool)
	if !ok {
		r.logFailure(name, fmt.Errorf("%w: %T", errWrongType, value), false)
		return false
	}

	return b
}

func (r *propertyReader) windowID(name string) uint32 {
	value, err := r.get(name)
	if err != nil {
		r.logFailure(name, err, true)
		return 0
	}

	switch id := value.(type) {
	case uint32:
		return id
	case int32:
		return uint32(id)
	default:
		// Applications disagree on the type; a mismatch is not an error.
		return 0
	}
}

func (r *propertyReader) toolTip(name string) ToolTip {
	value, err := r.get(name)
	if err != nil {
		r.logFailure(name, err, true)
		return ToolTip{}
	}

	tooltip, err := toolTipFromDBus(value)
	if err != nil {
		r.logFailure(name, err, false)
		return ToolTip{}
	}

	return tooltip
}

// fetchItem reads all properties of the item at (busName, objectPath) and
// resolves its icon files.
//
// Properties are read one after another. Every read is independent: a missing
// or broken property yields a zero value and never fails the item. The only
// error is failing to reach the object at all.
func fetchItem(ctx context.Context, object dbus.BusObject, busName string, objectPath dbus.ObjectPath, icons IconLookup) (*Item, error) {
	if call := object.CallWithContext(ctx, peerPing, 0); call.Err != nil {
		return nil, fmt.Errorf("failed to resolve item: %w", call.Err)
	}

	r := &propertyReader{
		ctx:     ctx,
		object:  object,
		address: busName + string(objectPath),
	}

	item := &Item{
		BusName:    busName,
		ObjectPath: objectPath,
	}

	item.ID = r.str("Id", true)
	item.Title = r.str("Title", true)
	status := r.str("Status", true)
	item.Status = parseStatus(status)
	item.Category = Category(r.str("Category", true))

	item.Icon.Name = r.str("IconName", false)
	item.Icon.AttentionName = r.str("AttentionIconName", false)
	item.Icon.OverlayName = r.str("OverlayIconName", false)

	iconPixmaps := r.pixmaps("IconPixmap")
	attentionPixmaps := r.pixmaps("AttentionIconPixmap")
	item.Icon.OverlayPixmap = firstPixmap(r.pixmaps("OverlayIconPixmap"))

	item.MenuPath, item.HasMenuPath = r.objectPath("Menu")
	item.IsMenu = r.boolean("ItemIsMenu")
	item.WindowID = r.windowID("WindowId")
	item.ToolTip = r.toolTip("ToolTip")

	item.Icon.Pixmap = choosePixmap(item.Status, iconPixmaps, attentionPixmaps, item.ToolTip)

	if key := iconKey(item.Icon.Name, item.ID, item.Title); key != "" && icons != nil {
		item.Icon.IconPaths = icons.Resolve(key)
	}

	return item, nil
}

// ParseAddress returns bus name and object path of the StatusNotifierItem
// service from its watcher address. The returned object path starts with /.
//
// Format of the address is "<busName>/<objectPath>", e.g.
// ":1.185/StatusNotifierItem". A bare bus name refers to the default object
// path [StatusNotifierItemPath].
func ParseAddress(address string) (string, dbus.ObjectPath) {
	busName, objectPath, ok := strings.Cut(address, "/")
	if !ok || objectPath == "" {
		return busName, StatusNotifierItemPath
	}

	return busName, dbus.ObjectPath("/" + objectPath)
}

// addressFromDBusSignal retrieves the item address from the body of a
// watcher signal.
func addressFromDBusSignal(signal *dbus.Signal) (string, error) {
	if len(signal.Body) < 1 {
		return "", fmt.Errorf("signal body is empty")
	}

	address, ok := signal.Body[0].(string)
	if !ok {
		return "", fmt.Errorf("invalid format of signal body")
	}

	return address, nil
}
