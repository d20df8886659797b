package systray

import (
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"
)

// ErrInvalidReply is returned when a D-Bus reply does not have the expected
// shape.
var ErrInvalidReply = errors.New("invalid reply")

// isMissingProperty reports whether err means the peer simply does not
// implement the property. Many tray applications only implement a subset of
// StatusNotifierItem, so these errors are expected and not worth logging.
func isMissingProperty(err error) bool {
	if err == nil {
		return false
	}

	switch dbusErrorName(err) {
	case "org.freedesktop.DBus.Error.UnknownProperty",
		"org.freedesktop.DBus.Error.InvalidArgs":
		return true
	}

	msg := err.Error()

	return strings.Contains(msg, "No such property") ||
		strings.Contains(msg, "UnknownProperty") ||
		strings.Contains(msg, "InvalidArgs") ||
		(strings.Contains(msg, "Property") && strings.Contains(msg, "was not found"))
}

// errWrongType marks a property whose value has an unexpected D-Bus type.
var errWrongType = errors.New("incorrect type")

// dbusErrorName returns the D-Bus error name carried by err, if any.
func dbusErrorName(err error) string {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr.Name
	}

	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil {
		return dbusErrPtr.Name
	}

	return ""
}
