package systray

import (
	"context"
	"errors"
	"sync"

	"github.com/godbus/dbus/v5"
)

var errNoSuchObject = dbus.Error{
	Name: "org.freedesktop.DBus.Error.ServiceUnknown",
	Body: []any{"The name is not activatable"},
}

var errUnknownProperty = dbus.Error{
	Name: "org.freedesktop.DBus.Error.UnknownProperty",
	Body: []any{"No such property"},
}

// fakeObject answers the few methods the package calls. Unknown properties
// fail with UnknownProperty, like most toolkits do.
type fakeObject struct {
	dbus.BusObject

	mu      sync.Mutex
	pingErr error
	props   map[string]any
	layout  []any
	callErr error
	methods []string
	args    [][]any
}

func (o *fakeObject) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...any) *dbus.Call {
	o.mu.Lock()
	o.methods = append(o.methods, method)
	o.args = append(o.args, args)
	o.mu.Unlock()

	switch method {
	case peerPing:
		return &dbus.Call{Err: o.pingErr}
	case getProperty:
		if o.pingErr != nil {
			return &dbus.Call{Err: o.pingErr}
		}
		name, _ := args[1].(string)
		value, ok := o.props[name]
		if !ok {
			return &dbus.Call{Err: errUnknownProperty}
		}
		if err, ok := value.(error); ok {
			return &dbus.Call{Err: err}
		}
		return &dbus.Call{Body: []any{dbus.MakeVariant(value)}}
	case MenuInterface + ".GetLayout":
		if o.callErr != nil {
			return &dbus.Call{Err: o.callErr}
		}
		return &dbus.Call{Body: o.layout}
	case MenuInterface + ".Event":
		return &dbus.Call{Err: o.callErr}
	case MenuInterface + ".AboutToShow":
		return &dbus.Call{Body: []any{true}}
	}

	return &dbus.Call{Err: errors.New("unexpected method " + method)}
}

func (o *fakeObject) calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string(nil), o.methods...)
}

// fakeConn hands out fake objects by destination and path.
type fakeConn struct {
	objects  map[string]*fakeObject
	requests []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{objects: map[string]*fakeObject{}}
}

func (c *fakeConn) add(dest string, path dbus.ObjectPath, object *fakeObject) *fakeObject {
	c.objects[dest+string(path)] = object
	return object
}

func (c *fakeConn) Object(dest string, path dbus.ObjectPath) dbus.BusObject {
	c.requests = append(c.requests, dest+string(path))

	if object, ok := c.objects[dest+string(path)]; ok {
		return object
	}

	return &fakeObject{pingErr: errNoSuchObject}
}

func (c *fakeConn) watcher(addresses ...string) {
	c.add(StatusNotifierWatcherInterface, StatusNotifierWatcherPath, &fakeObject{
		props: map[string]any{"RegisteredStatusNotifierItems": addresses},
	})
}

// recordingIcons remembers every key it was asked for.
type recordingIcons struct {
	mu    sync.Mutex
	keys  []string
	paths map[string][]string
}

func (r *recordingIcons) Resolve(identifier string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys = append(r.keys, identifier)

	return r.paths[identifier]
}

// layoutNode builds the (ia{sv}av) structure of a menu node.
func layoutNode(id int32, props map[string]any, children ...any) []any {
	variants := make(map[string]dbus.Variant, len(props))
	for key, value := range props {
		variants[key] = dbus.MakeVariant(value)
	}

	childVariants := make([]dbus.Variant, 0, len(children))
	for _, child := range children {
		childVariants = append(childVariants, dbus.MakeVariant(child))
	}

	return []any{id, variants, childVariants}
}
