package systray

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/rs/zerolog/log"
)

const (
	StatusNotifierWatcherInterface = "org.kde.StatusNotifierWatcher"
	StatusNotifierWatcherPath      = "/StatusNotifierWatcher"
)

// Watcher implements StatusNotifierWatcher for sessions that run no other
// watcher. Items and hosts are forgotten as soon as their bus name vanishes.
type Watcher struct {
	closed  bool
	conn    *dbus.Conn
	mu      sync.Mutex
	props   *prop.Properties
	signals chan *dbus.Signal
	hosts   []string
	items   []string
}

func NewWatcher(conn *dbus.Conn) *Watcher {
	return &Watcher{
		conn:    conn,
		signals: make(chan *dbus.Signal, 64),
	}
}

// Listen claims the watcher name and exports the watcher object.
func (w *Watcher) Listen() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("listen: watcher is closed")
	}

	reply, err := w.conn.RequestName(StatusNotifierWatcherInterface, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("listen: failed to request name %s: %w", StatusNotifierWatcherInterface, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("listen: name %s already taken", StatusNotifierWatcherInterface)
	}

	if err := w.conn.Export(w, StatusNotifierWatcherPath, StatusNotifierWatcherInterface); err != nil {
		return fmt.Errorf("listen: failed to export %s: %w", StatusNotifierWatcherInterface, err)
	}

	props, err := prop.Export(w.conn, StatusNotifierWatcherPath, prop.Map{
		StatusNotifierWatcherInterface: map[string]*prop.Prop{
			"RegisteredStatusNotifierItems": {
				Value: []string{},
				Emit:  prop.EmitTrue,
			},
			"IsStatusNotifierHostRegistered": {
				Value: false,
				Emit:  prop.EmitTrue,
			},
			"ProtocolVersion": {
				Value: int32(0),
				Emit:  prop.EmitTrue,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("listen: failed to export properties: %w", err)
	}

	w.props = props
	w.subscribe()

	log.Info().Msg("status notifier watcher is running")

	return nil
}

// Close releases the watcher name and stops tracking registrations.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	if _, err := w.conn.ReleaseName(StatusNotifierWatcherInterface); err != nil {
		return err
	}

	for _, host := range w.hosts {
		w.unwatchOwner(host)
	}

	for _, item := range w.items {
		busName, _ := ParseAddress(item)
		w.unwatchOwner(busName)
	}

	w.conn.RemoveSignal(w.signals)
	close(w.signals)

	w.closed = true

	return nil
}

// RegisterStatusNotifierItem is the exported D-Bus method.
func (w *Watcher) RegisterStatusNotifierItem(name string, sender dbus.Sender) *dbus.Error {
	w.mu.Lock()
	defer w.mu.Unlock()

	address := itemAddress(name, string(sender))
	if slices.Contains(w.items, address) {
		return nil
	}

	w.items = append(w.items, address)

	busName, _ := ParseAddress(address)
	w.watchOwner(busName)

	w.emit("StatusNotifierItemRegistered", address)
	w.exportProperties()

	log.Debug().Str("item", address).Msg("registered tray item")

	return nil
}

// RegisterStatusNotifierHost is the exported D-Bus method.
func (w *Watcher) RegisterStatusNotifierHost(name string) *dbus.Error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if slices.Contains(w.hosts, name) {
		return nil
	}

	w.hosts = append(w.hosts, name)
	w.watchOwner(name)

	w.emit("StatusNotifierHostRegistered")
	w.exportProperties()

	log.Debug().Str("host", name).Msg("registered tray host")

	return nil
}

// itemAddress builds the watcher address of an item. Items register either
// with a bus name or with an object path on the sender's connection.
func itemAddress(name, sender string) string {
	if strings.HasPrefix(name, "/") {
		return sender + name
	}

	busName, objectPath := ParseAddress(name)

	return busName + string(objectPath)
}

// watchOwner subscribes to NameOwnerChanged of name. Whenever name disappears,
// D-Bus sends the signal with an empty new owner.
func (w *Watcher) watchOwner(name string) {
	err := w.conn.AddMatchSignal(nameOwnerChanged(name)...)
	if err != nil {
		log.Warn().Err(err).Str("name", name).Msg("failed to watch bus name")
	}
}

func (w *Watcher) unwatchOwner(name string) {
	_ = w.conn.RemoveMatchSignal(nameOwnerChanged(name)...)
}

func nameOwnerChanged(name string) []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, name),
	}
}

func (w *Watcher) emit(member string, values ...any) {
	err := w.conn.Emit(StatusNotifierWatcherPath, StatusNotifierWatcherInterface+"."+member, values...)
	if err != nil {
		log.Warn().Err(err).Str("signal", member).Msg("failed to emit watcher signal")
	}
}

func (w *Watcher) subscribe() {
	w.conn.Signal(w.signals)

	go func() {
		for signal := range w.signals {
			name, vanished := vanishedName(signal)
			if !vanished {
				continue
			}

			w.tryUnregisterHost(name)
			w.tryUnregisterItems(name)
		}
	}()
}

// vanishedName reports the bus name a NameOwnerChanged signal announces as
// gone.
func vanishedName(signal *dbus.Signal) (string, bool) {
	if signal.Name != "org.freedesktop.DBus.NameOwnerChanged" || len(signal.Body) < 3 {
		return "", false
	}

	name, ok := signal.Body[0].(string)
	if !ok {
		return "", false
	}

	newOwner, ok := signal.Body[2].(string)
	if !ok || newOwner != "" {
		return "", false
	}

	return name, true
}

func (w *Watcher) tryUnregisterHost(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := slices.Index(w.hosts, name)
	if idx < 0 {
		return
	}

	w.unwatchOwner(name)
	w.hosts = slices.Delete(w.hosts, idx, idx+1)
	w.emit("StatusNotifierHostUnregistered")
	w.exportProperties()
}

// tryUnregisterItems drops every item owned by name.
func (w *Watcher) tryUnregisterItems(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var removed []string

	w.items = slices.DeleteFunc(w.items, func(address string) bool {
		busName, _ := ParseAddress(address)
		if busName != name {
			return false
		}
		removed = append(removed, address)
		return true
	})

	if len(removed) == 0 {
		return
	}

	w.unwatchOwner(name)

	for _, address := range removed {
		w.emit("StatusNotifierItemUnregistered", address)
		log.Debug().Str("item", address).Msg("unregistered tray item")
	}

	w.exportProperties()
}

func (w *Watcher) exportProperties() {
	if w.props == nil {
		return
	}

	w.props.SetMust(StatusNotifierWatcherInterface, "RegisteredStatusNotifierItems", slices.Clone(w.items))
	w.props.SetMust(StatusNotifierWatcherInterface, "IsStatusNotifierHostRegistered", len(w.hosts) > 0)
}
