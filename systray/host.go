package systray

import (
	"fmt"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

// BusConn is the subset of [*dbus.Conn] used by [Host] and [Watcher].
type BusConn interface {
	Conn
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)
	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
}

// itemSignals are StatusNotifierItem signals that change what a host shows.
var itemSignals = []string{
	"NewTitle",
	"NewIcon",
	"NewAttentionIcon",
	"NewOverlayIcon",
	"NewToolTip",
	"NewStatus",
	"NewMenu",
}

// Host implements [StatusNotifierHost]. It registers itself with the
// [StatusNotifierWatcher] and reports every change of the set of items, or of
// any item, on the channel returned by [Host.Changes].
//
// Host does not keep item state: consumers react to a change by polling the
// [Registry] again.
//
// [StatusNotifierHost]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierHost/
// [StatusNotifierWatcher]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierWatcher/
type Host struct {
	name    string
	closed  bool
	conn    BusConn
	signals chan *dbus.Signal
	changes chan struct{}
	mu      sync.Mutex
}

// NewHost returns a new [Host] named after the current process.
func NewHost(conn BusConn) *Host {
	return &Host{
		name:    fmt.Sprintf("org.kde.StatusNotifierHost-%d", os.Getpid()),
		conn:    conn,
		signals: make(chan *dbus.Signal, 64),
		changes: make(chan struct{}, 1),
	}
}

// Name returns name of the host service.
func (h *Host) Name() string {
	return h.name
}

// Changes returns a channel that receives a value whenever tray items change.
// Bursts of changes are coalesced into a single value.
func (h *Host) Changes() <-chan struct{} {
	return h.changes
}

// Listen requests name of the host on D-Bus, registers it in the watcher and
// subscribes to signals.
//
// If Listen is called after [Host.Close], an error is returned.
func (h *Host) Listen() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return fmt.Errorf("listen: host is closed")
	}

	reply, err := h.conn.RequestName(h.name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("listen: failed to request name %s: %w", h.name, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("listen: name %s already taken", h.name)
	}

	call := h.conn.Object(
		StatusNotifierWatcherInterface,
		StatusNotifierWatcherPath,
	).Call(StatusNotifierWatcherInterface+".RegisterStatusNotifierHost", 0, h.name)
	if call.Err != nil {
		return fmt.Errorf("listen: failed to register host: %w", call.Err)
	}

	if err := h.subscribe(); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Debug().Str("host", h.name).Msg("registered status notifier host")

	return nil
}

// Close releases name of the host from D-Bus and unsubscribes from signals.
//
// Host cannot be reused after Close was called.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	if _, err := h.conn.ReleaseName(h.name); err != nil {
		return err
	}

	for _, options := range h.matchRules() {
		if err := h.conn.RemoveMatchSignal(options...); err != nil {
			return err
		}
	}

	h.conn.RemoveSignal(h.signals)
	close(h.signals)

	h.closed = true

	return nil
}

// matchRules returns the match rules of every signal the host listens to.
func (h *Host) matchRules() [][]dbus.MatchOption {
	rules := [][]dbus.MatchOption{
		{
			dbus.WithMatchInterface(StatusNotifierWatcherInterface),
			dbus.WithMatchMember("StatusNotifierItemRegistered"),
		},
		{
			dbus.WithMatchInterface(StatusNotifierWatcherInterface),
			dbus.WithMatchMember("StatusNotifierItemUnregistered"),
		},
	}

	for _, member := range itemSignals {
		rules = append(rules, []dbus.MatchOption{
			dbus.WithMatchInterface(StatusNotifierItemInterface),
			dbus.WithMatchMember(member),
		})
	}

	return rules
}

// subscribe subscribes to watcher and item signals.
func (h *Host) subscribe() error {
	for _, options := range h.matchRules() {
		if err := h.conn.AddMatchSignal(options...); err != nil {
			return err
		}
	}

	h.conn.Signal(h.signals)

	go func() {
		for signal := range h.signals {
			h.handleSignal(signal)
		}
	}()

	return nil
}

// handleSignal forwards relevant signals to the changes channel.
func (h *Host) handleSignal(signal *dbus.Signal) {
	switch signal.Name {
	case StatusNotifierWatcherInterface + ".StatusNotifierItemRegistered",
		StatusNotifierWatcherInterface + ".StatusNotifierItemUnregistered":
		address, err := addressFromDBusSignal(signal)
		if err != nil {
			return
		}
		log.Debug().Str("item", address).Str("signal", signal.Name).Msg("tray item set changed")
	default:
		if !isItemSignal(signal.Name) {
			return
		}
	}

	h.notify()
}

// notify performs a non-blocking send on the changes channel.
func (h *Host) notify() {
	select {
	case h.changes <- struct{}{}:
	default:
	}
}

func isItemSignal(name string) bool {
	for _, member := range itemSignals {
		if name == StatusNotifierItemInterface+"."+member {
			return true
		}
	}

	return false
}
