// Package systray is a client of the [StatusNotifierItem] specification for
// status bars. It enumerates tray items, decodes their properties and icons,
// and builds their com.canonical.dbusmenu menus.
//
// # Usage
//
// The system tray consists of a watcher, hosts, and multiple items:
//   - [Registry] polls the watcher for registered items and reads every item
//     from scratch on each call.
//   - [Host] registers the bar as a tray host and reports item changes, so
//     the bar can poll right away instead of waiting for the next tick.
//   - [Watcher] is an optional watcher for sessions that do not run one. Only
//     one watcher can be present on a D-Bus at a time.
//
// Menus are fetched with [Registry.Menu] and activated with
// [Registry.Activate].
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/
package systray
