// Package audio keeps sink and sink-input volume state in sync with a
// PulseAudio server. A [Mixer] accepts [Command] values from the UI and
// reports every change as an [Event].
package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrNoChannels is returned for endpoints that report zero channels.
	ErrNoChannels = errors.New("endpoint has no channels")

	// ErrContextTerminal is returned by [Mixer.Run] when the connection to
	// the server reached a terminal state.
	ErrContextTerminal = errors.New("audio context is terminal")
)

// UnknownApp is the application name of sink inputs without one.
const UnknownApp = "Unknown"

// Endpoint is a sink or a sink input.
type Endpoint struct {
	Index uint32

	// Volume in percent, 0 to 100.
	Volume   uint32
	Muted    bool
	Channels uint8

	// Only set for sink inputs.
	AppName string
}

// State is the state of the connection to the server.
type State int

const (
	StateUnconnected State = iota
	StateConnecting
	StateReady
	StateFailed
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateTerminated || s == StateUnconnected
}

// Command is a request to the mixer.
type Command interface {
	command()
}

// SetGlobalVolume sets the volume of a sink. Volume is clamped to [0, 100].
type SetGlobalVolume struct {
	Sink   uint32
	Volume int
}

type ToggleGlobalMute struct {
	Sink uint32
}

// SetAppVolume sets the volume of a sink input. Volume is clamped to
// [0, 100].
type SetAppVolume struct {
	SinkInput uint32
	Volume    int
}

type ToggleAppMute struct {
	SinkInput uint32
}

// RequestGlobalVolume asks for the volume of Sink, or of the default sink
// when Sink is nil.
type RequestGlobalVolume struct {
	Sink *uint32
}

// RequestAppsList asks for all sink inputs.
type RequestAppsList struct{}

func (SetGlobalVolume) command()     {}
func (ToggleGlobalMute) command()    {}
func (SetAppVolume) command()        {}
func (ToggleAppMute) command()       {}
func (RequestGlobalVolume) command() {}
func (RequestAppsList) command()     {}

// Event is a change reported by the mixer. Received events answer explicit
// requests, Changed events follow server notifications or optimistic updates.
type Event interface {
	event()
}

type GlobalVolumeReceived struct {
	Sink   uint32
	Volume uint32
	Muted  bool
}

type GlobalVolumeChanged struct {
	Sink   uint32
	Volume uint32
	Muted  bool
}

type AppVolumeReceived struct {
	SinkInput uint32
	Volume    uint32
	Muted     bool
	AppName   string
}

type AppVolumeChanged struct {
	SinkInput uint32
	Volume    uint32
	Muted     bool
	AppName   string
}

// AppsListUpdated carries the full list of sink inputs.
type AppsListUpdated struct {
	Apps []Endpoint
}

func (GlobalVolumeReceived) event() {}
func (GlobalVolumeChanged) event()  {}
func (AppVolumeReceived) event()    {}
func (AppVolumeChanged) event()     {}
func (AppsListUpdated) event()      {}
