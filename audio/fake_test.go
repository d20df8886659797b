package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var errGone = errors.New("no such entity")

// fakeBackend serves endpoints from memory and records every call.
type fakeBackend struct {
	mu sync.Mutex

	release    chan struct{}
	connectErr error

	defaultSink uint32
	sinks       map[uint32]Endpoint
	inputs      map[uint32]Endpoint
	inputOrder  []uint32
	setErr      error

	notifications chan Notification
	state         State
	calls         []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		defaultSink: 1,
		sinks: map[uint32]Endpoint{
			1: {Index: 1, Volume: 40, Channels: 2},
		},
		inputs: map[uint32]Endpoint{
			7: {Index: 7, Volume: 100, Channels: 2, AppName: "mpv"},
			9: {Index: 9, Volume: 55, Channels: 1, Muted: true, AppName: "Firefox"},
		},
		inputOrder:    []uint32{7, 9},
		notifications: make(chan Notification, 16),
		state:         StateReady,
	}
}

func (f *fakeBackend) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) Connect(ctx context.Context) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.record("connect")

	return f.connectErr
}

func (f *fakeBackend) Subscribe(context.Context) (<-chan Notification, error) {
	f.record("subscribe")
	return f.notifications, nil
}

func (f *fakeBackend) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

func (f *fakeBackend) DefaultSink(ctx context.Context) (Endpoint, error) {
	f.record("default-sink")
	return f.sinks[f.defaultSink], nil
}

func (f *fakeBackend) Sink(_ context.Context, index uint32) (Endpoint, error) {
	f.record("sink %d", index)

	sink, ok := f.sinks[index]
	if !ok {
		return Endpoint{}, errGone
	}
	return sink, nil
}

func (f *fakeBackend) SinkInput(_ context.Context, index uint32) (Endpoint, error) {
	f.record("sink-input %d", index)

	input, ok := f.inputs[index]
	if !ok {
		return Endpoint{}, errGone
	}
	return input, nil
}

func (f *fakeBackend) SinkInputs(context.Context) ([]Endpoint, error) {
	f.record("sink-inputs")

	inputs := make([]Endpoint, 0, len(f.inputOrder))
	for _, index := range f.inputOrder {
		inputs = append(inputs, f.inputs[index])
	}
	return inputs, nil
}

func (f *fakeBackend) SetSinkVolume(_ context.Context, index uint32, volumes []uint32) error {
	f.record("set-sink-volume %d %v", index, volumes)
	return f.setErr
}

func (f *fakeBackend) SetSinkInputVolume(_ context.Context, index uint32, volumes []uint32) error {
	f.record("set-sink-input-volume %d %v", index, volumes)
	return f.setErr
}

func (f *fakeBackend) SetSinkMute(_ context.Context, index uint32, mute bool) error {
	f.record("set-sink-mute %d %t", index, mute)
	return f.setErr
}

func (f *fakeBackend) SetSinkInputMute(_ context.Context, index uint32, mute bool) error {
	f.record("set-sink-input-mute %d %t", index, mute)
	return f.setErr
}

func (f *fakeBackend) Close() error {
	return nil
}
