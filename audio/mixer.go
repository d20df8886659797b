package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Mixer drives a [Backend] from a single goroutine. Commands submitted from
// any goroutine are executed in arrival order once the backend is ready.
type Mixer struct {
	backend  Backend
	commands *queue[Command]
	events   *queue[Event]
	out      chan<- Event
	cache    *ChannelCache

	mu    sync.Mutex
	state State
}

// NewMixer returns a mixer that reports events on out.
func NewMixer(backend Backend, out chan<- Event) *Mixer {
	return &Mixer{
		backend:  backend,
		commands: newQueue[Command](),
		events:   newQueue[Event](),
		out:      out,
		cache:    NewChannelCache(),
		state:    StateUnconnected,
	}
}

// Submit queues cmd. It never blocks.
func (m *Mixer) Submit(cmd Command) {
	m.commands.Push(cmd)
}

// State returns the connection state.
func (m *Mixer) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

func (m *Mixer) setState(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	log.Debug().Stringer("state", state).Msg("audio state changed")
}

// Run connects to the server, subscribes to sink and sink-input changes,
// reports the initial state and then serves commands and notifications.
//
// Run returns when ctx is done or when the connection becomes terminal, in
// which case the error wraps [ErrContextTerminal]. There is no reconnect.
func (m *Mixer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go m.events.relay(ctx, m.out)

	m.setState(StateConnecting)

	if err := m.backend.Connect(ctx); err != nil {
		m.setState(StateFailed)
		return fmt.Errorf("%w: connect: %w", ErrContextTerminal, err)
	}
	defer m.backend.Close()

	notifications, err := m.backend.Subscribe(ctx)
	if err != nil {
		m.setState(StateFailed)
		return fmt.Errorf("%w: subscribe: %w", ErrContextTerminal, err)
	}

	m.setState(StateReady)
	log.Info().Msg("audio server is ready")

	m.requestInitialState(ctx)

	for {
		for _, cmd := range m.commands.Drain() {
			m.handle(ctx, cmd)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.commands.Ready():
		case notification, ok := <-notifications:
			if !ok {
				state := m.backend.State()
				if !state.Terminal() {
					state = StateTerminated
				}
				m.setState(state)
				return fmt.Errorf("%w: %s", ErrContextTerminal, state)
			}

			m.handleNotification(ctx, notification)
		}
	}
}

func (m *Mixer) emit(event Event) {
	m.events.Push(event)
}

func (m *Mixer) requestInitialState(ctx context.Context) {
	m.requestDefaultSink(ctx)

	inputs, err := m.backend.SinkInputs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list sink inputs")
		return
	}

	for _, input := range inputs {
		m.cache.Observe(SinkInputKey(input.Index), input)
		m.emit(AppVolumeReceived{
			SinkInput: input.Index,
			Volume:    input.Volume,
			Muted:     input.Muted,
			AppName:   input.AppName,
		})
	}
}

func (m *Mixer) requestDefaultSink(ctx context.Context) {
	sink, err := m.backend.DefaultSink(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to get default sink")
		return
	}

	m.cache.Observe(SinkKey(sink.Index), sink)
	m.emit(GlobalVolumeReceived{Sink: sink.Index, Volume: sink.Volume, Muted: sink.Muted})
}

func (m *Mixer) handle(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case SetGlobalVolume:
		m.setVolume(ctx, SinkKey(c.Sink), ClampPercent(c.Volume))
	case SetAppVolume:
		m.setVolume(ctx, SinkInputKey(c.SinkInput), ClampPercent(c.Volume))
	case ToggleGlobalMute:
		m.toggleMute(ctx, SinkKey(c.Sink))
	case ToggleAppMute:
		m.toggleMute(ctx, SinkInputKey(c.SinkInput))
	case RequestGlobalVolume:
		if c.Sink == nil {
			m.requestDefaultSink(ctx)
			return
		}

		sink, err := m.fetch(ctx, SinkKey(*c.Sink))
		if err != nil {
			log.Error().Err(err).Uint32("sink", *c.Sink).Msg("failed to get sink")
			return
		}

		m.emit(GlobalVolumeReceived{Sink: sink.Index, Volume: sink.Volume, Muted: sink.Muted})
	case RequestAppsList:
		m.refreshApps(ctx)
	default:
		log.Warn().Type("command", cmd).Msg("unknown audio command")
	}
}

// fetch reads an endpoint from the server and caches its channel count.
func (m *Mixer) fetch(ctx context.Context, key Key) (Endpoint, error) {
	var (
		endpoint Endpoint
		err      error
	)

	if key.Kind == KindSink {
		endpoint, err = m.backend.Sink(ctx, key.Index)
	} else {
		endpoint, err = m.backend.SinkInput(ctx, key.Index)
	}

	if err != nil {
		return Endpoint{}, err
	}

	m.cache.Observe(key, endpoint)

	return endpoint, nil
}

// setVolume reports target as the new volume right away and then asks the
// server to apply it. A failed request is logged and not rolled back.
func (m *Mixer) setVolume(ctx context.Context, key Key, target uint32) {
	channels, ok := m.cache.Channels(key)

	if !ok {
		endpoint, err := m.fetch(ctx, key)
		if err != nil {
			log.Error().Err(err).Uint32("index", key.Index).Msg("failed to get endpoint for volume change")
			return
		}

		channels = endpoint.Channels
	}

	volumes, err := ChannelVolumes(channels, target)
	if err != nil {
		log.Error().Err(err).Uint32("index", key.Index).Msg("cannot set volume")
		return
	}

	muted := m.cache.Muted(key)
	appName := m.cache.AppName(key)

	if key.Kind == KindSink {
		m.emit(GlobalVolumeChanged{Sink: key.Index, Volume: target, Muted: muted})
		err = m.backend.SetSinkVolume(ctx, key.Index, volumes)
	} else {
		m.emit(AppVolumeChanged{SinkInput: key.Index, Volume: target, Muted: muted, AppName: appName})
		err = m.backend.SetSinkInputVolume(ctx, key.Index, volumes)
	}

	if err != nil {
		log.Error().Err(err).Uint32("index", key.Index).Uint32("volume", target).Msg("failed to set volume")
	}
}

// toggleMute reads the current mute state and sets the opposite.
func (m *Mixer) toggleMute(ctx context.Context, key Key) {
	endpoint, err := m.fetch(ctx, key)
	if err != nil {
		log.Error().Err(err).Uint32("index", key.Index).Msg("failed to get endpoint for mute change")
		return
	}

	if key.Kind == KindSink {
		err = m.backend.SetSinkMute(ctx, key.Index, !endpoint.Muted)
	} else {
		err = m.backend.SetSinkInputMute(ctx, key.Index, !endpoint.Muted)
	}

	if err != nil {
		log.Error().Err(err).Uint32("index", key.Index).Msg("failed to set mute")
	}
}

func (m *Mixer) refreshApps(ctx context.Context) {
	inputs, err := m.backend.SinkInputs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list sink inputs")
		return
	}

	for _, input := range inputs {
		m.cache.Observe(SinkInputKey(input.Index), input)
	}

	m.emit(AppsListUpdated{Apps: inputs})
}

func (m *Mixer) handleNotification(ctx context.Context, n Notification) {
	switch n.Facility {
	case FacilitySinkInput:
		if n.Operation == OperationRemoved {
			m.refreshApps(ctx)
			return
		}

		input, err := m.fetch(ctx, SinkInputKey(n.Index))
		if err != nil {
			log.Debug().Err(err).Uint32("sink_input", n.Index).Msg("failed to get changed sink input")
			return
		}

		m.emit(AppVolumeChanged{
			SinkInput: input.Index,
			Volume:    input.Volume,
			Muted:     input.Muted,
			AppName:   input.AppName,
		})
	case FacilitySink:
		if n.Operation == OperationRemoved {
			return
		}

		sink, err := m.fetch(ctx, SinkKey(n.Index))
		if err != nil {
			log.Debug().Err(err).Uint32("sink", n.Index).Msg("failed to get changed sink")
			return
		}

		m.emit(GlobalVolumeChanged{Sink: sink.Index, Volume: sink.Volume, Muted: sink.Muted})
	}
}
