package audio

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jfreymuth/pulse/proto"
	"github.com/rs/zerolog/log"
)

// Subscription masks and event bits of the native protocol.
const (
	subscriptionMaskSink      = 0x0001
	subscriptionMaskSinkInput = 0x0004

	eventFacilityMask = 0x0F
	eventTypeMask     = 0x30

	eventFacilitySink      = 0x00
	eventFacilitySource    = 0x01
	eventFacilitySinkInput = 0x02

	eventTypeNew    = 0x00
	eventTypeChange = 0x10
	eventTypeRemove = 0x20
)

const propApplicationName = "application.name"

// undefinedIndex makes the server look an object up by name.
const undefinedIndex = 0xFFFFFFFF

// DefaultHeartbeat is how often a [PulseBackend] checks that the server is
// still there.
const DefaultHeartbeat = 2 * time.Second

// PulseBackend is a [Backend] speaking the PulseAudio native protocol. It
// also works against PipeWire's pulse server.
type PulseBackend struct {
	name      string
	server    string
	heartbeat time.Duration

	client        *proto.Client
	conn          net.Conn
	notifications *queue[Notification]

	mu    sync.Mutex
	state State
}

// NewPulseBackend returns a backend that connects to server, or to the
// default server if server is empty. name is shown to the server as the
// client name.
func NewPulseBackend(name, server string) *PulseBackend {
	return &PulseBackend{
		name:          name,
		server:        server,
		heartbeat:     DefaultHeartbeat,
		notifications: newQueue[Notification](),
		state:         StateUnconnected,
	}
}

func (b *PulseBackend) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

func (b *PulseBackend) setState(state State) {
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
}

func (b *PulseBackend) Connect(ctx context.Context) error {
	b.setState(StateConnecting)

	client, conn, err := proto.Connect(b.server)
	if err != nil {
		b.setState(StateFailed)
		return fmt.Errorf("pulse: %w", err)
	}

	client.Callback = b.callback

	err = client.Request(&proto.SetClientName{
		Props: proto.PropList{
			propApplicationName: proto.PropListString(b.name),
		},
	}, &proto.SetClientNameReply{})
	if err != nil {
		conn.Close()
		b.setState(StateFailed)
		return fmt.Errorf("pulse: set client name: %w", err)
	}

	if err := ctx.Err(); err != nil {
		conn.Close()
		b.setState(StateTerminated)
		return err
	}

	b.client = client
	b.conn = conn
	b.setState(StateReady)

	return nil
}

// callback runs on the protocol read goroutine and must not issue requests.
func (b *PulseBackend) callback(msg any) {
	event, ok := msg.(*proto.SubscribeEvent)
	if !ok {
		return
	}

	notification, ok := notificationFromEvent(uint32(event.Event), event.Index)
	if !ok {
		return
	}

	b.notifications.Push(notification)
}

// notificationFromEvent decodes the facility and type bits of a subscription
// event.
func notificationFromEvent(event, index uint32) (Notification, bool) {
	n := Notification{Index: index}

	switch event & eventFacilityMask {
	case eventFacilitySink:
		n.Facility = FacilitySink
	case eventFacilitySource:
		n.Facility = FacilitySource
	case eventFacilitySinkInput:
		n.Facility = FacilitySinkInput
	default:
		n.Facility = FacilityOther
	}

	switch event & eventTypeMask {
	case eventTypeNew:
		n.Operation = OperationNew
	case eventTypeChange:
		n.Operation = OperationChanged
	case eventTypeRemove:
		n.Operation = OperationRemoved
	default:
		return Notification{}, false
	}

	return n, true
}

func (b *PulseBackend) Subscribe(ctx context.Context) (<-chan Notification, error) {
	err := b.client.Request(&proto.Subscribe{
		Mask: proto.SubscriptionMask(subscriptionMaskSink | subscriptionMaskSinkInput),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("pulse: subscribe: %w", err)
	}

	out := make(chan Notification)

	go func() {
		defer close(out)

		ticker := time.NewTicker(b.heartbeat)
		defer ticker.Stop()

		for {
			for _, n := range b.notifications.Drain() {
				select {
				case out <- n:
				case <-ctx.Done():
					b.setState(StateTerminated)
					return
				}
			}

			select {
			case <-ctx.Done():
				b.setState(StateTerminated)
				return
			case <-b.notifications.Ready():
			case <-ticker.C:
				if err := b.client.Request(&proto.GetServerInfo{}, &proto.GetServerInfoReply{}); err != nil {
					log.Error().Err(err).Msg("lost connection to audio server")
					b.setState(StateTerminated)
					return
				}
			}
		}
	}()

	return out, nil
}

func (b *PulseBackend) DefaultSink(ctx context.Context) (Endpoint, error) {
	var server proto.GetServerInfoReply
	if err := b.client.Request(&proto.GetServerInfo{}, &server); err != nil {
		return Endpoint{}, fmt.Errorf("pulse: server info: %w", err)
	}

	if server.DefaultSinkName == "" {
		return Endpoint{}, fmt.Errorf("pulse: default sink name is not available")
	}

	var reply proto.GetSinkInfoReply
	err := b.client.Request(&proto.GetSinkInfo{SinkIndex: undefinedIndex, SinkName: server.DefaultSinkName}, &reply)
	if err != nil {
		return Endpoint{}, fmt.Errorf("pulse: sink %s: %w", server.DefaultSinkName, err)
	}

	return sinkEndpoint(&reply), nil
}

func (b *PulseBackend) Sink(ctx context.Context, index uint32) (Endpoint, error) {
	var reply proto.GetSinkInfoReply
	if err := b.client.Request(&proto.GetSinkInfo{SinkIndex: index}, &reply); err != nil {
		return Endpoint{}, fmt.Errorf("pulse: sink %d: %w", index, err)
	}

	return sinkEndpoint(&reply), nil
}

func (b *PulseBackend) SinkInput(ctx context.Context, index uint32) (Endpoint, error) {
	var reply proto.GetSinkInputInfoReply
	if err := b.client.Request(&proto.GetSinkInputInfo{SinkInputIndex: index}, &reply); err != nil {
		return Endpoint{}, fmt.Errorf("pulse: sink input %d: %w", index, err)
	}

	return sinkInputEndpoint(&reply), nil
}

func (b *PulseBackend) SinkInputs(ctx context.Context) ([]Endpoint, error) {
	var reply proto.GetSinkInputInfoListReply
	if err := b.client.Request(&proto.GetSinkInputInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("pulse: sink inputs: %w", err)
	}

	endpoints := make([]Endpoint, 0, len(reply))
	for _, input := range reply {
		endpoints = append(endpoints, sinkInputEndpoint(input))
	}

	return endpoints, nil
}

func (b *PulseBackend) SetSinkVolume(ctx context.Context, index uint32, volumes []uint32) error {
	return b.client.Request(&proto.SetSinkVolume{
		SinkIndex:      index,
		ChannelVolumes: proto.ChannelVolumes(volumes),
	}, nil)
}

func (b *PulseBackend) SetSinkInputVolume(ctx context.Context, index uint32, volumes []uint32) error {
	return b.client.Request(&proto.SetSinkInputVolume{
		SinkInputIndex: index,
		ChannelVolumes: proto.ChannelVolumes(volumes),
	}, nil)
}

func (b *PulseBackend) SetSinkMute(ctx context.Context, index uint32, mute bool) error {
	return b.client.Request(&proto.SetSinkMute{SinkIndex: index, Mute: mute}, nil)
}

func (b *PulseBackend) SetSinkInputMute(ctx context.Context, index uint32, mute bool) error {
	return b.client.Request(&proto.SetSinkInputMute{SinkInputIndex: index, Mute: mute}, nil)
}

func (b *PulseBackend) Close() error {
	if b.conn == nil {
		return nil
	}

	b.setState(StateTerminated)

	return b.conn.Close()
}

func sinkEndpoint(reply *proto.GetSinkInfoReply) Endpoint {
	return Endpoint{
		Index:    reply.SinkIndex,
		Volume:   PercentFromVolumes(reply.ChannelVolumes),
		Muted:    reply.Mute,
		Channels: uint8(len(reply.ChannelVolumes)),
	}
}

func sinkInputEndpoint(reply *proto.GetSinkInputInfoReply) Endpoint {
	appName := UnknownApp
	if entry, ok := reply.Properties[propApplicationName]; ok {
		if name := entry.String(); name != "" {
			appName = name
		}
	}

	return Endpoint{
		Index:    reply.SinkInputIndex,
		Volume:   PercentFromVolumes(reply.ChannelVolumes),
		Muted:    reply.Muted,
		Channels: uint8(len(reply.ChannelVolumes)),
		AppName:  appName,
	}
}
