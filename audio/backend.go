package audio

import "context"

// Facility is the kind of object a server notification is about.
type Facility int

const (
	FacilitySink Facility = iota
	FacilitySource
	FacilitySinkInput
	FacilityOther
)

// Operation is what happened to the object of a notification.
type Operation int

const (
	OperationNew Operation = iota
	OperationChanged
	OperationRemoved
)

// Notification is a subscription event of the server.
type Notification struct {
	Facility  Facility
	Operation Operation
	Index     uint32
}

// Backend is a connection to an audio server. Calls are made from a single
// goroutine.
type Backend interface {
	// Connect blocks until the connection is ready or fails.
	Connect(ctx context.Context) error

	// Subscribe starts notifications about sinks and sink inputs. The
	// channel is closed when the connection ends; State then reports why.
	Subscribe(ctx context.Context) (<-chan Notification, error)

	// State returns the current connection state.
	State() State

	DefaultSink(ctx context.Context) (Endpoint, error)
	Sink(ctx context.Context, index uint32) (Endpoint, error)
	SinkInput(ctx context.Context, index uint32) (Endpoint, error)
	SinkInputs(ctx context.Context) ([]Endpoint, error)

	SetSinkVolume(ctx context.Context, index uint32, volumes []uint32) error
	SetSinkInputVolume(ctx context.Context, index uint32, volumes []uint32) error
	SetSinkMute(ctx context.Context, index uint32, mute bool) error
	SetSinkInputMute(ctx context.Context, index uint32, mute bool) error

	Close() error
}
