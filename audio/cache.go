package audio

// Kind tells sinks and sink inputs apart. Their indices are separate
// namespaces on the server.
type Kind int

const (
	KindSink Kind = iota
	KindSinkInput
)

// Key identifies an endpoint.
type Key struct {
	Kind  Kind
	Index uint32
}

func SinkKey(index uint32) Key      { return Key{Kind: KindSink, Index: index} }
func SinkInputKey(index uint32) Key { return Key{Kind: KindSinkInput, Index: index} }

// ChannelCache remembers the channel count, last known mute state and
// application name of endpoints, so volume changes need no extra round trip. It is owned by the
// mixer goroutine and is not safe for concurrent use.
type ChannelCache struct {
	channels map[Key]uint8
	muted    map[Key]bool
	appNames map[Key]string
}

func NewChannelCache() *ChannelCache {
	return &ChannelCache{
		channels: make(map[Key]uint8),
		muted:    make(map[Key]bool),
		appNames: make(map[Key]string),
	}
}

// Channels returns the cached channel count of key.
func (c *ChannelCache) Channels(key Key) (uint8, bool) {
	channels, ok := c.channels[key]
	return channels, ok
}

// Muted returns the last known mute state of key, false if unknown.
func (c *ChannelCache) Muted(key Key) bool {
	return c.muted[key]
}

// AppName returns the last known application name of key, "" if unknown.
func (c *ChannelCache) AppName(key Key) string {
	return c.appNames[key]
}

// Observe records what the server reported for an endpoint.
func (c *ChannelCache) Observe(key Key, endpoint Endpoint) {
	c.channels[key] = endpoint.Channels
	c.muted[key] = endpoint.Muted
	c.appNames[key] = endpoint.AppName
}

// Len returns the number of cached endpoints.
func (c *ChannelCache) Len() int {
	return len(c.channels)
}
