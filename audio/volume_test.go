package audio

import (
	"testing"

	"github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPercent(t *testing.T) {
	assert.Equal(t, uint32(0), ClampPercent(-1))
	assert.Equal(t, uint32(0), ClampPercent(0))
	assert.Equal(t, uint32(42), ClampPercent(42))
	assert.Equal(t, uint32(100), ClampPercent(100))
	assert.Equal(t, uint32(100), ClampPercent(1000))
}

func TestVolumeRoundTrip(t *testing.T) {
	for percent := uint32(0); percent <= 100; percent++ {
		volume := VolumeFromPercent(percent)
		assert.Equal(t, percent, PercentFromVolumes([]uint32{volume, volume}), "percent %d", percent)
	}

	assert.Equal(t, uint32(VolumeNorm), VolumeFromPercent(100))
	assert.Equal(t, uint32(VolumeNorm), VolumeFromPercent(150))
}

func TestPercentFromVolumes(t *testing.T) {
	assert.Zero(t, PercentFromVolumes(nil))
	assert.Equal(t, uint32(50), PercentFromVolumes([]uint32{VolumeNorm, 0}))
	assert.Equal(t, uint32(100), PercentFromVolumes([]uint32{VolumeNorm * 2}))
}

func TestChannelVolumes(t *testing.T) {
	volumes, err := ChannelVolumes(2, 50)
	require.NoError(t, err)
	assert.Equal(t, []uint32{VolumeNorm / 2, VolumeNorm / 2}, volumes)

	_, err = ChannelVolumes(0, 50)
	assert.ErrorIs(t, err, ErrNoChannels)
}

func TestExpectation(t *testing.T) {
	var e Expectation

	assert.Equal(t, Foreign, e.Observe(30))

	e.Expect(30)
	value, pending := e.Pending()
	assert.True(t, pending)
	assert.Equal(t, uint32(30), value)

	assert.Equal(t, Confirmed, e.Observe(30))
	_, pending = e.Pending()
	assert.False(t, pending)

	e.Expect(30)
	assert.Equal(t, Foreign, e.Observe(31))
	assert.Equal(t, Foreign, e.Observe(30))
}

func TestNotificationFromEvent(t *testing.T) {
	cases := []struct {
		event uint32
		want  Notification
	}{
		{0x00, Notification{Facility: FacilitySink, Operation: OperationNew, Index: 5}},
		{0x10, Notification{Facility: FacilitySink, Operation: OperationChanged, Index: 5}},
		{0x12, Notification{Facility: FacilitySinkInput, Operation: OperationChanged, Index: 5}},
		{0x22, Notification{Facility: FacilitySinkInput, Operation: OperationRemoved, Index: 5}},
		{0x21, Notification{Facility: FacilitySource, Operation: OperationRemoved, Index: 5}},
		{0x14, Notification{Facility: FacilityOther, Operation: OperationChanged, Index: 5}},
	}

	for _, tc := range cases {
		n, ok := notificationFromEvent(tc.event, 5)
		require.True(t, ok)
		assert.Equal(t, tc.want, n)
	}

	_, ok := notificationFromEvent(0x30, 5)
	assert.False(t, ok)
}

func TestSinkInputEndpoint(t *testing.T) {
	endpoint := sinkInputEndpoint(&proto.GetSinkInputInfoReply{
		SinkInputIndex: 12,
		ChannelVolumes: proto.ChannelVolumes{VolumeNorm, VolumeNorm},
		Muted:          true,
		Properties: proto.PropList{
			"application.name": proto.PropListString("mpv"),
		},
	})

	assert.Equal(t, Endpoint{Index: 12, Volume: 100, Muted: true, Channels: 2, AppName: "mpv"}, endpoint)

	unnamed := sinkInputEndpoint(&proto.GetSinkInputInfoReply{SinkInputIndex: 1})
	assert.Equal(t, UnknownApp, unnamed.AppName)
	assert.Zero(t, unnamed.Channels)
}

func TestSinkEndpoint(t *testing.T) {
	endpoint := sinkEndpoint(&proto.GetSinkInfoReply{
		SinkIndex:      3,
		ChannelVolumes: proto.ChannelVolumes{VolumeNorm / 4, VolumeNorm / 4},
	})

	assert.Equal(t, Endpoint{Index: 3, Volume: 25, Channels: 2}, endpoint)
}
