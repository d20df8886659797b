package bar

import (
	"testing"

	"github.com/regimentor/oxidbar/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioViewLabel(t *testing.T) {
	view := NewAudioView()
	assert.Equal(t, "VOL 0%", view.Label)

	view.Apply(audio.GlobalVolumeReceived{Sink: 1, Volume: 42})
	assert.Equal(t, "VOL 42%", view.Label)
	assert.True(t, view.HasSink)

	view.Apply(audio.GlobalVolumeChanged{Sink: 1, Volume: 42, Muted: true})
	assert.Equal(t, "MUTE", view.Label)
}

func TestAudioViewOptimisticVolume(t *testing.T) {
	view := NewAudioView()
	view.Apply(audio.GlobalVolumeReceived{Sink: 4, Volume: 20})

	cmd := view.SetVolume(150)

	assert.Equal(t, audio.SetGlobalVolume{Sink: 4, Volume: 100}, cmd)
	assert.Equal(t, uint32(100), view.Volume)

	// The server echoes the requested volume: only mute may change.
	change := view.Apply(audio.GlobalVolumeChanged{Sink: 4, Volume: 100, Muted: true})
	assert.False(t, change.Has(ChangeVolume))
	assert.True(t, change.Has(ChangeMute))
	assert.Equal(t, uint32(100), view.Volume)

	// Someone else moves the volume.
	change = view.Apply(audio.GlobalVolumeChanged{Sink: 4, Volume: 35, Muted: true})
	assert.True(t, change.Has(ChangeVolume))
	assert.False(t, change.Has(ChangeMute))
	assert.Equal(t, uint32(35), view.Volume)
}

func TestAudioViewConfirmationIsConsumed(t *testing.T) {
	view := NewAudioView()
	view.Apply(audio.GlobalVolumeReceived{Sink: 1, Volume: 50})

	view.SetVolume(60)
	view.Apply(audio.GlobalVolumeChanged{Sink: 1, Volume: 60})

	// A second report of the same value after the confirmation is foreign, but
	// changes nothing.
	change := view.Apply(audio.GlobalVolumeChanged{Sink: 1, Volume: 60})
	assert.Zero(t, change)
}

func TestAudioViewApps(t *testing.T) {
	view := NewAudioView()

	change := view.Apply(audio.AppsListUpdated{Apps: []audio.Endpoint{
		{Index: 7, Volume: 80, AppName: "Firefox"},
		{Index: 9, Volume: 30, AppName: audio.UnknownApp},
	}})
	assert.True(t, change.Has(ChangeApps))
	require.Len(t, view.Apps, 2)

	cmd := view.SetAppVolume(7, -5)
	assert.Equal(t, audio.SetAppVolume{SinkInput: 7, Volume: 0}, cmd)
	assert.Equal(t, uint32(0), view.Apps[0].Volume)

	change = view.Apply(audio.AppVolumeChanged{SinkInput: 7, Volume: 0, Muted: false, AppName: "Firefox"})
	assert.Zero(t, change)

	change = view.Apply(audio.AppVolumeChanged{SinkInput: 9, Volume: 55, AppName: "mpv"})
	assert.True(t, change.Has(ChangeVolume))
	assert.Equal(t, AppEntry{SinkInput: 9, Name: "mpv", Volume: 55}, view.Apps[1])

	change = view.Apply(audio.AppVolumeReceived{SinkInput: 12, Volume: 10, AppName: "Spotify"})
	assert.True(t, change.Has(ChangeApps))
	require.Len(t, view.Apps, 3)

	view.Apply(audio.AppsListUpdated{Apps: []audio.Endpoint{{Index: 9, Volume: 55, AppName: "mpv"}}})
	require.Len(t, view.Apps, 1)
	assert.Equal(t, uint32(9), view.Apps[0].SinkInput)
}

func TestAudioViewToggleCommands(t *testing.T) {
	view := NewAudioView()
	view.Apply(audio.GlobalVolumeReceived{Sink: 3, Volume: 10})

	assert.Equal(t, audio.ToggleGlobalMute{Sink: 3}, view.ToggleMute())
	assert.Equal(t, audio.ToggleAppMute{SinkInput: 8}, view.ToggleAppMute(8))
}
