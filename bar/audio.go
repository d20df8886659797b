package bar

import (
	"fmt"

	"github.com/regimentor/oxidbar/audio"
)

// Change tells which parts of a view an update touched.
type Change uint8

const (
	ChangeVolume Change = 1 << iota
	ChangeMute
	ChangeApps
)

func (c Change) Has(flag Change) bool {
	return c&flag != 0
}

type AppEntry struct {
	SinkInput uint32 `json:"sink_input"`
	Name      string `json:"name"`
	Volume    uint32 `json:"volume"`
	Muted     bool   `json:"muted"`
}

// AudioView is the volume state shown by the bar.
//
// Volume changes made through the view are shown immediately and the
// matching report from the server is recognised as a confirmation: it only
// updates the mute state, so the slider does not jump back and forth.
type AudioView struct {
	Sink    uint32     `json:"sink"`
	HasSink bool       `json:"has_sink"`
	Volume  uint32     `json:"volume"`
	Muted   bool       `json:"muted"`
	Label   string     `json:"label"`
	Apps    []AppEntry `json:"apps"`

	global audio.Expectation
	apps   map[uint32]*audio.Expectation
}

func NewAudioView() *AudioView {
	v := &AudioView{
		Apps: []AppEntry{},
		apps: make(map[uint32]*audio.Expectation),
	}
	v.refreshLabel()

	return v
}

func (v *AudioView) refreshLabel() {
	if v.Muted {
		v.Label = "MUTE"
		return
	}

	v.Label = fmt.Sprintf("VOL %d%%", v.Volume)
}

func (v *AudioView) expectation(sinkInput uint32) *audio.Expectation {
	e, ok := v.apps[sinkInput]
	if !ok {
		e = &audio.Expectation{}
		v.apps[sinkInput] = e
	}

	return e
}

func (v *AudioView) app(sinkInput uint32) (*AppEntry, bool) {
	for i := range v.Apps {
		if v.Apps[i].SinkInput == sinkInput {
			return &v.Apps[i], true
		}
	}

	return nil, false
}

// SetVolume shows volume right away and returns the command that applies it.
func (v *AudioView) SetVolume(volume int) audio.Command {
	target := audio.ClampPercent(volume)

	v.Volume = target
	v.global.Expect(target)
	v.refreshLabel()

	return audio.SetGlobalVolume{Sink: v.Sink, Volume: int(target)}
}

// SetAppVolume shows volume for sinkInput right away and returns the command
// that applies it.
func (v *AudioView) SetAppVolume(sinkInput uint32, volume int) audio.Command {
	target := audio.ClampPercent(volume)

	if app, ok := v.app(sinkInput); ok {
		app.Volume = target
	}
	v.expectation(sinkInput).Expect(target)

	return audio.SetAppVolume{SinkInput: sinkInput, Volume: int(target)}
}

func (v *AudioView) ToggleMute() audio.Command {
	return audio.ToggleGlobalMute{Sink: v.Sink}
}

func (v *AudioView) ToggleAppMute(sinkInput uint32) audio.Command {
	return audio.ToggleAppMute{SinkInput: sinkInput}
}

// Apply folds a mixer event into the view.
func (v *AudioView) Apply(event audio.Event) Change {
	var change Change

	switch e := event.(type) {
	case audio.GlobalVolumeReceived:
		v.global.Clear()
		change = v.setGlobal(e.Sink, e.Volume, e.Muted, true)
	case audio.GlobalVolumeChanged:
		full := v.global.Observe(e.Volume) == audio.Foreign
		change = v.setGlobal(e.Sink, e.Volume, e.Muted, full)
	case audio.AppVolumeReceived:
		v.expectation(e.SinkInput).Clear()
		change = v.setApp(e.SinkInput, e.AppName, e.Volume, e.Muted, true)
	case audio.AppVolumeChanged:
		full := v.expectation(e.SinkInput).Observe(e.Volume) == audio.Foreign
		change = v.setApp(e.SinkInput, e.AppName, e.Volume, e.Muted, full)
	case audio.AppsListUpdated:
		change = v.replaceApps(e.Apps)
	}

	v.refreshLabel()

	return change
}

func (v *AudioView) setGlobal(sink, volume uint32, muted, full bool) Change {
	var change Change

	v.Sink = sink
	v.HasSink = true

	if full && v.Volume != volume {
		v.Volume = volume
		change |= ChangeVolume
	}

	if v.Muted != muted {
		v.Muted = muted
		change |= ChangeMute
	}

	return change
}

func (v *AudioView) setApp(sinkInput uint32, name string, volume uint32, muted, full bool) Change {
	app, ok := v.app(sinkInput)
	if !ok {
		v.Apps = append(v.Apps, AppEntry{SinkInput: sinkInput, Name: name, Volume: volume, Muted: muted})
		return ChangeApps
	}

	var change Change

	if name != "" {
		app.Name = name
	}

	if full && app.Volume != volume {
		app.Volume = volume
		change |= ChangeVolume
	}

	if app.Muted != muted {
		app.Muted = muted
		change |= ChangeMute
	}

	return change
}

func (v *AudioView) replaceApps(endpoints []audio.Endpoint) Change {
	apps := make([]AppEntry, 0, len(endpoints))
	alive := make(map[uint32]bool, len(endpoints))

	for _, endpoint := range endpoints {
		apps = append(apps, AppEntry{
			SinkInput: endpoint.Index,
			Name:      endpoint.AppName,
			Volume:    endpoint.Volume,
			Muted:     endpoint.Muted,
		})
		alive[endpoint.Index] = true
	}

	for index := range v.apps {
		if !alive[index] {
			delete(v.apps, index)
		}
	}

	v.Apps = apps

	return ChangeApps
}
