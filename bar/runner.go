package bar

import (
	"context"
	"time"

	"github.com/regimentor/oxidbar/audio"
	"github.com/regimentor/oxidbar/clock"
	"github.com/regimentor/oxidbar/hyprland"
	"github.com/regimentor/oxidbar/systray"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
)

type WorkspaceSource interface {
	Snapshot(ctx context.Context) (*hyprland.Snapshot, error)
}

// CompositorEvents reports workspace-affecting compositor events on out.
// It is satisfied by [*hyprland.Client].
type CompositorEvents interface {
	Listen(ctx context.Context, out chan<- struct{}) error
}

type KeymapSource interface {
	MainKeymap(ctx context.Context) (string, error)
}

type TraySource interface {
	Items(ctx context.Context) ([]*systray.Item, error)
}

// Mixer is satisfied by [*audio.Mixer].
type Mixer interface {
	Run(ctx context.Context) error
	Submit(cmd audio.Command)
}

// Sources are the inputs of a [Runner]. Any of them may be nil, in which case
// the matching part of the frame stays empty.
type Sources struct {
	Workspaces WorkspaceSource
	Events     CompositorEvents
	Keymap     KeymapSource
	Tray       TraySource

	// TrayChanges triggers a tray poll ahead of the interval.
	TrayChanges <-chan struct{}

	Mixer       Mixer
	AudioEvents <-chan audio.Event

	Clock *clock.Clock

	// IconExists is passed to [NewTrayView].
	IconExists func(string) bool
}

type Intervals struct {
	Workspaces time.Duration
	Layout     time.Duration
	Clock      time.Duration
	Tray       time.Duration
	Audio      time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		Workspaces: 100 * time.Millisecond,
		Layout:     200 * time.Millisecond,
		Clock:      time.Second,
		Tray:       time.Second,
		Audio:      50 * time.Millisecond,
	}
}

type trayResult struct {
	items []*systray.Item
	err   error
}

// Runner keeps the bar state and updates it from a single goroutine. Sources
// that block run in their own goroutines and talk to the loop through
// channels only.
type Runner struct {
	sources   Sources
	intervals Intervals
	sink      Sink
	actions   chan func(*AudioView) audio.Command

	frame Frame
}

func NewRunner(sources Sources, intervals Intervals, sink Sink) *Runner {
	return &Runner{
		sources:   sources,
		intervals: intervals,
		sink:      sink,
		actions:   make(chan func(*AudioView) audio.Command, 16),
		frame: Frame{
			Workspaces: NewWorkspacesView(nil),
			Tray:       TrayView{Entries: []TrayEntry{}},
			Audio:      NewAudioView(),
		},
	}
}

// Audio queues fn to run on the loop goroutine. The command fn returns, if
// any, is submitted to the mixer. It is how volume sliders and mute buttons
// reach the server.
func (r *Runner) Audio(ctx context.Context, fn func(*AudioView) audio.Command) error {
	select {
	case r.actions <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the background sources and the update loop. It returns when ctx
// is done. Long-lived sources share a pool started before it is waited on;
// tray polls are owned by the loop.
func (r *Runner) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx)

	signals := make(chan struct{}, 1)

	if r.sources.Events != nil {
		p.Go(func(ctx context.Context) error {
			if err := r.sources.Events.Listen(ctx, signals); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("context", "compositor").Msg("event listener stopped")
			}
			return nil
		})
	}

	if r.sources.Mixer != nil {
		p.Go(func(ctx context.Context) error {
			if err := r.sources.Mixer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("context", "audio").Msg("mixer stopped")
			}
			return nil
		})
	}

	p.Go(func(ctx context.Context) error {
		return r.loop(ctx, signals)
	})

	err := p.Wait()
	if ctx.Err() != nil {
		return nil
	}

	return err
}

func (r *Runner) loop(ctx context.Context, signals <-chan struct{}) error {
	workspaces := time.NewTicker(r.intervals.Workspaces)
	defer workspaces.Stop()
	layout := time.NewTicker(r.intervals.Layout)
	defer layout.Stop()
	clockTicker := time.NewTicker(r.intervals.Clock)
	defer clockTicker.Stop()
	tray := time.NewTicker(r.intervals.Tray)
	defer tray.Stop()
	audioTicker := time.NewTicker(r.intervals.Audio)
	defer audioTicker.Stop()

	var polls conc.WaitGroup
	defer polls.Wait()

	trayResults := make(chan trayResult, 1)
	trayInFlight := false

	pollTray := func() {
		if r.sources.Tray == nil || trayInFlight {
			return
		}

		trayInFlight = true
		polls.Go(func() {
			items, err := r.sources.Tray.Items(ctx)
			select {
			case trayResults <- trayResult{items: items, err: err}:
			case <-ctx.Done():
			}
		})
	}

	r.refreshWorkspaces(ctx)
	r.refreshLayout(ctx)
	r.refreshClock()
	pollTray()
	r.emit()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-workspaces.C:
			if drain(signals) && r.refreshWorkspaces(ctx) {
				r.emit()
			}

		case <-layout.C:
			if r.refreshLayout(ctx) {
				r.emit()
			}

		case <-clockTicker.C:
			if r.refreshClock() {
				r.emit()
			}

		case <-tray.C:
			pollTray()

		case <-r.sources.TrayChanges:
			pollTray()

		case result := <-trayResults:
			trayInFlight = false
			if r.applyTray(result) {
				r.emit()
			}

		case <-audioTicker.C:
			if r.drainAudio() {
				r.emit()
			}

		case fn := <-r.actions:
			if cmd := fn(r.frame.Audio); cmd != nil && r.sources.Mixer != nil {
				r.sources.Mixer.Submit(cmd)
			}
			r.emit()
		}
	}
}

// drain empties signals and reports whether anything was pending.
func drain(signals <-chan struct{}) bool {
	pending := false
	for {
		select {
		case <-signals:
			pending = true
		default:
			return pending
		}
	}
}

func (r *Runner) refreshWorkspaces(ctx context.Context) bool {
	if r.sources.Workspaces == nil {
		return false
	}

	snapshot, err := r.sources.Workspaces.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Str("context", "workspaces").Msg("failed to query compositor")
		r.frame.Workspaces = WorkspacesError(err)
		return true
	}

	r.frame.Workspaces = NewWorkspacesView(snapshot)

	return true
}

func (r *Runner) refreshLayout(ctx context.Context) bool {
	if r.sources.Keymap == nil {
		return false
	}

	keymap, err := r.sources.Keymap.MainKeymap(ctx)
	if err != nil {
		log.Debug().Err(err).Str("context", "layout").Msg("failed to query keymap")
		return false
	}

	flag := LayoutFlag(keymap)
	if flag == r.frame.Layout {
		return false
	}

	r.frame.Layout = flag

	return true
}

func (r *Runner) refreshClock() bool {
	if r.sources.Clock == nil {
		return false
	}

	text := r.sources.Clock.Text()
	if text == r.frame.Clock {
		return false
	}

	r.frame.Clock = text

	return true
}

func (r *Runner) applyTray(result trayResult) bool {
	if result.err != nil {
		log.Error().Err(result.err).Str("context", "tray").Msg("failed to poll items")
		return false
	}

	r.frame.Tray = NewTrayView(result.items, r.sources.IconExists)

	return true
}

func (r *Runner) drainAudio() bool {
	if r.sources.AudioEvents == nil {
		return false
	}

	var change Change
	for {
		select {
		case event, ok := <-r.sources.AudioEvents:
			if !ok {
				r.sources.AudioEvents = nil
				return change != 0
			}
			change |= r.frame.Audio.Apply(event)
		default:
			return change != 0
		}
	}
}

func (r *Runner) emit() {
	if err := r.sink.Emit(r.frame); err != nil {
		log.Error().Err(err).Str("context", "frame").Msg("failed to emit frame")
	}
}
