package bar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/regimentor/oxidbar/audio"
	"github.com/regimentor/oxidbar/clock"
	"github.com/regimentor/oxidbar/hyprland"
	"github.com/regimentor/oxidbar/systray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkspaces struct {
	calls atomic.Int32
	err   error
}

func (f *fakeWorkspaces) Snapshot(context.Context) (*hyprland.Snapshot, error) {
	n := int(f.calls.Add(1))
	if f.err != nil {
		return nil, f.err
	}

	workspaces := make(map[int]*hyprland.Workspace, n)
	for id := 1; id <= n; id++ {
		workspaces[id] = &hyprland.Workspace{ID: id}
	}

	return &hyprland.Snapshot{Workspaces: workspaces, ActiveID: intPtr(1)}, nil
}

// fakeEvents reports a single compositor event and waits for cancellation.
type fakeEvents struct{}

func (fakeEvents) Listen(ctx context.Context, out chan<- struct{}) error {
	out <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

type fakeKeymap string

func (k fakeKeymap) MainKeymap(context.Context) (string, error) {
	return string(k), nil
}

type fakeTray struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	overlap  atomic.Bool
	delay    time.Duration
}

func (f *fakeTray) Items(ctx context.Context) ([]*systray.Item, error) {
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inFlight.Add(-1)

	f.calls.Add(1)

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return []*systray.Item{{ID: "telegram", BusName: ":1.5", ObjectPath: "/StatusNotifierItem"}}, nil
}

type fakeMixer struct {
	events chan audio.Event

	mu        sync.Mutex
	submitted []audio.Command
}

func (m *fakeMixer) Run(ctx context.Context) error {
	m.events <- audio.GlobalVolumeReceived{Sink: 2, Volume: 40}
	<-ctx.Done()
	return ctx.Err()
}

func (m *fakeMixer) Submit(cmd audio.Command) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submitted = append(m.submitted, cmd)
}

func (m *fakeMixer) commands() []audio.Command {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]audio.Command(nil), m.submitted...)
}

type frameSummary struct {
	workspaces  int
	tray        int
	layout      string
	clock       string
	audio       string
	placeholder string
}

// recordingSink keeps a summary of every frame. Frames are summarised on the
// loop goroutine since the audio view is shared.
type recordingSink struct {
	mu     sync.Mutex
	frames []frameSummary
}

func (s *recordingSink) Emit(frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = append(s.frames, frameSummary{
		workspaces:  len(frame.Workspaces.Entries),
		tray:        len(frame.Tray.Entries),
		layout:      frame.Layout,
		clock:       frame.Clock,
		audio:       frame.Audio.Label,
		placeholder: frame.Workspaces.Placeholder,
	})

	return nil
}

func (s *recordingSink) last() (frameSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) == 0 {
		return frameSummary{}, false
	}

	return s.frames[len(s.frames)-1], true
}

func fastIntervals() Intervals {
	return Intervals{
		Workspaces: 5 * time.Millisecond,
		Layout:     5 * time.Millisecond,
		Clock:      5 * time.Millisecond,
		Tray:       5 * time.Millisecond,
		Audio:      5 * time.Millisecond,
	}
}

func runInBackground(t *testing.T, runner *Runner) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- runner.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Error("runner did not stop")
		}
	})
}

func TestRunnerFrames(t *testing.T) {
	workspaces := &fakeWorkspaces{}
	tray := &fakeTray{delay: 20 * time.Millisecond}
	mixer := &fakeMixer{events: make(chan audio.Event, 8)}
	sink := &recordingSink{}

	runner := NewRunner(Sources{
		Workspaces:  workspaces,
		Events:      fakeEvents{},
		Keymap:      fakeKeymap("Russian"),
		Tray:        tray,
		Mixer:       mixer,
		AudioEvents: mixer.events,
		Clock:       clock.New("%Y"),
		IconExists:  func(string) bool { return false },
	}, fastIntervals(), sink)

	runInBackground(t, runner)

	require.Eventually(t, func() bool {
		frame, ok := sink.last()
		return ok &&
			frame.workspaces == 2 &&
			frame.tray == 1 &&
			frame.layout == flagRU &&
			frame.audio == "VOL 40%" &&
			frame.clock == time.Now().Format("2006")
	}, time.Second, 5*time.Millisecond)

	// One initial snapshot and one for the single compositor event.
	assert.Equal(t, int32(2), workspaces.calls.Load())
	assert.False(t, tray.overlap.Load())
}

func TestRunnerTrayChanges(t *testing.T) {
	tray := &fakeTray{}
	changes := make(chan struct{}, 1)
	sink := &recordingSink{}

	intervals := fastIntervals()
	intervals.Tray = time.Hour

	runner := NewRunner(Sources{Tray: tray, TrayChanges: changes}, intervals, sink)
	runInBackground(t, runner)

	require.Eventually(t, func() bool {
		return tray.calls.Load() == 1
	}, time.Second, time.Millisecond)

	changes <- struct{}{}

	require.Eventually(t, func() bool {
		return tray.calls.Load() == 2
	}, time.Second, time.Millisecond)
}

func TestRunnerWorkspacesError(t *testing.T) {
	sink := &recordingSink{}
	runner := NewRunner(Sources{
		Workspaces: &fakeWorkspaces{err: errors.New("no socket")},
	}, fastIntervals(), sink)

	runInBackground(t, runner)

	require.Eventually(t, func() bool {
		frame, ok := sink.last()
		return ok && frame.placeholder == "request error (no socket)"
	}, time.Second, time.Millisecond)
}

func TestRunnerAudioActions(t *testing.T) {
	mixer := &fakeMixer{events: make(chan audio.Event, 8)}
	sink := &recordingSink{}

	runner := NewRunner(Sources{Mixer: mixer, AudioEvents: mixer.events}, fastIntervals(), sink)
	runInBackground(t, runner)

	require.Eventually(t, func() bool {
		frame, ok := sink.last()
		return ok && frame.audio == "VOL 40%"
	}, time.Second, time.Millisecond)

	err := runner.Audio(context.Background(), func(view *AudioView) audio.Command {
		return view.SetVolume(75)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		frame, ok := sink.last()
		return ok && frame.audio == "VOL 75%"
	}, time.Second, time.Millisecond)

	assert.Equal(t, []audio.Command{audio.SetGlobalVolume{Sink: 2, Volume: 75}}, mixer.commands())
}

func TestRunnerRepeatedTrayPolls(t *testing.T) {
	tray := &fakeTray{delay: 2 * time.Millisecond}
	sink := &recordingSink{}

	intervals := fastIntervals()
	intervals.Tray = time.Millisecond

	runner := NewRunner(Sources{Tray: tray}, intervals, sink)
	runInBackground(t, runner)

	require.Eventually(t, func() bool {
		return tray.calls.Load() >= 5
	}, time.Second, time.Millisecond)

	frame, ok := sink.last()
	require.True(t, ok)
	assert.Equal(t, 1, frame.tray)
	assert.False(t, tray.overlap.Load())
}
