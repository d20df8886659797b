package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/regimentor/oxidbar/audio"
	"github.com/regimentor/oxidbar/bar"
	"github.com/spf13/cobra"
)

const (
	audioTimeout = 5 * time.Second

	// audioSettle is how long the initial state may stay quiet before it is
	// considered complete.
	audioSettle = 100 * time.Millisecond
)

var errAudioTimeout = errors.New("audio server did not answer in time")

// audioSession runs a mixer for the duration of one command and mirrors its
// events into a view.
type audioSession struct {
	mixer  *audio.Mixer
	events chan audio.Event
	errs   chan error
	view   *bar.AudioView
}

func startAudio(ctx context.Context, opts *options) *audioSession {
	events := make(chan audio.Event, 64)

	s := &audioSession{
		mixer:  audio.NewMixer(audio.NewPulseBackend(clientName, opts.cfg.PulseServer), events),
		events: events,
		errs:   make(chan error, 1),
		view:   bar.NewAudioView(),
	}

	go func() {
		s.errs <- s.mixer.Run(ctx)
	}()

	return s
}

// waitFor applies events until done reports true for one of them. With
// settle set, it then keeps applying events until none arrives for
// [audioSettle].
func (s *audioSession) waitFor(ctx context.Context, done func(audio.Event) bool, settle bool) error {
	timeout := time.NewTimer(audioTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return errAudioTimeout
		case err := <-s.errs:
			return fmt.Errorf("mixer stopped: %w", err)
		case event := <-s.events:
			s.view.Apply(event)
			if done(event) {
				if settle {
					s.settle()
				}
				return nil
			}
		}
	}
}

func (s *audioSession) settle() {
	for {
		select {
		case event := <-s.events:
			s.view.Apply(event)
		case <-time.After(audioSettle):
			return
		}
	}
}

func (s *audioSession) ready(ctx context.Context) error {
	return s.waitFor(ctx, isGlobalVolume, true)
}

func isAppsList(event audio.Event) bool {
	_, ok := event.(audio.AppsListUpdated)
	return ok
}

func isGlobalVolume(event audio.Event) bool {
	_, ok := event.(audio.GlobalVolumeReceived)
	return ok
}

// apply submits cmd followed by a request whose answer proves cmd has been
// executed.
func (s *audioSession) apply(ctx context.Context, cmd audio.Command, app bool) error {
	s.mixer.Submit(cmd)

	if app {
		s.mixer.Submit(audio.RequestAppsList{})
		return s.waitFor(ctx, isAppsList, false)
	}

	sink := s.view.Sink
	s.mixer.Submit(audio.RequestGlobalVolume{Sink: &sink})

	return s.waitFor(ctx, isGlobalVolume, false)
}

func newAudioCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Show and change the volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAudio(cmd, opts, func(ctx context.Context, s *audioSession) error {
				return writeAudio(cmd.OutOrStdout(), s.view)
			})
		},
	}

	cmd.AddCommand(newAudioSetCmd(opts), newAudioMuteCmd(opts))

	return cmd
}

func withAudio(cmd *cobra.Command, opts *options, fn func(context.Context, *audioSession) error) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s := startAudio(ctx, opts)
	if err := s.ready(ctx); err != nil {
		return err
	}

	return fn(ctx, s)
}

func newAudioSetCmd(opts *options) *cobra.Command {
	var app uint32

	cmd := &cobra.Command{
		Use:   "set PERCENT",
		Short: "Set the volume of the default sink or of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid volume %q: %w", args[0], err)
			}

			forApp := cmd.Flags().Changed("app")

			return withAudio(cmd, opts, func(ctx context.Context, s *audioSession) error {
				var command audio.Command
				if forApp {
					command = s.view.SetAppVolume(app, percent)
				} else {
					command = s.view.SetVolume(percent)
				}

				if err := s.apply(ctx, command, forApp); err != nil {
					return err
				}

				return writeAudio(cmd.OutOrStdout(), s.view)
			})
		},
	}

	cmd.Flags().Uint32Var(&app, "app", 0, "Sink input index of the application")

	return cmd
}

func newAudioMuteCmd(opts *options) *cobra.Command {
	var app uint32

	cmd := &cobra.Command{
		Use:   "mute",
		Short: "Toggle mute of the default sink or of an application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			forApp := cmd.Flags().Changed("app")

			return withAudio(cmd, opts, func(ctx context.Context, s *audioSession) error {
				command := s.view.ToggleMute()
				if forApp {
					command = s.view.ToggleAppMute(app)
				}

				if err := s.apply(ctx, command, forApp); err != nil {
					return err
				}

				return writeAudio(cmd.OutOrStdout(), s.view)
			})
		},
	}

	cmd.Flags().Uint32Var(&app, "app", 0, "Sink input index of the application")

	return cmd
}

func writeAudio(w io.Writer, view *bar.AudioView) error {
	table := tablewriter.NewWriter(w)
	table.Header("Index", "Name", "Volume", "Muted")

	rows := [][]string{{
		strconv.FormatUint(uint64(view.Sink), 10),
		"default sink",
		strconv.FormatUint(uint64(view.Volume), 10),
		strconv.FormatBool(view.Muted),
	}}

	for _, app := range view.Apps {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(app.SinkInput), 10),
			app.Name,
			strconv.FormatUint(uint64(app.Volume), 10),
			strconv.FormatBool(app.Muted),
		})
	}

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to add audio row: %w", err)
		}
	}

	return table.Render()
}
