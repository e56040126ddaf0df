package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/soundq/internal/playback"
)

var (
	playGap     time.Duration
	playTimeout time.Duration
	playNoWait  bool

	playCmd = &cobra.Command{
		Use:   "play CLIP[@VOLUME]...",
		Short: "Play clips by id, name or file",
		Long: paragraph(fmt.Sprintf("\n%s one or more clips. A clip is a configured id (3 or #3), "+
			"a configured name (matched fuzzily) or a path to a WAV or MP3 file. "+
			"Append @VOLUME, between 0 and 1, to override the clip volume.", keyword("Play"))),
		Example: paragraph("soundq play kick snare@0.5\nsoundq play '#2' ~/sounds/tada.wav\nsoundq play --gap 250ms kick kick kick"),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := resolveArgs(cfg.Clips, args)
			if err != nil {
				return err
			}

			s, err := openSession(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close() //nolint:errcheck

			return playTargets(cmd.Context(), s, targets)
		},
	}
)

// playTargets queues targets on the current engine and waits for them to
// be played.
func playTargets(ctx context.Context, s *session, targets []target) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, playTimeout)
	defer cancel()

	engine := playback.Current()
	for i, t := range targets {
		if t.adhoc {
			engine.AddAudioClip(playback.ClipID(t.clip.ID), t.clip.Source)
		}
		if i > 0 && playGap > 0 {
			select {
			case <-time.After(playGap):
			case <-ctx.Done():
				return ctx.Err() //nolint:wrapcheck
			}
		}
		engine.Play(playback.ClipID(t.clip.ID), t.volume)
	}

	if err := s.engine.Flush(ctx); err != nil {
		return fmt.Errorf("waiting for clips: %w", err)
	}
	if !playNoWait {
		if err := s.device.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for playback: %w", err)
		}
	}

	stats := s.engine.Stats()
	log.Debug("Playback finished", "played", stats.Played, "failed", stats.Failed, "unknown", stats.Unknown)
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d clips failed to play", stats.Failed, len(targets))
	}
	return nil
}

func init() {
	playCmd.Flags().DurationVarP(&playGap, "gap", "g", 0, "pause between clips")
	playCmd.Flags().DurationVar(&playTimeout, "timeout", time.Minute, "give up after this long")
	playCmd.Flags().BoolVar(&playNoWait, "no-wait", false, "exit once clips started instead of when they finish")
}
