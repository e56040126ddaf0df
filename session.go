package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/soundq/internal/audio"
	"github.com/dgnsrekt/soundq/internal/config"
	"github.com/dgnsrekt/soundq/internal/playback"
)

// session owns a device and the engine driving it. While open the engine
// is the process-wide current engine.
type session struct {
	device audio.Device
	engine *playback.Queued
}

// openSession opens the configured device, starts an engine on it,
// registers it and adds every configured clip. Clips that fail to play are
// reported on errOut.
func openSession(c *config.Config, errOut io.Writer) (*session, error) {
	dev, err := audio.New(c.Audio(log.Default()))
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	return startSession(dev, c.Clips, errOut)
}

func startSession(dev audio.Device, clips []config.Clip, errOut io.Writer) (*session, error) {
	engine, err := playback.New(dev,
		playback.WithLogger(log.Default().WithPrefix("playback")),
		playback.WithFailureHandler(func(err *playback.PlayError) {
			fmt.Fprintln(errOut, errorText("cannot play "+err.Source+":"), err.Err)
		}),
	)
	if err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	playback.Register(playback.NewLogging(engine, log.Default().WithPrefix("engine")))
	registerClips(playback.Current(), clips)

	return &session{device: dev, engine: engine}, nil
}

func registerClips(e playback.Engine, clips []config.Clip) {
	for _, c := range clips {
		e.AddAudioClip(playback.ClipID(c.ID), c.Source)
	}
}

// Close resets the registry before stopping the engine, then releases the
// device.
func (s *session) Close() error {
	playback.Register(nil)
	return errors.Join(s.engine.Close(), s.device.Close())
}
