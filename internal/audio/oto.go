//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/dgnsrekt/soundq/internal/cache"
	"github.com/dgnsrekt/soundq/internal/playback"
)

// readyTimeout bounds how long we wait for the device to come up.
const readyTimeout = 5 * time.Second

var (
	// oto allows one context per process.
	sharedContext       *oto.Context
	sharedContextFormat Format
	sharedContextOnce   sync.Once
	sharedContextErr    error
)

func otoContext(f Format, bufferSize time.Duration, logger *log.Logger) (*oto.Context, error) {
	sharedContextOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   bufferSize,
		}

		logger.Debug("Initializing audio context",
			"sample_rate", options.SampleRate,
			"channels", options.ChannelCount,
			"buffer_size", options.BufferSize)

		ctx, ready, err := oto.NewContext(options)
		if err != nil {
			sharedContextErr = fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
			return
		}

		select {
		case <-ready:
		case <-time.After(readyTimeout):
			sharedContextErr = fmt.Errorf("%w: audio context not ready after %v", ErrBackendUnavailable, readyTimeout)
			return
		}

		sharedContext = ctx
		sharedContextFormat = f
	})

	if sharedContextErr != nil {
		return nil, sharedContextErr
	}
	if sharedContextFormat != f {
		return nil, fmt.Errorf("%w: audio context already open as %s", ErrBackendUnavailable, sharedContextFormat)
	}
	return sharedContext, nil
}

// Oto plays clips on the system audio device. Each trigger starts a new
// player over the clip's PCM, so a clip may overlap itself.
type Oto struct {
	ctx    *oto.Context
	loader *Loader
	logger *log.Logger

	mu     sync.Mutex
	active []*oto.Player
	closed bool
}

var _ Device = (*Oto)(nil)

// otoClip keeps the PCM alive for as long as players read from it.
type otoClip struct {
	source string
	pcm    []byte
	volume float64
}

func (c *otoClip) Close() error {
	c.pcm = nil
	return nil
}

// NewOto opens the audio device in loader's format.
func NewOto(loader *Loader, bufferSize time.Duration, logger *log.Logger) (*Oto, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("oto")

	ctx, err := otoContext(loader.Format(), bufferSize, logger)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	logger.Debug("Audio device ready", "format", loader.Format())
	return &Oto{ctx: ctx, loader: loader, logger: logger}, nil
}

// Load decodes source.
func (o *Oto) Load(source string) (playback.Handle, error) {
	pcm, err := o.loader.Load(source)
	if err != nil {
		return nil, err
	}
	return &otoClip{source: source, pcm: pcm, volume: 1}, nil
}

// SetVolume stores the volume for the next trigger, clamped to [0, 1].
func (o *Oto) SetVolume(h playback.Handle, volume float64) {
	if c, ok := h.(*otoClip); ok {
		c.volume = clampVolume(volume)
	}
}

// Trigger starts a new player for the clip.
func (o *Oto) Trigger(h playback.Handle) error {
	c, ok := h.(*otoClip)
	if !ok {
		return ErrInvalidHandle
	}
	if c.pcm == nil {
		return fmt.Errorf("%w: clip %s released", ErrInvalidAudio, c.source)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	o.reapLocked()

	p := o.ctx.NewPlayer(bytes.NewReader(c.pcm))
	p.SetVolume(c.volume)
	p.Play()
	o.active = append(o.active, p)
	return nil
}

// reapLocked closes players that have finished. Must hold mu.
func (o *Oto) reapLocked() {
	kept := o.active[:0]
	for _, p := range o.active {
		if p.IsPlaying() {
			kept = append(kept, p)
			continue
		}
		if err := p.Close(); err != nil {
			o.logger.Debug("Failed to close finished player", "error", err)
		}
	}
	clear(o.active[len(kept):])
	o.active = kept
}

// Playing returns the number of players still producing sound.
func (o *Oto) Playing() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reapLocked()
	return len(o.active)
}

// Wait blocks until every started player has finished or ctx ends.
func (o *Oto) Wait(ctx context.Context) error {
	return waitIdle(ctx, o.Playing)
}

// Close stops all players. The device context stays open for the process.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true

	var firstErr error
	for _, p := range o.active {
		p.Pause()
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	o.active = nil
	return firstErr
}

// Cache returns the loader's decoded-clip cache.
func (o *Oto) Cache() *cache.MemoryCache {
	return o.loader.Cache()
}
