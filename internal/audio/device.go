package audio

import (
	"context"
	"time"

	"github.com/dgnsrekt/soundq/internal/cache"
	"github.com/dgnsrekt/soundq/internal/playback"
)

// waitInterval is how often Wait polls for finished playback.
const waitInterval = 10 * time.Millisecond

// Device is a playback backend that owns an output device.
type Device interface {
	playback.Backend

	// Wait blocks until everything triggered so far has finished playing.
	Wait(ctx context.Context) error

	// Close stops playback and releases the device.
	Close() error

	// Cache returns the cache of decoded clips, or nil when the device
	// decodes on every load.
	Cache() *cache.MemoryCache
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func waitIdle(ctx context.Context, playing func() int) error {
	ticker := time.NewTicker(waitInterval)
	defer ticker.Stop()

	for playing() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
