//go:build nocgo
// +build nocgo

package audio

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/soundq/internal/cache"
	"github.com/dgnsrekt/soundq/internal/playback"
)

// Oto is unavailable in builds without cgo.
type Oto struct{}

var _ Device = (*Oto)(nil)

// NewOto always fails in nocgo builds.
func NewOto(*Loader, time.Duration, *log.Logger) (*Oto, error) {
	return nil, ErrBackendUnavailable
}

func (*Oto) Load(string) (playback.Handle, error) { return nil, ErrBackendUnavailable }

func (*Oto) SetVolume(playback.Handle, float64) {}

func (*Oto) Trigger(playback.Handle) error { return ErrBackendUnavailable }

func (*Oto) Playing() int { return 0 }

func (*Oto) Wait(context.Context) error { return nil }

func (*Oto) Close() error { return nil }

func (*Oto) Cache() *cache.MemoryCache { return nil }
