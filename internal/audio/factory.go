package audio

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/soundq/internal/cache"
)

// Kind selects a backend.
type Kind string

const (
	// KindAuto uses the device unless running in CI or without one, and
	// falls back to the mock when the device cannot be opened.
	KindAuto Kind = "auto"
	// KindOto always uses the device.
	KindOto Kind = "oto"
	// KindMock never makes a sound.
	KindMock Kind = "mock"
)

// ParseKind parses a backend name. The empty string means auto.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindOto, KindMock:
		return k, nil
	default:
		return "", fmt.Errorf("unknown audio backend %q (want auto, oto or mock)", s)
	}
}

// Config describes the device to open.
type Config struct {
	Kind       Kind
	Format     Format
	BufferSize time.Duration
	CacheSize  int64 // bytes of decoded PCM to keep; 0 disables caching
	Logger     *log.Logger
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		Kind:       KindAuto,
		Format:     DefaultFormat(),
		BufferSize: 50 * time.Millisecond,
		CacheSize:  64 << 20,
	}
}

// New opens the backend described by cfg.
func New(cfg Config) (Device, error) {
	if err := cfg.Format.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("audio")

	var c *cache.MemoryCache
	if cfg.CacheSize > 0 {
		c = cache.NewMemoryCache(cfg.CacheSize, logger)
	}
	loader := NewLoader(cfg.Format, c, logger)

	switch cfg.Kind {
	case KindMock:
		logger.Debug("Creating mock audio backend")
		return NewMock(loader, logger), nil

	case KindOto:
		logger.Debug("Creating oto audio backend")
		return NewOto(loader, cfg.BufferSize, logger)

	case KindAuto, "":
		if IsCI() {
			logger.Info("Using mock audio backend", "reason", "CI environment")
			return NewMock(loader, logger), nil
		}
		if !HasAudioDevice() {
			logger.Info("Using mock audio backend", "reason", "no audio devices")
			return NewMock(loader, logger), nil
		}

		dev, err := NewOto(loader, cfg.BufferSize, logger)
		if err != nil {
			logger.Warn("Failed to open audio device, falling back to mock", "error", err)
			return NewMock(loader, logger), nil
		}
		return dev, nil

	default:
		return nil, fmt.Errorf("unknown audio backend %q", cfg.Kind)
	}
}
