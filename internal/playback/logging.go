package playback

import (
	"io"

	"github.com/charmbracelet/log"
)

// Logging decorates an Engine with a log entry per call.
type Logging struct {
	inner  Engine
	logger *log.Logger
}

var _ Engine = (*Logging)(nil)

// NewLogging wraps inner. A nil logger uses log.Default().
func NewLogging(inner Engine, logger *log.Logger) *Logging {
	if inner == nil {
		inner = Null{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Logging{inner: inner, logger: logger}
}

// AddAudioClip logs and forwards the registration.
func (l *Logging) AddAudioClip(id ClipID, source string) {
	l.logger.Info("Adding audio clip", "id", id, "source", source)
	l.inner.AddAudioClip(id, source)
}

// Play logs and forwards the request.
func (l *Logging) Play(id ClipID, volume float64) {
	l.logger.Debug("Playing clip", "id", id, "volume", volume)
	l.inner.Play(id, volume)
}

// Close closes the wrapped engine if it can be closed.
func (l *Logging) Close() error {
	if c, ok := l.inner.(io.Closer); ok {
		l.logger.Debug("Closing engine")
		return c.Close()
	}
	return nil
}

// Unwrap returns the decorated engine.
func (l *Logging) Unwrap() Engine {
	return l.inner
}
