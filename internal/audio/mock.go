package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/soundq/internal/cache"
	"github.com/dgnsrekt/soundq/internal/playback"
)

// Call is one recorded backend invocation.
type Call struct {
	Op     string // "load", "volume" or "trigger"
	Source string
	Volume float64
	At     time.Time
}

// Mock is a Device that makes no sound. It records every call and can
// simulate playback time and load failures.
type Mock struct {
	loader *Loader
	logger *log.Logger

	mu       sync.Mutex
	calls    []Call
	failures map[string]error
	delay    time.Duration
	length   time.Duration
	until    time.Time

	triggers atomic.Int64
	closed   atomic.Bool
}

var _ Device = (*Mock)(nil)

type mockClip struct {
	source string
	pcm    int
	volume float64
	closed atomic.Bool
}

func (c *mockClip) Close() error {
	c.closed.Store(true)
	return nil
}

// NewMock creates a mock. With a non-nil loader, sources are decoded so
// broken files fail the same way they would on a real device.
func NewMock(loader *Loader, logger *log.Logger) *Mock {
	if logger == nil {
		logger = log.Default()
	}
	return &Mock{
		loader:   loader,
		logger:   logger.WithPrefix("mock"),
		failures: make(map[string]error),
	}
}

// FailLoad makes every Load of source return err. A nil err clears it.
func (m *Mock) FailLoad(source string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, source)
		return
	}
	m.failures[source] = err
}

// SetLoadDelay makes each Load block for d.
func (m *Mock) SetLoadDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetClipLength makes Wait report playback for d after each trigger when
// the clip length is not known from decoding.
func (m *Mock) SetClipLength(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.length = d
}

func (m *Mock) record(c Call) {
	c.At = time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

// Load records the call and returns a handle.
func (m *Mock) Load(source string) (playback.Handle, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	m.mu.Lock()
	delay := m.delay
	failure := m.failures[source]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	m.record(Call{Op: "load", Source: source})

	if failure != nil {
		return nil, failure
	}

	clip := &mockClip{source: source, volume: 1}
	if m.loader != nil {
		pcm, err := m.loader.Load(source)
		if err != nil {
			return nil, err
		}
		clip.pcm = len(pcm)
	}

	m.logger.Debug("Loaded clip", "source", source)
	return clip, nil
}

// SetVolume records the call.
func (m *Mock) SetVolume(h playback.Handle, volume float64) {
	c, ok := h.(*mockClip)
	if !ok {
		return
	}
	c.volume = clampVolume(volume)
	m.record(Call{Op: "volume", Source: c.source, Volume: volume})
}

// Trigger records the call and extends the simulated playback window.
func (m *Mock) Trigger(h playback.Handle) error {
	c, ok := h.(*mockClip)
	if !ok {
		return ErrInvalidHandle
	}
	if m.closed.Load() {
		return ErrClosed
	}

	m.record(Call{Op: "trigger", Source: c.source, Volume: c.volume})
	m.triggers.Add(1)

	m.mu.Lock()
	length := m.length
	if c.pcm > 0 && m.loader != nil {
		length = m.loader.Format().Duration(c.pcm)
	}
	if end := time.Now().Add(length); end.After(m.until) {
		m.until = end
	}
	m.mu.Unlock()
	return nil
}

// Calls returns a copy of every recorded call.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Triggers returns how many clips were started.
func (m *Mock) Triggers() int64 {
	return m.triggers.Load()
}

// Reset forgets recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.triggers.Store(0)
}

// Playing returns 1 while simulated playback is in progress.
func (m *Mock) Playing() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if time.Now().Before(m.until) {
		return 1
	}
	return 0
}

// Wait blocks until simulated playback ends.
func (m *Mock) Wait(ctx context.Context) error {
	return waitIdle(ctx, m.Playing)
}

// Close marks the mock closed. Later loads and triggers fail.
func (m *Mock) Close() error {
	m.closed.Store(true)
	return nil
}

// Cache returns the loader's decoded-clip cache.
func (m *Mock) Cache() *cache.MemoryCache {
	return m.loader.Cache()
}
