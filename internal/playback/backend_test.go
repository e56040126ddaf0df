package playback

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

var (
	errMissingFile = errors.New("missing file")
	errDeviceBusy  = errors.New("device busy")
)

// call is one recorded backend invocation.
type call struct {
	op     string // "load", "volume", "trigger"
	source string
	volume float64
}

type fakeHandle struct {
	source string
	closed atomic.Bool
}

func (h *fakeHandle) Close() error {
	h.closed.Store(true)
	return nil
}

// fakeBackend records every call in order.
type fakeBackend struct {
	mu      sync.Mutex
	calls   []call
	handles []*fakeHandle

	// sources that fail to load
	failing map[string]bool
	// source whose Trigger panics
	panicOn string
	// source whose Trigger returns errDeviceBusy
	refuseOn string

	// loadGate, when set, blocks every Load until it is closed; loadStarted
	// receives once per Load before waiting on the gate.
	loadGate    chan struct{}
	loadStarted chan string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{failing: make(map[string]bool)}
}

func (b *fakeBackend) Load(source string) (Handle, error) {
	if b.loadStarted != nil {
		b.loadStarted <- source
	}
	if b.loadGate != nil {
		<-b.loadGate
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, call{op: "load", source: source})
	if b.failing[source] {
		return nil, fmt.Errorf("open %s: %w", source, errMissingFile)
	}
	h := &fakeHandle{source: source}
	b.handles = append(b.handles, h)
	return h, nil
}

func (b *fakeBackend) SetVolume(h Handle, volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call{op: "volume", source: h.(*fakeHandle).source, volume: volume})
}

func (b *fakeBackend) Trigger(h Handle) error {
	source := h.(*fakeHandle).source
	if source == b.panicOn {
		panic("device exploded")
	}
	if source == b.refuseOn {
		return errDeviceBusy
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call{op: "trigger", source: source})
	return nil
}

func (b *fakeBackend) setFailing(source string, fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing[source] = fail
}

func (b *fakeBackend) recorded() []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]call, len(b.calls))
	copy(out, b.calls)
	return out
}

func (b *fakeBackend) count(op string) int {
	n := 0
	for _, c := range b.recorded() {
		if c.op == op {
			n++
		}
	}
	return n
}

func (b *fakeBackend) loadedHandles() []*fakeHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*fakeHandle, len(b.handles))
	copy(out, b.handles)
	return out
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.DebugLevel})
}

func newTestEngine(t *testing.T, b Backend, opts ...Option) *Queued {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	e, err := New(b, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func flush(t *testing.T, e *Queued) {
	t.Helper()
	require.NoError(t, e.Flush(contextWithTimeout(t, 5*time.Second)))
}
