package playback

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingEngine remembers the calls made on it.
type recordingEngine struct {
	mu     sync.Mutex
	added  map[ClipID]string
	plays  []PlayRequest
	closed bool
}

func newRecordingEngine() *recordingEngine {
	return &recordingEngine{added: make(map[ClipID]string)}
}

func (r *recordingEngine) AddAudioClip(id ClipID, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added[id] = source
}

func (r *recordingEngine) Play(id ClipID, volume float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plays = append(r.plays, PlayRequest{ID: id, Volume: volume})
}

func (r *recordingEngine) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestRegistry_ZeroValueIsNull(t *testing.T) {
	var r Registry
	assert.Equal(t, Null{}, r.Current())

	// calls on the null engine are harmless
	r.Current().AddAudioClip(1, "x.wav")
	r.Current().Play(1, 1)
}

func TestRegistry_RegisterAndReset(t *testing.T) {
	e := newRecordingEngine()
	var r Registry
	r.Register(e)
	assert.Same(t, e, r.Current())

	r.Current().Play(4, 0.25)
	assert.Equal(t, []PlayRequest{{ID: 4, Volume: 0.25}}, e.plays)

	r.Register(nil)
	assert.Equal(t, Null{}, r.Current())
	assert.False(t, e.closed, "reset must not close the previous engine")
}

func TestRegistry_TypedNilResetsToNull(t *testing.T) {
	var r Registry
	r.Register(newRecordingEngine())

	r.Register((*Queued)(nil))
	assert.Equal(t, Null{}, r.Current())
	assert.NotPanics(t, func() { r.Current().Play(1, 1) })

	var logging *Logging
	r.Register(logging)
	assert.Equal(t, Null{}, r.Current())
}

func TestRegistry_ConcurrentSwap(t *testing.T) {
	var r Registry
	a, b := newRecordingEngine(), newRecordingEngine()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			switch i % 3 {
			case 0:
				r.Register(a)
			case 1:
				r.Register(b)
			default:
				r.Register(nil)
			}
		}
	}()
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				cur := r.Current()
				assert.NotNil(t, cur)
				cur.Play(0, 1)
			}
		}()
	}
	wg.Wait()
}

func TestDefaultRegistry(t *testing.T) {
	t.Cleanup(func() { Register(nil) })

	assert.Equal(t, Null{}, Current())

	e := newRecordingEngine()
	Register(e)
	assert.Same(t, e, Current())

	Register(nil)
	assert.Equal(t, Null{}, Current())
}
