package playback

import (
	"errors"
	"fmt"
	"sync"
)

// ClipID is a caller-chosen key naming a sound resource.
type ClipID uint32

// PlayRequest asks for one playback of a clip at a volume.
type PlayRequest struct {
	ID     ClipID
	Volume float64
}

// Handle is a clip loaded by a Backend.
type Handle interface {
	// Close releases whatever the backend holds for the clip.
	Close() error
}

// Backend is the audio device capability the engine drives. Every method
// may block; the engine only calls them from its worker goroutine.
type Backend interface {
	// Load reads and prepares the clip at source.
	Load(source string) (Handle, error)

	// SetVolume sets the volume used by the next Trigger of h.
	SetVolume(h Handle, volume float64)

	// Trigger starts playback of h.
	Trigger(h Handle) error
}

// clip is the store's record for one ClipID. The source is fixed at
// registration; the handle belongs to the worker.
type clip struct {
	id     ClipID
	source string
	handle Handle
}

func (c *clip) loaded() bool {
	return c.handle != nil
}

func (c *clip) release() error {
	if c.handle == nil {
		return nil
	}
	err := c.handle.Close()
	c.handle = nil
	return err
}

// outcome is how the worker resolved one request.
type outcome int

const (
	outcomeUnknown outcome = iota
	outcomePlayed
	outcomeFailed
)

// ClipStore maps clip ids to lazily loaded clips.
//
// Registration may happen from any goroutine at any time. It swaps in a
// fresh record instead of editing the old one, so the worker never shares a
// record with a registering caller. Replaced records are parked until the
// worker releases them between batches.
type ClipStore struct {
	backend Backend

	mu      sync.Mutex
	clips   map[ClipID]*clip
	retired []*clip
}

// NewClipStore creates an empty store that loads through backend.
func NewClipStore(backend Backend) *ClipStore {
	return &ClipStore{
		backend: backend,
		clips:   make(map[ClipID]*clip),
	}
}

// Register records source under id, replacing any earlier registration.
// No I/O happens until the clip is first played.
func (s *ClipStore) Register(id ClipID, source string) {
	next := &clip{id: id, source: source}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.clips[id]; ok {
		s.retired = append(s.retired, prev)
	}
	s.clips[id] = next
}

// Len returns the number of registered clips.
func (s *ClipStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
}

// Sources returns the registered source for each id.
func (s *ClipStore) Sources() map[ClipID]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[ClipID]string, len(s.clips))
	for id, c := range s.clips {
		out[id] = c.source
	}
	return out
}

func (s *ClipStore) lookup(id ClipID) *clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clips[id]
}

// resolveAndPlay realizes one request. Worker only.
func (s *ClipStore) resolveAndPlay(id ClipID, volume float64) (outcome, *PlayError) {
	c := s.lookup(id)
	if c == nil {
		return outcomeUnknown, nil
	}

	if !c.loaded() {
		h, err := s.backend.Load(c.source)
		if err != nil {
			return outcomeFailed, &PlayError{
				ID:     id,
				Source: c.source,
				Err:    fmt.Errorf("%w: %w", ErrLoadFailed, err),
			}
		}
		c.handle = h
	}

	s.backend.SetVolume(c.handle, volume)

	if err := s.backend.Trigger(c.handle); err != nil {
		return outcomeFailed, &PlayError{
			ID:     id,
			Source: c.source,
			Err:    fmt.Errorf("%w: %w", ErrTriggerFailed, err),
		}
	}
	return outcomePlayed, nil
}

// releaseRetired frees the handles of replaced clips. Worker only.
func (s *ClipStore) releaseRetired() error {
	s.mu.Lock()
	retired := s.retired
	s.retired = nil
	s.mu.Unlock()

	var errs []error
	for _, c := range retired {
		if err := c.release(); err != nil {
			errs = append(errs, fmt.Errorf("release clip %d: %w", c.id, err))
		}
	}
	return errors.Join(errs...)
}

// releaseAll frees every handle and empties the store. Only safe once the
// worker has stopped.
func (s *ClipStore) releaseAll() error {
	s.mu.Lock()
	clips := s.clips
	s.clips = make(map[ClipID]*clip)
	s.mu.Unlock()

	err := s.releaseRetired()

	errs := []error{err}
	for _, c := range clips {
		if err := c.release(); err != nil {
			errs = append(errs, fmt.Errorf("release clip %d: %w", c.id, err))
		}
	}
	return errors.Join(errs...)
}
