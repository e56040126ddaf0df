package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dgnsrekt/soundq/internal/queue"
)

// ErrNilBackend is returned by New when no backend is given.
var ErrNilBackend = errors.New("playback backend is nil")

// ErrEngineClosed is returned by Flush once the engine has been closed.
var ErrEngineClosed = errors.New("playback engine is closed")

// flushInterval is how often Flush re-checks worker progress.
const flushInterval = 5 * time.Millisecond

// Engine is the capability callers use to make sounds.
type Engine interface {
	// AddAudioClip registers source under id. Registering an id again
	// replaces the earlier source.
	AddAudioClip(id ClipID, source string)

	// Play asks for id to be played at volume. It never blocks and never
	// reports failure; requests for unknown clips are dropped.
	Play(id ClipID, volume float64)
}

// Stats is a snapshot of engine activity.
type Stats struct {
	Clips     int
	Queued    int
	Enqueued  int64
	Drains    int64
	Played    int64
	Unknown   int64
	Failed    int64
	Dropped   int64 // still queued when the worker stopped
	Discarded int64 // submitted after Close began
	PeakBatch int64
	State     WorkerState
}

// Queued is an Engine that defers all audio work to a dedicated worker
// goroutine. It must be closed to stop the worker.
type Queued struct {
	id     string
	logger *log.Logger

	store  *ClipStore
	queue  *queue.Queue[PlayRequest]
	worker *worker

	cancel    context.CancelFunc
	closing   atomic.Bool
	discarded atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

var _ Engine = (*Queued)(nil)

// New creates a queued engine on top of backend and starts its worker. It
// returns once the worker is running.
func New(backend Backend, opts ...Option) (*Queued, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}

	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	o.Logger = o.Logger.With("engine", id[:8])

	ctx, cancel := context.WithCancel(context.Background())

	e := &Queued{
		id:     id,
		logger: o.Logger,
		store:  NewClipStore(backend),
		queue:  queue.New[PlayRequest](o.QueueCapacity),
		cancel: cancel,
	}
	e.worker = newWorker(e.queue, e.store, o)

	go e.worker.run(ctx)
	<-e.worker.started

	e.logger.Debug("Playback engine started", "queue_capacity", o.QueueCapacity)
	return e, nil
}

// ID returns the unique id of this engine instance.
func (e *Queued) ID() string {
	return e.id
}

// AddAudioClip registers source under id without loading it.
func (e *Queued) AddAudioClip(id ClipID, source string) {
	e.store.Register(id, source)
}

// Play queues a request for the worker.
func (e *Queued) Play(id ClipID, volume float64) {
	if e.closing.Load() {
		e.discarded.Add(1)
		return
	}
	e.queue.Push(PlayRequest{ID: id, Volume: volume})
}

// State returns the worker lifecycle state.
func (e *Queued) State() WorkerState {
	return e.worker.State()
}

// Stats returns a snapshot of engine activity.
func (e *Queued) Stats() Stats {
	qs := e.queue.Stats()
	return Stats{
		Clips:     e.store.Len(),
		Queued:    qs.CurrentSize,
		Enqueued:  qs.TotalEnqueued,
		Drains:    qs.Drains,
		Played:    e.worker.played.Load(),
		Unknown:   e.worker.unknown.Load(),
		Failed:    e.worker.failed.Load(),
		Dropped:   e.worker.dropped.Load(),
		Discarded: e.discarded.Load(),
		PeakBatch: e.worker.peakBatch.Load(),
		State:     e.worker.State(),
	}
}

// Clips returns the registered source for each clip id.
func (e *Queued) Clips() map[ClipID]string {
	return e.store.Sources()
}

// Flush blocks until every request queued before the call has been
// realized, the context ends, or the engine closes.
func (e *Queued) Flush(ctx context.Context) error {
	target := e.queue.Stats().TotalEnqueued

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		if e.worker.processed() >= target {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.worker.done:
			if e.worker.processed() >= target {
				return nil
			}
			return ErrEngineClosed
		case <-ticker.C:
		}
	}
}

// Close stops the worker, waits for it to exit and releases every loaded
// clip. Requests still queued are dropped. Close is safe to call more than
// once; later calls return the first result.
func (e *Queued) Close() error {
	e.closeOnce.Do(func() {
		e.closing.Store(true)
		e.worker.requestStop()
		e.cancel()

		<-e.worker.done

		e.closeErr = e.store.releaseAll()
		e.logger.Debug("Playback engine closed", "dropped", e.worker.dropped.Load())
	})
	return e.closeErr
}
