package playback

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/soundq/internal/queue"
)

// worker owns every blocking audio call of one engine.
type worker struct {
	queue     *queue.Queue[PlayRequest]
	store     *ClipStore
	logger    *log.Logger
	limiter   *rate.Limiter
	onFailure func(*PlayError)

	state   atomic.Int32
	started chan struct{}
	done    chan struct{}

	played    atomic.Int64
	unknown   atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
	batches   atomic.Int64
	peakBatch atomic.Int64
}

func newWorker(q *queue.Queue[PlayRequest], store *ClipStore, opts Options) *worker {
	w := &worker{
		queue:     q,
		store:     store,
		logger:    opts.Logger,
		limiter:   opts.limiter(),
		onFailure: opts.OnFailure,
		started:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	w.state.Store(int32(StateStarting))
	return w
}

func (w *worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// requestStop marks the worker for shutdown. The caller cancels the run
// context right after.
func (w *worker) requestStop() {
	w.state.CompareAndSwap(int32(StateStarting), int32(StateStopRequested))
	w.state.CompareAndSwap(int32(StateRunning), int32(StateStopRequested))
}

// processed is the number of requests the worker has finished with.
func (w *worker) processed() int64 {
	return w.played.Load() + w.unknown.Load() + w.failed.Load()
}

func (w *worker) run(ctx context.Context) {
	defer close(w.done)
	defer w.state.Store(int32(StateStopped))

	w.state.CompareAndSwap(int32(StateStarting), int32(StateRunning))
	close(w.started)
	w.logger.Debug("Worker running")

	for {
		if ctx.Err() != nil {
			w.state.Store(int32(StateStopRequested))
			if n := w.queue.Len(); n > 0 {
				w.dropped.Add(int64(n))
				w.logger.Debug("Dropping queued requests", "count", n)
			}
			w.releaseRetired()
			w.logger.Debug("Worker stopped",
				"played", w.played.Load(),
				"unknown", w.unknown.Load(),
				"failed", w.failed.Load())
			return
		}

		if w.queue.Empty() {
			select {
			case <-ctx.Done():
			case <-w.queue.Ready():
			}
			continue
		}

		batch := w.queue.DrainAll()
		w.process(batch)
		w.queue.Recycle(batch)
		w.releaseRetired()
	}
}

func (w *worker) process(batch []PlayRequest) {
	w.batches.Add(1)
	if n := int64(len(batch)); n > w.peakBatch.Load() {
		w.peakBatch.Store(n)
	}

	for _, req := range batch {
		w.realize(req)
	}
}

// realize plays one request. Failures never escape: the batch continues
// with the next request.
func (w *worker) realize(req PlayRequest) {
	defer func() {
		if r := recover(); r != nil {
			var source string
			if c := w.store.lookup(req.ID); c != nil {
				source = c.source
			}
			w.fail(&PlayError{
				ID:     req.ID,
				Source: source,
				Err:    fmt.Errorf("%w: %v", ErrBackendPanic, r),
			})
		}
	}()

	res, err := w.store.resolveAndPlay(req.ID, req.Volume)
	switch res {
	case outcomeUnknown:
		w.unknown.Add(1)
		w.logger.Debug("Dropping request for unknown clip", "id", req.ID)
	case outcomePlayed:
		w.played.Add(1)
	case outcomeFailed:
		w.fail(err)
	}
}

// fail reports err. The failed counter moves last so Flush callers observe
// the handler having run.
func (w *worker) fail(err *PlayError) {
	defer w.failed.Add(1)

	if w.limiter.Allow() {
		w.logger.Warn("Clip request failed",
			"id", err.ID,
			"source", err.Source,
			"error", err.Err)
	}

	if w.onFailure != nil {
		w.notify(err)
	}
}

func (w *worker) notify(err *PlayError) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Failure handler panicked", "panic", r)
		}
	}()
	w.onFailure(err)
}

func (w *worker) releaseRetired() {
	if err := w.store.releaseRetired(); err != nil {
		w.logger.Warn("Failed to release replaced clips", "error", err)
	}
}
