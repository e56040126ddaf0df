package playback

// WorkerState is the lifecycle phase of an engine's worker.
type WorkerState int32

const (
	// StateStarting is set while the worker goroutine is being created.
	StateStarting WorkerState = iota
	// StateRunning means the worker is draining the queue.
	StateRunning
	// StateStopRequested means shutdown began and the worker will exit at
	// the top of its next iteration.
	StateStopRequested
	// StateStopped is terminal.
	StateStopped
)

// String returns the string representation of the state.
func (s WorkerState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop-requested"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
