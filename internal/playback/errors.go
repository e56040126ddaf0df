package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrLoadFailed marks a clip whose source could not be loaded.
	ErrLoadFailed = errors.New("clip load failed")

	// ErrTriggerFailed marks a loaded clip the backend refused to play.
	ErrTriggerFailed = errors.New("clip trigger failed")

	// ErrBackendPanic is reported when a backend call panicked.
	ErrBackendPanic = errors.New("backend panicked")
)

// PlayError describes a request the worker could not play. Err wraps
// ErrLoadFailed, ErrTriggerFailed or ErrBackendPanic.
type PlayError struct {
	ID     ClipID
	Source string
	Err    error
}

// Error implements the error interface.
func (e *PlayError) Error() string {
	return fmt.Sprintf("clip %d (%s): %v", e.ID, e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *PlayError) Unwrap() error {
	return e.Err
}
