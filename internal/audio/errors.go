package audio

import "errors"

var (
	// ErrBackendUnavailable is returned when the requested backend cannot be
	// used in this build or on this machine.
	ErrBackendUnavailable = errors.New("audio backend unavailable")

	// ErrUnsupportedFormat is returned for sources that are neither WAV nor
	// MP3.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidAudio is returned when a source cannot be decoded.
	ErrInvalidAudio = errors.New("invalid audio data")

	// ErrInvalidHandle is returned when a handle from another backend is
	// passed in.
	ErrInvalidHandle = errors.New("handle does not belong to this backend")

	// ErrClosed is returned by backends that have been closed.
	ErrClosed = errors.New("audio backend closed")
)
