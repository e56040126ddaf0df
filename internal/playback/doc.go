// Package playback implements the asynchronous playback engine.
//
// Callers register clips and request playback through an Engine. The queued
// engine hands requests to a single worker goroutine that owns every
// blocking audio call: clips are loaded from their source on first use and
// then triggered on the backend. Play never waits on that work.
//
// Code that needs "the current engine" goes through a Registry, which
// always yields a usable engine and falls back to a no-op engine when
// nothing has been registered.
package playback
