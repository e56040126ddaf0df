// Package queue provides the request queue that sits between playback
// callers and the playback worker. Producers append without ever waiting on
// the consumer, and the single consumer detaches everything queued so far in
// one swap.
package queue
