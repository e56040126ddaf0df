// Package cache keeps decoded clip PCM in memory so that clips sharing a
// source file decode it only once. Entries are keyed by path, file size,
// modification time and output format, and evicted least recently used
// first once the configured byte budget is exceeded.
package cache
