package cache

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheMiss is returned by Load when the loader reports nothing.
	ErrCacheMiss = errors.New("cache miss")
)

// Stats holds cache performance metrics.
type Stats struct {
	Capacity  int64 // bytes
	Size      int64 // bytes
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64 // hits / (hits + misses)

	LastAccess time.Time
	LastEvict  time.Time
}

// Key identifies decoded PCM for one source file in one output format.
// A file that is rewritten gets a new key because its size or modification
// time changes.
type Key struct {
	Path    string
	Size    int64
	ModTime time.Time
	Format  string
}

// KeyFor builds the key for path, which must already be resolved, decoded
// into format.
func KeyFor(path string, info os.FileInfo, format string) Key {
	return Key{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Format:  format,
	}
}

// String returns the flat form used as the map key.
func (k Key) String() string {
	return fmt.Sprintf("%s|%d|%d|%s", k.Path, k.Size, k.ModTime.UnixNano(), k.Format)
}
