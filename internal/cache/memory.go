package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"
)

// MemoryCache is an in-memory LRU cache of decoded PCM with a byte budget.
type MemoryCache struct {
	capacity int64 // Maximum size in bytes
	size     int64 // Current size in bytes

	items    map[string]*list.Element
	eviction *list.List

	mu    sync.Mutex
	stats Stats

	loads  singleflight.Group
	logger *log.Logger
}

type memoryCacheEntry struct {
	key       string
	value     []byte
	size      int64
	timestamp time.Time
	hits      int64
}

// NewMemoryCache creates a cache holding at most capacity bytes. A nil
// logger uses log.Default().
func NewMemoryCache(capacity int64, logger *log.Logger) *MemoryCache {
	if logger == nil {
		logger = log.Default()
	}
	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats:    Stats{Capacity: capacity},
		logger:   logger.WithPrefix("cache"),
	}
}

// Get retrieves the PCM stored under key. The returned slice is shared and
// must not be modified.
func (c *MemoryCache) Get(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key.String())
}

func (c *MemoryCache) getLocked(k string) ([]byte, bool) {
	c.stats.LastAccess = time.Now()

	elem, ok := c.items[k]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	c.eviction.MoveToFront(elem)
	entry := elem.Value.(*memoryCacheEntry)
	entry.hits++

	c.stats.Hits++
	return entry.value, true
}

// Put stores value under key, evicting least recently used entries until
// it fits.
func (c *MemoryCache) Put(key Key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putLocked(key.String(), value)
}

func (c *MemoryCache) putLocked(k string, value []byte) error {
	valueSize := int64(len(value))

	if elem, ok := c.items[k]; ok {
		c.eviction.MoveToFront(elem)
		entry := elem.Value.(*memoryCacheEntry)
		c.size += valueSize - entry.size
		entry.value = value
		entry.size = valueSize
		entry.timestamp = time.Now()
		c.stats.Size = c.size
		return nil
	}

	if valueSize > c.capacity {
		return ErrItemTooLarge
	}

	for c.size+valueSize > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}

	elem := c.eviction.PushFront(&memoryCacheEntry{
		key:       k,
		value:     value,
		size:      valueSize,
		timestamp: time.Now(),
	})
	c.items[k] = elem
	c.size += valueSize
	c.stats.Size = c.size
	return nil
}

// Load returns the PCM for key, calling load to produce it on a miss.
// Concurrent loads of one key share a single call. Values too large for the
// cache are returned but not kept.
func (c *MemoryCache) Load(key Key, load func() ([]byte, error)) ([]byte, error) {
	k := key.String()

	c.mu.Lock()
	if v, ok := c.getLocked(k); ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err, shared := c.loads.Do(k, func() (any, error) {
		pcm, err := load()
		if err != nil {
			return nil, err
		}
		if pcm == nil {
			return nil, ErrCacheMiss
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if err := c.putLocked(k, pcm); err != nil {
			c.logger.Debug("Not caching decoded clip",
				"path", key.Path,
				"size", humanize.IBytes(uint64(len(pcm))),
				"error", err)
		}
		return pcm, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("Shared concurrent decode", "path", key.Path)
	}
	return v.([]byte), nil
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
	c.stats.Size = 0
}

// Size returns the current cache size in bytes.
func (c *MemoryCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = c.size
	stats.ItemCount = int64(len(c.items))
	if stats.Hits+stats.Misses > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Hits+stats.Misses)
	}
	return stats
}

// Resize changes the cache capacity, evicting as needed.
func (c *MemoryCache) Resize(newCapacity int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.capacity = newCapacity
	c.stats.Capacity = newCapacity

	for c.size > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}
}

// evictOldest must be called with the lock held.
func (c *MemoryCache) evictOldest() {
	elem := c.eviction.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*memoryCacheEntry)
	c.removeElement(elem)
	c.stats.Evictions++
	c.stats.LastEvict = time.Now()

	c.logger.Debug("Evicted decoded clip",
		"key", entry.key,
		"size", humanize.IBytes(uint64(entry.size)),
		"hits", entry.hits,
		"age", humanize.Time(entry.timestamp))
}

// removeElement must be called with the lock held.
func (c *MemoryCache) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*memoryCacheEntry)
	delete(c.items, entry.key)
	c.size -= entry.size
}
