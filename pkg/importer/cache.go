package importer

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
)

// Cache keeps loaded atlases in memory, evicting the least recently used
// ones when the estimated memory exceeds a limit.
//
// An importer with a cache reads each path once while the atlas stays
// cached, so reopening a layer after destroying it only rebuilds the data
// set:
//
//	cache := importer.NewCache(256 << 20)
//	imp := importer.New(importer.DefaultOptions()).WithCache(cache)
type Cache struct {
	maxMemory  int64
	usedMemory int64
	entries    map[string]*cacheEntry
	lru        *list.List // most recent at front
	hits       int
	misses     int
	mu         sync.Mutex
}

type cacheEntry struct {
	path       string
	atlas      *atlas.MemoryAtlas
	memorySize int64
	element    *list.Element
}

// NewCache creates a cache holding up to maxMemoryBytes of atlases. Zero
// means unlimited.
func NewCache(maxMemoryBytes int64) *Cache {
	return &Cache{
		maxMemory: maxMemoryBytes,
		entries:   make(map[string]*cacheEntry),
		lru:       list.New(),
	}
}

// Get returns the atlas cached for path, calling load on a miss. Atlases
// too large for the cache are returned without being cached.
func (c *Cache) Get(path string, load func() (*atlas.MemoryAtlas, error)) (*atlas.MemoryAtlas, error) {
	c.mu.Lock()
	if entry, ok := c.entries[path]; ok {
		c.hits++
		c.lru.MoveToFront(entry.element)
		c.mu.Unlock()
		return entry.atlas, nil
	}
	c.misses++
	c.mu.Unlock()

	a, err := load()
	if err != nil {
		return nil, err
	}
	_ = c.Add(path, a)
	return a, nil
}

// Add caches a under path, evicting older atlases to make room.
func (c *Cache) Add(path string, a *atlas.MemoryAtlas) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := estimateAtlasMemory(a)
	if c.maxMemory > 0 && size > c.maxMemory {
		return fmt.Errorf("atlas too large for cache (%d bytes > %d bytes max)", size, c.maxMemory)
	}

	if entry, ok := c.entries[path]; ok {
		c.usedMemory += size - entry.memorySize
		entry.atlas = a
		entry.memorySize = size
		c.lru.MoveToFront(entry.element)
	} else {
		entry := &cacheEntry{path: path, atlas: a, memorySize: size}
		entry.element = c.lru.PushFront(entry)
		c.entries[path] = entry
		c.usedMemory += size
	}

	for c.maxMemory > 0 && c.usedMemory > c.maxMemory && c.lru.Len() > 1 {
		c.evictLRU()
	}
	return nil
}

// evictLRU must be called with c.mu held.
func (c *Cache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.entries, entry.path)
	c.usedMemory -= entry.memorySize
}

// Remove drops path from the cache.
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[path]; ok {
		c.lru.Remove(entry.element)
		delete(c.entries, path)
		c.usedMemory -= entry.memorySize
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.lru.Init()
	c.usedMemory = 0
}

// Stats returns the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Atlases:    len(c.entries),
		UsedMemory: c.usedMemory,
		MaxMemory:  c.maxMemory,
		Hits:       c.hits,
		Misses:     c.misses,
	}
}

// CacheStats holds cache counters.
type CacheStats struct {
	Atlases    int
	UsedMemory int64 // estimated bytes
	MaxMemory  int64
	Hits       int
	Misses     int
}

// estimateAtlasMemory approximates the footprint of a: a fixed overhead per
// atlas and per entity plus 16 bytes per coordinate.
func estimateAtlasMemory(a *atlas.MemoryAtlas) int64 {
	if a == nil {
		return 0
	}
	size := int64(1024)
	size += int64(a.Size().Total()) * 256

	coords := len(a.Nodes()) + len(a.Points())
	for _, e := range a.Edges() {
		coords += len(e.PolyLine())
	}
	for _, l := range a.Lines() {
		coords += len(l.PolyLine())
	}
	for _, ar := range a.Areas() {
		coords += len(ar.Polygon())
	}
	return size + int64(coords)*16
}
