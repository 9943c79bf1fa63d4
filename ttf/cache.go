package ttf

import (
	"sync"
	"sync/atomic"
)

// DefaultCacheEntries is the capacity used when NewGlyphCache gets a
// non-positive limit.
const DefaultCacheEntries = 1024

// numShards is the number of cache shards for reduced lock contention.
const numShards = 8

// GlyphCache memoizes decoded outlines of one font.
//
// The cache is owned by the caller; Font itself never caches. Outlines
// returned from the cache are shared between callers and must be treated
// as read-only. Failed decodes are not cached.
//
// GlyphCache is safe for concurrent use.
type GlyphCache struct {
	font   *Font
	shards [numShards]*glyphShard

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// glyphShard is a single LRU shard.
type glyphShard struct {
	mu         sync.Mutex
	entries    map[uint16]*glyphEntry
	head, tail *glyphEntry
	maxEntries int
}

// glyphEntry is a node of the shard's doubly-linked LRU list.
type glyphEntry struct {
	index      uint16
	glyph      *Glyph
	prev, next *glyphEntry
}

// NewGlyphCache creates a cache holding up to maxEntries outlines of f.
func NewGlyphCache(f *Font, maxEntries int) *GlyphCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	perShard := (maxEntries + numShards - 1) / numShards

	c := &GlyphCache{font: f}
	for i := range c.shards {
		c.shards[i] = &glyphShard{
			entries:    make(map[uint16]*glyphEntry, perShard),
			maxEntries: perShard,
		}
	}
	return c
}

// Font returns the font whose glyphs are cached.
func (c *GlyphCache) Font() *Font {
	return c.font
}

// LoadGlyph returns the cached outline for index, decoding and storing it
// on a miss.
func (c *GlyphCache) LoadGlyph(index uint16) (*Glyph, error) {
	s := c.shards[int(index)%numShards]

	s.mu.Lock()
	if e, ok := s.entries[index]; ok {
		s.moveToFront(e)
		g := e.glyph
		s.mu.Unlock()
		c.hits.Add(1)
		return g, nil
	}
	s.mu.Unlock()

	c.misses.Add(1)
	g, err := c.font.LoadGlyph(index)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have decoded the same glyph meanwhile.
	if e, ok := s.entries[index]; ok {
		s.moveToFront(e)
		return e.glyph, nil
	}
	for len(s.entries) >= s.maxEntries && s.tail != nil {
		delete(s.entries, s.tail.index)
		s.remove(s.tail)
		c.evictions.Add(1)
	}
	e := &glyphEntry{index: index, glyph: g}
	s.entries[index] = e
	s.addToFront(e)
	return g, nil
}

// Len returns the number of cached outlines.
func (c *GlyphCache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Clear removes all entries.
func (c *GlyphCache) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[uint16]*glyphEntry, s.maxEntries)
		s.head, s.tail = nil, nil
		s.mu.Unlock()
	}
}

// Stats returns cache statistics.
func (c *GlyphCache) Stats() (hits, misses, evictions uint64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

func (s *glyphShard) addToFront(e *glyphEntry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *glyphShard) moveToFront(e *glyphEntry) {
	if e == s.head {
		return
	}
	s.remove(e)
	s.addToFront(e)
}

// remove unlinks e from the LRU list (does not delete from map).
func (s *glyphShard) remove(e *glyphEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
