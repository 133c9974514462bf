package proxy

import (
	"os"
	"strconv"
	"sync"

	"autoalt/alt"
)

type dimEntry struct {
	key  string
	w, h int
	ok   bool
	prev *dimEntry
	next *dimEntry
}

// dimCache memoises image dimensions keyed by path, mtime and size, so an
// edited file is probed again. With zero entries every lookup goes straight
// to the underlying prober.
type dimCache struct {
	mu     sync.Mutex
	max    int
	m      map[string]*dimEntry
	head   *dimEntry
	tail   *dimEntry
	next   alt.Prober
	hits   int
	misses int
}

func newDimCache(max int, next alt.Prober) *dimCache {
	if next == nil {
		next = alt.FileProber{}
	}
	return &dimCache{max: max, m: map[string]*dimEntry{}, next: next}
}

// Dimensions implements alt.Prober.
func (c *dimCache) Dimensions(path string) (int, int, bool) {
	if c.max <= 0 {
		return c.next.Dimensions(path)
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0, 0, false
	}
	key := path + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10) + "|" + strconv.FormatInt(info.Size(), 10)
	if w, h, ok, found := c.get(key); found {
		return w, h, ok
	}
	w, h, ok := c.next.Dimensions(path)
	c.put(key, w, h, ok)
	return w, h, ok
}

// Stats reports cache hits and misses.
func (c *dimCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *dimCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *dimCache) get(key string) (w, h int, ok, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.m[key]
	if !found {
		c.misses++
		return 0, 0, false, false
	}
	c.hits++
	c.moveFront(e)
	return e.w, e.h, e.ok, true
}

func (c *dimCache) put(key string, w, h int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, found := c.m[key]; found {
		e.w, e.h, e.ok = w, h, ok
		c.moveFront(e)
		return
	}
	e := &dimEntry{key: key, w: w, h: h, ok: ok, next: c.head}
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
	c.m[key] = e
	for len(c.m) > c.max && c.tail != nil {
		old := c.tail
		delete(c.m, old.key)
		c.tail = old.prev
		if c.tail != nil {
			c.tail.next = nil
		} else {
			c.head = nil
		}
	}
}

func (c *dimCache) moveFront(e *dimEntry) {
	if c.head == e {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if c.tail == e {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}
