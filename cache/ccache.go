// Package cache provides a concurrency safe LRU cache.
package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// CCache is a mutex guarded groupcache LRU that also counts hits and misses.
type CCache struct {
	l      sync.Mutex
	cache  *lru.Cache
	hits   uint64
	misses uint64
}

// NewCCache returns a cache holding at most maxEntries, 0 means unlimited.
func NewCCache(maxEntries int) *CCache {
	return &CCache{
		cache: lru.New(maxEntries),
	}
}

func (c *CCache) Get(key lru.Key) (value interface{}, ok bool) {
	c.l.Lock()
	defer c.l.Unlock()
	value, ok = c.cache.Get(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return value, ok
}

func (c *CCache) Add(key lru.Key, value interface{}) {
	c.l.Lock()
	c.cache.Add(key, value)
	c.l.Unlock()
}

func (c *CCache) Remove(key lru.Key) {
	c.l.Lock()
	c.cache.Remove(key)
	c.l.Unlock()
}

func (c *CCache) Clear() {
	c.l.Lock()
	c.cache.Clear()
	c.l.Unlock()
}

func (c *CCache) Len() int {
	c.l.Lock()
	defer c.l.Unlock()
	return c.cache.Len()
}

func (c *CCache) SetMaxEntries(maxEntries int) {
	c.l.Lock()
	c.cache.MaxEntries = maxEntries
	for maxEntries > 0 && c.cache.Len() > maxEntries {
		c.cache.RemoveOldest()
	}
	c.l.Unlock()
}

// Stats returns the number of hits and misses seen by Get.
func (c *CCache) Stats() (hits, misses uint64) {
	c.l.Lock()
	defer c.l.Unlock()
	return c.hits, c.misses
}
