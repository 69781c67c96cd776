// Package reputation implements C6-C8 (Tranco, VirusTotal, WHOIS clients)
// and their shared cache-through + thundering-herd-prevention machinery.
//
// The sharded LRU cache is grounded directly on cbuijs-dproxy's
// ml_guard_cache.go and rdns.go: container/list + hash/maphash +
// sync.RWMutex, sharded to bound lock contention. No package anywhere in
// the retrieved pack imports a third-party LRU library — this is the
// documented stdlib fallback (see DESIGN.md).
package reputation

import (
	"container/list"
	"hash/maphash"
	"sync"
	"time"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/model"
)

const cacheShardCount = 32

type cacheEntry[T any] struct {
	key     string
	value   model.CacheEntry[T]
	expires time.Time
}

type cacheShard[T any] struct {
	mu       sync.RWMutex
	items    map[string]*list.Element
	lruList  *list.List
	capacity int
}

// Cache is a sharded, TTL-aware, bounded LRU cache for a single reputation
// source's payload type. Positive and negative results use different TTLs
// per spec.md §4.6.
type Cache[T any] struct {
	shards [cacheShardCount]*cacheShard[T]
	seed   maphash.Seed
}

// NewCache builds a cache with capacity split evenly across shards.
func NewCache[T any](capacity int) *Cache[T] {
	c := &Cache[T]{seed: maphash.MakeSeed()}
	perShard := capacity / cacheShardCount
	if perShard < 1 {
		perShard = 1
	}
	for i := range c.shards {
		c.shards[i] = &cacheShard[T]{
			items:    make(map[string]*list.Element),
			lruList:  list.New(),
			capacity: perShard,
		}
	}
	return c
}

func (c *Cache[T]) shardFor(key string) *cacheShard[T] {
	var h maphash.Hash
	h.SetSeed(c.seed)
	h.WriteString(key)
	return c.shards[h.Sum64()&(cacheShardCount-1)]
}

// Get returns the cached entry if present and not expired.
func (c *Cache[T]) Get(key string) (model.CacheEntry[T], bool) {
	sh := c.shardFor(key)
	sh.mu.RLock()
	el, ok := sh.items[key]
	sh.mu.RUnlock()
	if !ok {
		return model.CacheEntry[T]{}, false
	}
	entry := el.Value.(*cacheEntry[T])
	if time.Now().After(entry.expires) {
		sh.mu.Lock()
		sh.removeLocked(el)
		sh.mu.Unlock()
		return model.CacheEntry[T]{}, false
	}
	sh.mu.Lock()
	sh.lruList.MoveToFront(el)
	sh.mu.Unlock()
	return entry.value, true
}

// Set stores value under key with the given TTL, evicting the
// least-recently-used entry in the shard if it is at capacity.
func (c *Cache[T]) Set(key string, value model.CacheEntry[T], ttl time.Duration) {
	sh := c.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if el, ok := sh.items[key]; ok {
		el.Value.(*cacheEntry[T]).value = value
		el.Value.(*cacheEntry[T]).expires = time.Now().Add(ttl)
		sh.lruList.MoveToFront(el)
		return
	}

	entry := &cacheEntry[T]{key: key, value: value, expires: time.Now().Add(ttl)}
	el := sh.lruList.PushFront(entry)
	sh.items[key] = el

	if sh.capacity > 0 && sh.lruList.Len() > sh.capacity {
		oldest := sh.lruList.Back()
		if oldest != nil {
			sh.removeLocked(oldest)
		}
	}
}

func (sh *cacheShard[T]) removeLocked(el *list.Element) {
	entry := el.Value.(*cacheEntry[T])
	delete(sh.items, entry.key)
	sh.lruList.Remove(el)
}
