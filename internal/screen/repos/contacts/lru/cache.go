package lru

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/ringguard/internal/screen/common/phone"
	"github.com/haukened/ringguard/internal/screen/repos/contacts"
)

// CachedDirectory fronts a contacts.Directory with an LRU of successful lookup
// results keyed by normalized number. Failed lookups are never cached, so a
// transient directory error cannot pin a number as unknown.
type CachedDirectory struct {
	next      contacts.Directory
	lru       *lru.Cache[string, bool]
	hits      uint64
	misses    uint64
	evictions uint64
}

// Stats reports cumulative cache counters.
type Stats struct {
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New wraps next with a cache of the given capacity. If size <= 0, next is
// returned unchanged.
func New(next contacts.Directory, size int) (contacts.Directory, error) {
	if size <= 0 {
		return next, nil
	}
	cd := &CachedDirectory{next: next}
	cache, err := lru.NewWithEvict(size, func(string, bool) {
		atomic.AddUint64(&cd.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	cd.lru = cache
	return cd, nil
}

// IsKnownContact answers from the cache when possible.
func (c *CachedDirectory) IsKnownContact(ctx context.Context, number string) (bool, error) {
	key := phone.Normalize(number)
	if key == "" {
		return c.next.IsKnownContact(ctx, number)
	}
	if known, ok := c.lru.Get(key); ok {
		atomic.AddUint64(&c.hits, 1)
		return known, nil
	}
	atomic.AddUint64(&c.misses, 1)
	known, err := c.next.IsKnownContact(ctx, number)
	if err != nil {
		return false, err
	}
	c.lru.Add(key, known)
	return known, nil
}

// Purge drops every cached result. Call after the wrapped directory reloads.
func (c *CachedDirectory) Purge() { c.lru.Purge() }

// Len returns the number of cached results.
func (c *CachedDirectory) Len() int { return c.lru.Len() }

// Stats returns a snapshot of the cache counters.
func (c *CachedDirectory) Stats() Stats {
	return Stats{
		Size:      c.Len(),
		Hits:      atomic.LoadUint64(&c.hits),
		Misses:    atomic.LoadUint64(&c.misses),
		Evictions: atomic.LoadUint64(&c.evictions),
	}
}

var _ contacts.Directory = (*CachedDirectory)(nil)
