// Package cache implements the transient key-value store on
// patrickmn/go-cache. Entries never expire on their own; they are only
// overwritten or deleted by the recompute paths.
package cache

import (
	gocache "github.com/patrickmn/go-cache"

	"confcentral/internal/domain"
)

type memoryCache struct {
	c *gocache.Cache
}

// New returns an in-memory cache with no expiration.
func New() domain.Cache {
	return &memoryCache{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *memoryCache) Get(key string) (any, bool) {
	return m.c.Get(key)
}

func (m *memoryCache) Set(key string, value any) {
	m.c.Set(key, value, gocache.NoExpiration)
}

func (m *memoryCache) Delete(key string) {
	m.c.Delete(key)
}
