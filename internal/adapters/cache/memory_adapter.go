package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/zatekoja/doctorconnect/internal/domain/providers"
)

// MemoryAdapter implements CacheProvider in process. Entries die with the process.
type MemoryAdapter struct {
	cache *gocache.Cache
}

// NewMemoryAdapter creates an in-process cache. Expired entries are swept every cleanupInterval.
func NewMemoryAdapter(defaultTTL, cleanupInterval time.Duration) providers.CacheProvider {
	return &MemoryAdapter{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := a.cache.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	data := v.([]byte)
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Set stores a copy of value. A zero ttl uses the adapter's default.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	data := make([]byte, len(value))
	copy(data, value)
	a.cache.Set(key, data, ttl)
	return nil
}

func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.cache.Delete(key)
	return nil
}
