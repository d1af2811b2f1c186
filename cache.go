package sequel

import "sync"

// CacheStore is the get/set hook Config.Cache accepts to memoize SELECT
// results, matching the shape of the teacher's sqlx-runner.Cache package
// variable and SetCache function. The teacher's own store type,
// kvs.KeyValueStore, lives inside that repo's internal dat/kvs package and
// isn't an importable third-party dependency, so this defines the same
// get/set contract locally instead.
type CacheStore interface {
	Get(key string) (*Result, bool)
	Set(key string, result *Result)
}

// MemoryCache is a process-local, mutex-guarded CacheStore — the same
// in-memory default the teacher's own runner falls back to when no cache
// has been configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*Result
}

// NewMemoryCache builds an empty MemoryCache ready to use.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*Result)}
}

// Get returns the cached Result for key, if any.
func (m *MemoryCache) Get(key string) (*Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[key]
	return r, ok
}

// Set stores result under key, overwriting any prior entry.
func (m *MemoryCache) Set(key string, result *Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = result
}
