package inspector

import (
	"context"
	"sync"
	"time"
)

// Cache memoizes CertificateRecords per domain.
//
// Put is check-then-fill: it stores rec only when no entry exists for
// domain and returns whichever record is stored afterwards, together with
// whether this call inserted it.
type Cache interface {
	Get(ctx context.Context, domain DomainName) (CertificateRecord, bool)
	Put(ctx context.Context, domain DomainName, rec CertificateRecord) (CertificateRecord, bool)
	Invalidate(ctx context.Context, domain DomainName)
}

type cacheEntry struct {
	storedAt time.Time
	record   CertificateRecord
}

// MemoryCache is a process-local Cache. With a zero TTL entries never
// expire and the map grows without bound.
type MemoryCache struct {
	now     func() time.Time
	entries map[DomainName]cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewMemoryCache creates an empty MemoryCache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[DomainName]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached record for domain
func (c *MemoryCache) Get(_ context.Context, domain DomainName) (CertificateRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[domain]
	if !ok || c.expired(entry) {
		return CertificateRecord{}, false
	}
	return entry.record, true
}

// Put stores rec unless a live entry already exists for domain
func (c *MemoryCache) Put(_ context.Context, domain DomainName, rec CertificateRecord) (CertificateRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[domain]; ok && !c.expired(entry) {
		return entry.record, false
	}

	c.entries[domain] = cacheEntry{record: rec, storedAt: c.now()}
	return rec, true
}

// Invalidate drops the entry for domain
func (c *MemoryCache) Invalidate(_ context.Context, domain DomainName) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, domain)
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) expired(entry cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(entry.storedAt) >= c.ttl
}
