package rates

import (
	"context"
	"errors"
	"sync"
	"time"

	"keepsake/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// Snapshot is a live rate table and when it was fetched.
type Snapshot struct {
	Rates     domain.Rates `json:"rates"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Cache holds the last live snapshot for the cache window.
type Cache interface {
	Get(ctx context.Context) (*Snapshot, error)
	Set(ctx context.Context, snap *Snapshot) error
}

// MemoryCache is the in-process cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	snap    *Snapshot
	expires time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil || !m.now().Before(m.expires) {
		return nil, ErrCacheMiss
	}
	cp := *m.snap
	return &cp, nil
}

func (m *MemoryCache) Set(_ context.Context, snap *Snapshot) error {
	cp := *snap
	m.mu.Lock()
	m.snap = &cp
	m.expires = m.now().Add(m.ttl)
	m.mu.Unlock()
	return nil
}
