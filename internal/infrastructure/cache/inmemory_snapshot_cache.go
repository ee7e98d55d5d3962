package cache

import (
	"context"
	"sync"
	"time"

	"github.com/steelerp/backend/internal/domain/allocation"
)

// InMemorySnapshotCache implements SnapshotCache with a local map, suitable
// for single-instance deployments and tests.
type InMemorySnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type inMemoryEntry struct {
	batches   []allocation.Batch
	expiresAt time.Time
}

// NewInMemorySnapshotCache creates an in-memory snapshot cache.
func NewInMemorySnapshotCache(ttl time.Duration) *InMemorySnapshotCache {
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	return &InMemorySnapshotCache{
		entries: make(map[string]inMemoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements SnapshotCache
func (c *InMemorySnapshotCache) Get(_ context.Context, productID, warehouseID int64) ([]allocation.Batch, bool) {
	key := snapshotKey("", productID, warehouseID)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}

	// Copy so callers cannot mutate the cached snapshot
	batches := make([]allocation.Batch, len(entry.batches))
	copy(batches, entry.batches)
	return batches, true
}

// Set implements SnapshotCache
func (c *InMemorySnapshotCache) Set(_ context.Context, productID, warehouseID int64, batches []allocation.Batch) {
	stored := make([]allocation.Batch, len(batches))
	copy(stored, batches)

	c.mu.Lock()
	c.entries[snapshotKey("", productID, warehouseID)] = inMemoryEntry{
		batches:   stored,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate implements SnapshotCache
func (c *InMemorySnapshotCache) Invalidate(_ context.Context, productID, warehouseID int64) {
	c.mu.Lock()
	delete(c.entries, snapshotKey("", productID, warehouseID))
	c.mu.Unlock()
}

var _ SnapshotCache = (*InMemorySnapshotCache)(nil)
