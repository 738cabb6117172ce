package subscription

import (
	"context"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"go.uber.org/zap"

	"clmmtx/pkg/clmm"
)

// Lookup is the upstream snapshot source the cache wraps. It matches the
// composer's lookup surface, so a cache slots in front of a chain client
// or RPC pool without either side knowing.
type Lookup interface {
	GetPool(ctx context.Context, id string) (*clmm.Pool, error)
	GetPositionLiquidity(ctx context.Context, id string) (sdkmath.Int, error)
}

type poolEntry struct {
	pool      clmm.Pool
	fetchedAt time.Time
}

type liquidityEntry struct {
	liquidity sdkmath.Int
	fetchedAt time.Time
}

// SnapshotCache memoizes pool and position snapshots for a bounded time.
// Entries expire by TTL and can be invalidated early when the watcher
// sees an event on the object.
type SnapshotCache struct {
	inner Lookup
	ttl   time.Duration
	log   *zap.Logger

	mu        sync.RWMutex
	pools     map[string]poolEntry
	liquidity map[string]liquidityEntry

	// now is swapped in tests to step time without sleeping.
	now func() time.Time
}

// NewSnapshotCache wraps inner with a TTL cache. A non-positive TTL
// disables expiry; entries then live until invalidated.
func NewSnapshotCache(inner Lookup, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCache{
		inner:     inner,
		ttl:       ttl,
		log:       logger,
		pools:     make(map[string]poolEntry),
		liquidity: make(map[string]liquidityEntry),
		now:       time.Now,
	}
}

func (c *SnapshotCache) fresh(fetchedAt time.Time) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(fetchedAt) < c.ttl
}

// GetPool returns a cached pool snapshot, fetching from the inner lookup
// on miss or expiry. Callers receive a copy and may mutate it freely.
func (c *SnapshotCache) GetPool(ctx context.Context, id string) (*clmm.Pool, error) {
	c.mu.RLock()
	entry, ok := c.pools[id]
	c.mu.RUnlock()
	if ok && c.fresh(entry.fetchedAt) {
		pool := entry.pool
		return &pool, nil
	}

	pool, err := c.inner.GetPool(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pools[id] = poolEntry{pool: *pool, fetchedAt: c.now()}
	c.mu.Unlock()

	c.log.Debug("cached pool snapshot", zap.String("pool_id", id))
	return pool, nil
}

// GetPositionLiquidity returns cached position liquidity, fetching on
// miss or expiry.
func (c *SnapshotCache) GetPositionLiquidity(ctx context.Context, id string) (sdkmath.Int, error) {
	c.mu.RLock()
	entry, ok := c.liquidity[id]
	c.mu.RUnlock()
	if ok && c.fresh(entry.fetchedAt) {
		return entry.liquidity, nil
	}

	liquidity, err := c.inner.GetPositionLiquidity(ctx, id)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	c.mu.Lock()
	c.liquidity[id] = liquidityEntry{liquidity: liquidity, fetchedAt: c.now()}
	c.mu.Unlock()

	c.log.Debug("cached position liquidity", zap.String("position_id", id))
	return liquidity, nil
}

// Invalidate drops any cached snapshot for the object. The next lookup
// refetches from the inner source.
func (c *SnapshotCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pools, id)
	delete(c.liquidity, id)
}

// Size returns the number of cached entries across both tables.
func (c *SnapshotCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pools) + len(c.liquidity)
}

// Clear empties the cache.
func (c *SnapshotCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools = make(map[string]poolEntry)
	c.liquidity = make(map[string]liquidityEntry)
}

// StaleIDs returns cached object IDs older than maxAge, for callers that
// refresh proactively instead of waiting for expiry.
func (c *SnapshotCache) StaleIDs(maxAge time.Duration) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	var stale []string
	for id, entry := range c.pools {
		if now.Sub(entry.fetchedAt) > maxAge {
			stale = append(stale, id)
		}
	}
	for id, entry := range c.liquidity {
		if now.Sub(entry.fetchedAt) > maxAge {
			stale = append(stale, id)
		}
	}
	return stale
}
