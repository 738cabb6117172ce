package subscription

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"

	"clmmtx/pkg/clmm"
)

type countingLookup struct {
	poolCalls      int
	liquidityCalls int
	liquidity      int64
}

func (c *countingLookup) GetPool(_ context.Context, id string) (*clmm.Pool, error) {
	c.poolCalls++
	return &clmm.Pool{
		ID:          id,
		CoinTypeA:   "0xa::a::A",
		CoinTypeB:   "0xb::b::B",
		TickSpacing: 60,
		Liquidity:   sdkmath.NewInt(1),
	}, nil
}

func (c *countingLookup) GetPositionLiquidity(_ context.Context, _ string) (sdkmath.Int, error) {
	c.liquidityCalls++
	return sdkmath.NewInt(c.liquidity), nil
}

func TestSnapshotCacheHit(t *testing.T) {
	inner := &countingLookup{liquidity: 500}
	cache := NewSnapshotCache(inner, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cache.GetPool(ctx, "0xp00l"); err != nil {
			t.Fatal(err)
		}
	}
	if inner.poolCalls != 1 {
		t.Errorf("pool calls = %d, want 1", inner.poolCalls)
	}

	if _, err := cache.GetPositionLiquidity(ctx, "0xp0s"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.GetPositionLiquidity(ctx, "0xp0s"); err != nil {
		t.Fatal(err)
	}
	if inner.liquidityCalls != 1 {
		t.Errorf("liquidity calls = %d, want 1", inner.liquidityCalls)
	}
	if cache.Size() != 2 {
		t.Errorf("cache size = %d, want 2", cache.Size())
	}
}

func TestSnapshotCacheCopies(t *testing.T) {
	inner := &countingLookup{}
	cache := NewSnapshotCache(inner, time.Minute, nil)
	ctx := context.Background()

	first, err := cache.GetPool(ctx, "0xp00l")
	if err != nil {
		t.Fatal(err)
	}
	first.TickSpacing = 999

	second, err := cache.GetPool(ctx, "0xp00l")
	if err != nil {
		t.Fatal(err)
	}
	if second.TickSpacing != 60 {
		t.Errorf("cached snapshot mutated through caller copy: tick spacing = %d", second.TickSpacing)
	}
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	inner := &countingLookup{liquidity: 500}
	cache := NewSnapshotCache(inner, time.Minute, nil)
	ctx := context.Background()

	if _, err := cache.GetPositionLiquidity(ctx, "0xp0s"); err != nil {
		t.Fatal(err)
	}
	cache.Invalidate("0xp0s")

	inner.liquidity = 250
	liquidity, err := cache.GetPositionLiquidity(ctx, "0xp0s")
	if err != nil {
		t.Fatal(err)
	}
	if liquidity.String() != "250" {
		t.Errorf("liquidity after invalidation = %s, want 250", liquidity)
	}
	if inner.liquidityCalls != 2 {
		t.Errorf("liquidity calls = %d, want 2", inner.liquidityCalls)
	}
}

func TestSnapshotCacheTTLExpiry(t *testing.T) {
	inner := &countingLookup{}
	cache := NewSnapshotCache(inner, time.Minute, nil)
	ctx := context.Background()

	clock := time.Now()
	cache.now = func() time.Time { return clock }

	if _, err := cache.GetPool(ctx, "0xp00l"); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(30 * time.Second)
	if _, err := cache.GetPool(ctx, "0xp00l"); err != nil {
		t.Fatal(err)
	}
	if inner.poolCalls != 1 {
		t.Errorf("pool calls before expiry = %d, want 1", inner.poolCalls)
	}

	clock = clock.Add(time.Minute)
	if _, err := cache.GetPool(ctx, "0xp00l"); err != nil {
		t.Fatal(err)
	}
	if inner.poolCalls != 2 {
		t.Errorf("pool calls after expiry = %d, want 2", inner.poolCalls)
	}

	stale := cache.StaleIDs(time.Hour)
	if len(stale) != 0 {
		t.Errorf("stale ids = %v, want none", stale)
	}
}
