package test

import (
	"context"
	"testing"
	"time"

	"clmmtx/pkg/chain"
	"clmmtx/pkg/composer"
	"clmmtx/pkg/config"
)

// Mainnet SUI/USDC pool.
const suiUsdcPool = "0xcf994611fd4c48e277ce3ffd4d4364c914af2c3cbb05f7bf6facd371de688630"

func TestLivePoolCompose(t *testing.T) {
	if err := config.LoadEnv("../.env"); err != nil {
		t.Logf("warning: could not load .env file: %v", err)
	}

	endpoints := config.GetRPCEndpoints()
	if len(endpoints) == 0 {
		t.Skip("No RPC endpoints configured. Set RPC_ENDPOINTS in .env")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := chain.NewRPCPool(endpoints, 10, nil)
	if err != nil {
		t.Fatalf("failed to create rpc pool: %v", err)
	}

	snapshot, err := pool.GetPool(ctx, suiUsdcPool)
	if err != nil {
		t.Fatalf("failed to fetch pool: %v", err)
	}
	t.Logf("pool %s: %s / %s, tick %d, spacing %d",
		snapshot.ID, snapshot.CoinTypeA, snapshot.CoinTypeB,
		snapshot.CurrentTick, snapshot.TickSpacing)

	c := composer.New(pool, composer.ProtocolConfig{})

	result, err := c.CollectFeeAndRewards(ctx, composer.CollectRequest{
		PoolID:     suiUsdcPool,
		PositionID: "0x1111111111111111111111111111111111111111111111111111111111111111",
	})
	if err != nil {
		t.Fatalf("failed to compose collect transaction: %v", err)
	}
	if result.Payload == "" || result.Digest == "" {
		t.Fatal("composed transaction has empty payload or digest")
	}
	if got := len(result.Tx.MoveCalls()); got != 2 {
		t.Fatalf("composed %d calls, want collect_fee + collect_reward", got)
	}
	t.Logf("collect fee and rewards: digest %s", result.Digest)
}
