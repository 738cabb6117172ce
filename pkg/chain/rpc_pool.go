package chain

import (
	"context"
	"fmt"
	"sync/atomic"

	sdkmath "cosmossdk.io/math"
	"go.uber.org/zap"

	"clmmtx/pkg/clmm"
)

// RPCPool distributes lookups across multiple endpoints round-robin. It
// satisfies the same lookup surface as a single Client.
type RPCPool struct {
	clients []*Client
	index   uint64
}

// NewRPCPool creates a client per endpoint, each with its own limiter.
func NewRPCPool(endpoints []string, reqLimitPerSecond int, logger *zap.Logger) (*RPCPool, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no rpc endpoints configured")
	}

	pool := &RPCPool{clients: make([]*Client, 0, len(endpoints))}
	for _, endpoint := range endpoints {
		pool.clients = append(pool.clients, NewClient(endpoint, reqLimitPerSecond, logger))
	}
	return pool, nil
}

// GetClient returns the next client in round-robin fashion.
func (p *RPCPool) GetClient() *Client {
	if len(p.clients) == 1 {
		return p.clients[0]
	}
	idx := atomic.AddUint64(&p.index, 1) % uint64(len(p.clients))
	return p.clients[idx]
}

// Size returns the number of clients in the pool.
func (p *RPCPool) Size() int {
	return len(p.clients)
}

func (p *RPCPool) GetPool(ctx context.Context, id string) (*clmm.Pool, error) {
	return p.GetClient().GetPool(ctx, id)
}

func (p *RPCPool) GetPosition(ctx context.Context, id string) (*clmm.Position, error) {
	return p.GetClient().GetPosition(ctx, id)
}

func (p *RPCPool) GetPositionLiquidity(ctx context.Context, id string) (sdkmath.Int, error) {
	return p.GetClient().GetPositionLiquidity(ctx, id)
}
