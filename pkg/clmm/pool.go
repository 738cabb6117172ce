package clmm

import (
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"lukechampine.com/uint128"
)

// Pool is a read-only snapshot of an on-chain liquidity venue. It is
// fetched on demand and never mutated by the composer.
type Pool struct {
	ID               string
	CoinTypeA        string
	CoinTypeB        string
	FeeRate          uint64
	TickSpacing      int32
	CurrentTick      int32
	CurrentSqrtPrice uint128.Uint128 // X64 fixed point, passed through opaquely
	Liquidity        sdkmath.Int
}

// Validate checks the snapshot invariants the composer relies on.
func (p *Pool) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: pool id is empty", ErrInvalidInput)
	}
	if p.CoinTypeA == "" || p.CoinTypeB == "" || p.CoinTypeA == p.CoinTypeB {
		return fmt.Errorf("%w: pool %s must have two distinct coin types", ErrInvalidInput, p.ID)
	}
	if p.TickSpacing <= 0 {
		return fmt.Errorf("%w: pool %s tick spacing must be positive, got %d", ErrInvalidInput, p.ID, p.TickSpacing)
	}
	return nil
}

// CurrentPrice derives the human-readable B-per-A price from the pool's
// X64 sqrt price, adjusted for the two coins' decimals.
func (p *Pool) CurrentPrice(decimalsA, decimalsB uint8) float64 {
	sqrtPrice := new(big.Float).SetInt(p.CurrentSqrtPrice.Big())
	q64 := new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 64))

	// price = (sqrt_price / 2^64)^2
	price := new(big.Float).Quo(sqrtPrice, q64)
	price.Mul(price, price)

	decimalAdjust := new(big.Float).SetInt(new(big.Int).Exp(
		big.NewInt(10),
		big.NewInt(int64(decimalsA)-int64(decimalsB)+18), nil))
	price.Mul(price, decimalAdjust)
	price.Quo(price, big.NewFloat(1e18))

	result, _ := price.Float64()
	return result
}

// Position is a snapshot of one liquidity position within a pool.
type Position struct {
	ID        string
	PoolID    string
	LowerTick int32
	UpperTick int32
	Liquidity sdkmath.Int
}
