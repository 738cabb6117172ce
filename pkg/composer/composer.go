// Package composer turns high-level liquidity intents into ordered,
// serializable on-chain call sequences. Every operation is a pure pipeline
// over its request plus at most two read-only lookups; no state survives
// between invocations, and no calls are emitted once anything fails.
package composer

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"clmmtx/pkg/clmm"
	"clmmtx/pkg/coin"
	"clmmtx/pkg/txb"
)

var (
	// ErrUpstreamLookup wraps pool/position resolution failures. The
	// composer never substitutes defaults for looked-up fields.
	ErrUpstreamLookup = errors.New("upstream lookup failed")

	// ErrInvalidRange is returned when derived tick bounds are not
	// strictly ordered.
	ErrInvalidRange = errors.New("invalid price range")
)

// Lookup resolves pool and position state the caller did not supply.
type Lookup interface {
	GetPool(ctx context.Context, id string) (*clmm.Pool, error)
	GetPositionLiquidity(ctx context.Context, id string) (sdkmath.Int, error)
}

// ProtocolConfig addresses the deployed protocol. Zero-value fields fall
// back to the published defaults.
type ProtocolConfig struct {
	PackageID         string
	GlobalConfigID    string
	ClockID           string
	NativeCoinType    string
	DefaultRewardType string
}

func (cfg ProtocolConfig) withDefaults() ProtocolConfig {
	if cfg.PackageID == "" {
		cfg.PackageID = DefaultPackageID
	}
	if cfg.GlobalConfigID == "" {
		cfg.GlobalConfigID = DefaultGlobalConfigID
	}
	if cfg.ClockID == "" {
		cfg.ClockID = ClockObjectID
	}
	if cfg.NativeCoinType == "" {
		cfg.NativeCoinType = NativeCoinType
	}
	if cfg.DefaultRewardType == "" {
		cfg.DefaultRewardType = DefaultRewardCoinType
	}
	return cfg
}

// Composer builds transactions for one protocol deployment.
type Composer struct {
	lookup Lookup
	cfg    ProtocolConfig
}

// New returns a composer. The lookup may be nil when every request
// carries its own pool snapshot and liquidity.
func New(lookup Lookup, cfg ProtocolConfig) *Composer {
	return &Composer{lookup: lookup, cfg: cfg.withDefaults()}
}

// Result is a composed transaction plus its display summary.
type Result struct {
	Tx      *txb.Transaction
	Payload string `json:"payload"`
	Digest  string `json:"digest"`
	Summary Summary
}

// Summary reports what was derived during composition, for caller display.
type Summary struct {
	Operation         string   `json:"operation"`
	PoolID            string   `json:"poolId"`
	PositionID        string   `json:"positionId,omitempty"`
	CoinTypeA         string   `json:"coinTypeA,omitempty"`
	CoinTypeB         string   `json:"coinTypeB,omitempty"`
	AmountA           string   `json:"amountA,omitempty"`
	AmountB           string   `json:"amountB,omitempty"`
	DecimalsA         uint8    `json:"decimalsA,omitempty"`
	DecimalsB         uint8    `json:"decimalsB,omitempty"`
	LowerTick         *int32   `json:"lowerTick,omitempty"`
	UpperTick         *int32   `json:"upperTick,omitempty"`
	LowerPrice        float64  `json:"lowerPrice,omitempty"`
	UpperPrice        float64  `json:"upperPrice,omitempty"`
	LiquidityToRemove string   `json:"liquidityToRemove,omitempty"`
	Percent           int      `json:"percent,omitempty"`
	RewardTypes       []string `json:"rewardTypes,omitempty"`
	// SlippagePct is advisory: minimum-output bounds are passed as zero
	// unless the caller overrides them explicitly.
	SlippagePct float64 `json:"slippagePct,omitempty"`
}

func (c *Composer) target(fn string) string {
	return c.cfg.PackageID + "::" + callModule + "::" + fn
}

// resolvePool returns a validated pool snapshot, fetching it when the
// caller supplied none. The returned copy is never the caller's.
func (c *Composer) resolvePool(ctx context.Context, poolID string, snapshot *clmm.Pool) (*clmm.Pool, error) {
	var pool clmm.Pool
	switch {
	case snapshot != nil:
		pool = *snapshot
		if pool.ID == "" {
			pool.ID = poolID
		}
	case c.lookup == nil:
		return nil, fmt.Errorf("%w: no pool snapshot supplied and no lookup configured", ErrUpstreamLookup)
	default:
		fetched, err := c.lookup.GetPool(ctx, poolID)
		if err != nil {
			return nil, fmt.Errorf("%w: pool %s: %v", ErrUpstreamLookup, poolID, err)
		}
		pool = *fetched
	}
	if err := pool.Validate(); err != nil {
		return nil, err
	}
	return &pool, nil
}

// resolveLiquidity returns the position's current liquidity, fetching it
// when the caller supplied none.
func (c *Composer) resolveLiquidity(ctx context.Context, positionID string, supplied *sdkmath.Int) (sdkmath.Int, error) {
	if supplied != nil {
		return *supplied, nil
	}
	if c.lookup == nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: no liquidity supplied and no lookup configured", ErrUpstreamLookup)
	}
	liquidity, err := c.lookup.GetPositionLiquidity(ctx, positionID)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: position %s: %v", ErrUpstreamLookup, positionID, err)
	}
	return liquidity, nil
}

// fundingArg materializes a funding plan into the coin argument the
// protocol call consumes.
func (c *Composer) fundingArg(tx *txb.Transaction, plan coin.FundingPlan, coinType string) txb.Argument {
	switch plan.Kind {
	case coin.PlanSplit:
		return tx.SplitCoins(tx.Object(plan.Target), tx.PureIntU64(plan.Amount))
	case coin.PlanMergeSplit:
		target := tx.Object(plan.Target)
		sources := make([]txb.Argument, 0, len(plan.MergeSources))
		for _, id := range plan.MergeSources {
			sources = append(sources, tx.Object(id))
		}
		tx.MergeCoins(target, sources...)
		return tx.SplitCoins(target, tx.PureIntU64(plan.Amount))
	case coin.PlanGasSplit:
		return tx.SplitCoins(tx.GasCoin(), tx.PureIntU64(plan.Amount))
	default: // PlanZero
		return tx.MoveCall(zeroCoinTarget, []string{coinType})
	}
}

func (c *Composer) finish(tx *txb.Transaction, summary Summary) (*Result, error) {
	payload, err := tx.Base64()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	digest, err := tx.Digest()
	if err != nil {
		return nil, fmt.Errorf("failed to digest transaction: %w", err)
	}
	return &Result{Tx: tx, Payload: payload, Digest: digest, Summary: summary}, nil
}
