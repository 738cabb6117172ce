package composer

import (
	"context"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"

	"clmmtx/pkg/clmm"
	"clmmtx/pkg/coin"
	"clmmtx/pkg/txb"
)

// PriceRange describes the desired position range as multipliers around
// the current price. Zero multipliers fall back to the defaults.
type PriceRange struct {
	CurrentPrice    float64
	LowerMultiplier float64
	UpperMultiplier float64
}

// OpenPositionRequest opens a new position and funds it.
type OpenPositionRequest struct {
	PoolID string
	// Pool is an optional pre-fetched snapshot; when nil the lookup runs.
	Pool *clmm.Pool
	// AmountA and AmountB are human-readable deposit amounts; either may
	// be zero for a one-sided deposit.
	AmountA float64
	AmountB float64
	// Candidate coin objects funding each side. Side A may fall back to
	// the gas balance when it is the native asset; side B never does.
	CoinAObjectIDs []string
	CoinBObjectIDs []string
	PriceRange     *PriceRange
	DecimalsA      *uint8
	DecimalsB      *uint8
	// MinLiquidity bounds the liquidity minted; nil means zero (advisory
	// slippage, see Summary.SlippagePct).
	MinLiquidity *sdkmath.Int
	SlippagePct  float64
}

// OpenPosition composes an open-position call followed by an add-liquidity
// call funded per side.
func (c *Composer) OpenPosition(ctx context.Context, req OpenPositionRequest) (*Result, error) {
	pool, err := c.resolvePool(ctx, req.PoolID, req.Pool)
	if err != nil {
		return nil, fmt.Errorf("open position: %w", err)
	}

	decimalsA, decimalsB := DefaultDecimals, DefaultDecimals
	if req.DecimalsA != nil {
		decimalsA = *req.DecimalsA
	}
	if req.DecimalsB != nil {
		decimalsB = *req.DecimalsB
	}

	lowerTick, upperTick, lowerPrice, upperPrice, err := deriveTicks(pool, req.PriceRange, decimalsA, decimalsB)
	if err != nil {
		return nil, fmt.Errorf("open position: %w", err)
	}

	amountA, err := clmm.ScaleToChainUnits(req.AmountA, decimalsA)
	if err != nil {
		return nil, fmt.Errorf("open position: amount A: %w", err)
	}
	amountB, err := clmm.ScaleToChainUnits(req.AmountB, decimalsB)
	if err != nil {
		return nil, fmt.Errorf("open position: amount B: %w", err)
	}

	planA, err := coin.Resolve(coin.InputSpec{
		RequestedAmount:    amountA,
		CandidateObjectIDs: req.CoinAObjectIDs,
		AllowGasFallback:   pool.CoinTypeA == c.cfg.NativeCoinType,
	})
	if err != nil {
		return nil, fmt.Errorf("open position: side A: %w", err)
	}
	planB, err := coin.Resolve(coin.InputSpec{
		RequestedAmount:    amountB,
		CandidateObjectIDs: req.CoinBObjectIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("open position: side B: %w", err)
	}

	minLiquidity := sdkmath.ZeroInt()
	if req.MinLiquidity != nil {
		minLiquidity = *req.MinLiquidity
	}

	typeArgs := []string{pool.CoinTypeA, pool.CoinTypeB}
	tx := txb.New()
	configArg := tx.SharedObject(c.cfg.GlobalConfigID, false)
	poolArg := tx.SharedObject(pool.ID, true)

	position := tx.MoveCall(c.target("open_position"), typeArgs,
		configArg, poolArg,
		tx.PureI32(lowerTick), tx.PureI32(upperTick))

	coinA := c.fundingArg(tx, planA, pool.CoinTypeA)
	coinB := c.fundingArg(tx, planB, pool.CoinTypeB)

	tx.MoveCall(c.target("add_liquidity"), typeArgs,
		configArg, poolArg, position,
		coinA, coinB,
		tx.PureIntU64(amountA), tx.PureIntU64(amountB),
		tx.PureIntU128(minLiquidity),
		tx.SharedObject(c.cfg.ClockID, false))

	return c.finish(tx, Summary{
		Operation:   "open_position",
		PoolID:      pool.ID,
		CoinTypeA:   pool.CoinTypeA,
		CoinTypeB:   pool.CoinTypeB,
		AmountA:     amountA.String(),
		AmountB:     amountB.String(),
		DecimalsA:   decimalsA,
		DecimalsB:   decimalsB,
		LowerTick:   &lowerTick,
		UpperTick:   &upperTick,
		LowerPrice:  lowerPrice,
		UpperPrice:  upperPrice,
		SlippagePct: req.SlippagePct,
	})
}

func deriveTicks(pool *clmm.Pool, pr *PriceRange, decimalsA, decimalsB uint8) (lower, upper int32, lowerPrice, upperPrice float64, err error) {
	current := 0.0
	lowerMult, upperMult := DefaultLowerMultiplier, DefaultUpperMultiplier
	if pr != nil {
		current = pr.CurrentPrice
		if pr.LowerMultiplier != 0 {
			lowerMult = pr.LowerMultiplier
		}
		if pr.UpperMultiplier != 0 {
			upperMult = pr.UpperMultiplier
		}
	}
	if current == 0 {
		current = pool.CurrentPrice(decimalsA, decimalsB)
	}
	if math.IsNaN(current) || math.IsInf(current, 0) || current <= 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: current price must be positive, got %v", clmm.ErrInvalidInput, current)
	}
	if lowerMult <= 0 || upperMult <= 0 || lowerMult >= upperMult {
		return 0, 0, 0, 0, fmt.Errorf("%w: price multipliers must satisfy 0 < lower < upper, got %v and %v", clmm.ErrInvalidInput, lowerMult, upperMult)
	}

	lowerPrice = current * lowerMult
	upperPrice = current * upperMult
	lower, err = clmm.PriceToTick(lowerPrice, pool.TickSpacing)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	upper, err = clmm.PriceToTick(upperPrice, pool.TickSpacing)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if lower >= upper {
		return 0, 0, 0, 0, fmt.Errorf("%w: ticks %d and %d are not strictly ordered", ErrInvalidRange, lower, upper)
	}
	return lower, upper, lowerPrice, upperPrice, nil
}

// RemoveLiquidityRequest removes a percentage of a position's liquidity.
type RemoveLiquidityRequest struct {
	PoolID     string
	PositionID string
	// Percent of current liquidity to remove, 1 to 100.
	Percent int
	Pool    *clmm.Pool
	// Liquidity is the position's current liquidity; when nil the lookup runs.
	Liquidity *sdkmath.Int
	// Minimum output bounds; nil means zero (advisory slippage).
	MinAmountA  *sdkmath.Int
	MinAmountB  *sdkmath.Int
	SlippagePct float64
}

// RemoveLiquidity composes a single remove-liquidity call for the exact
// integer share of the position's current liquidity.
func (c *Composer) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (*Result, error) {
	if req.Percent < 1 || req.Percent > 100 {
		return nil, fmt.Errorf("remove liquidity: %w: percent must be between 1 and 100, got %d", clmm.ErrInvalidInput, req.Percent)
	}

	pool, err := c.resolvePool(ctx, req.PoolID, req.Pool)
	if err != nil {
		return nil, fmt.Errorf("remove liquidity: %w", err)
	}
	liquidity, err := c.resolveLiquidity(ctx, req.PositionID, req.Liquidity)
	if err != nil {
		return nil, fmt.Errorf("remove liquidity: %w", err)
	}
	toRemove, err := clmm.ProportionalLiquidity(liquidity, req.Percent)
	if err != nil {
		return nil, fmt.Errorf("remove liquidity: %w", err)
	}

	minA, minB := sdkmath.ZeroInt(), sdkmath.ZeroInt()
	if req.MinAmountA != nil {
		minA = *req.MinAmountA
	}
	if req.MinAmountB != nil {
		minB = *req.MinAmountB
	}

	tx := txb.New()
	tx.MoveCall(c.target("remove_liquidity"), []string{pool.CoinTypeA, pool.CoinTypeB},
		tx.SharedObject(c.cfg.GlobalConfigID, false),
		tx.SharedObject(pool.ID, true),
		tx.Object(req.PositionID),
		tx.PureIntU128(toRemove),
		tx.PureIntU64(minA), tx.PureIntU64(minB),
		tx.SharedObject(c.cfg.ClockID, false))

	return c.finish(tx, Summary{
		Operation:         "remove_liquidity",
		PoolID:            pool.ID,
		PositionID:        req.PositionID,
		CoinTypeA:         pool.CoinTypeA,
		CoinTypeB:         pool.CoinTypeB,
		LiquidityToRemove: toRemove.String(),
		Percent:           req.Percent,
		SlippagePct:       req.SlippagePct,
	})
}

// CollectRequest identifies a position for fee and reward collection.
type CollectRequest struct {
	PoolID     string
	PositionID string
	Pool       *clmm.Pool
	// RewardTypes are collected in list order. Empty means the default
	// reward type for reward operations; close-position treats empty as
	// "no rewards".
	RewardTypes []string
}

// CollectFee composes a single collect-fee call.
func (c *Composer) CollectFee(ctx context.Context, req CollectRequest) (*Result, error) {
	pool, err := c.resolvePool(ctx, req.PoolID, req.Pool)
	if err != nil {
		return nil, fmt.Errorf("collect fee: %w", err)
	}

	tx := txb.New()
	c.emitCollectFee(tx, pool, req.PositionID)

	return c.finish(tx, Summary{
		Operation:  "collect_fee",
		PoolID:     pool.ID,
		PositionID: req.PositionID,
		CoinTypeA:  pool.CoinTypeA,
		CoinTypeB:  pool.CoinTypeB,
	})
}

// CollectRewards composes one collect-reward call per reward type, in
// list order.
func (c *Composer) CollectRewards(ctx context.Context, req CollectRequest) (*Result, error) {
	pool, err := c.resolvePool(ctx, req.PoolID, req.Pool)
	if err != nil {
		return nil, fmt.Errorf("collect rewards: %w", err)
	}
	rewardTypes := req.RewardTypes
	if len(rewardTypes) == 0 {
		rewardTypes = []string{c.cfg.DefaultRewardType}
	}

	tx := txb.New()
	c.emitCollectRewards(tx, pool, req.PositionID, rewardTypes)

	return c.finish(tx, Summary{
		Operation:   "collect_rewards",
		PoolID:      pool.ID,
		PositionID:  req.PositionID,
		CoinTypeA:   pool.CoinTypeA,
		CoinTypeB:   pool.CoinTypeB,
		RewardTypes: rewardTypes,
	})
}

// CollectFeeAndRewards composes a collect-fee call followed by the same
// reward calls CollectRewards would emit, in one transaction.
func (c *Composer) CollectFeeAndRewards(ctx context.Context, req CollectRequest) (*Result, error) {
	pool, err := c.resolvePool(ctx, req.PoolID, req.Pool)
	if err != nil {
		return nil, fmt.Errorf("collect fee and rewards: %w", err)
	}
	rewardTypes := req.RewardTypes
	if len(rewardTypes) == 0 {
		rewardTypes = []string{c.cfg.DefaultRewardType}
	}

	tx := txb.New()
	c.emitCollectFee(tx, pool, req.PositionID)
	c.emitCollectRewards(tx, pool, req.PositionID, rewardTypes)

	return c.finish(tx, Summary{
		Operation:   "collect_fee_and_rewards",
		PoolID:      pool.ID,
		PositionID:  req.PositionID,
		CoinTypeA:   pool.CoinTypeA,
		CoinTypeB:   pool.CoinTypeB,
		RewardTypes: rewardTypes,
	})
}

// ClosePosition composes the close call. When reward types are listed,
// the first is bundled into the close call's type parameters and the rest
// become separate collect-reward calls; the underlying protocol call
// accepts exactly one reward type.
func (c *Composer) ClosePosition(ctx context.Context, req CollectRequest) (*Result, error) {
	pool, err := c.resolvePool(ctx, req.PoolID, req.Pool)
	if err != nil {
		return nil, fmt.Errorf("close position: %w", err)
	}

	tx := txb.New()
	configArg := tx.SharedObject(c.cfg.GlobalConfigID, false)
	poolArg := tx.SharedObject(pool.ID, true)
	positionArg := tx.Object(req.PositionID)

	if len(req.RewardTypes) > 0 {
		tx.MoveCall(c.target("close_position"),
			[]string{pool.CoinTypeA, pool.CoinTypeB, req.RewardTypes[0]},
			configArg, poolArg, positionArg,
			tx.SharedObject(c.cfg.ClockID, false))
		if rest := req.RewardTypes[1:]; len(rest) > 0 {
			c.emitCollectRewards(tx, pool, req.PositionID, rest)
		}
	} else {
		tx.MoveCall(c.target("close_position"),
			[]string{pool.CoinTypeA, pool.CoinTypeB},
			configArg, poolArg, positionArg)
	}

	return c.finish(tx, Summary{
		Operation:   "close_position",
		PoolID:      pool.ID,
		PositionID:  req.PositionID,
		CoinTypeA:   pool.CoinTypeA,
		CoinTypeB:   pool.CoinTypeB,
		RewardTypes: req.RewardTypes,
	})
}

func (c *Composer) emitCollectFee(tx *txb.Transaction, pool *clmm.Pool, positionID string) {
	tx.MoveCall(c.target("collect_fee"), []string{pool.CoinTypeA, pool.CoinTypeB},
		tx.SharedObject(c.cfg.GlobalConfigID, false),
		tx.SharedObject(pool.ID, true),
		tx.Object(positionID))
}

func (c *Composer) emitCollectRewards(tx *txb.Transaction, pool *clmm.Pool, positionID string, rewardTypes []string) {
	clockArg := tx.SharedObject(c.cfg.ClockID, false)
	for _, rewardType := range rewardTypes {
		tx.MoveCall(c.target("collect_reward"),
			[]string{pool.CoinTypeA, pool.CoinTypeB, rewardType},
			tx.SharedObject(c.cfg.GlobalConfigID, false),
			tx.SharedObject(pool.ID, true),
			tx.Object(positionID),
			clockArg)
	}
}
