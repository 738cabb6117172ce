package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"clmmtx/pkg/chain"
	"clmmtx/pkg/composer"
	"clmmtx/pkg/config"
	"clmmtx/pkg/subscription"
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	root := &cobra.Command{
		Use:          "compose",
		Short:        "Compose concentrated-liquidity position transactions",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "RPC endpoints (comma-separated)")
	root.PersistentFlags().String("ws", "", "websocket endpoint for object-event cache invalidation")
	root.PersistentFlags().Int("req-limit", 10, "RPC requests per second per endpoint")
	root.PersistentFlags().Duration("cache-ttl", 30*time.Second, "pool/position snapshot cache TTL")
	root.PersistentFlags().String("package-id", "", "protocol package ID override")
	root.PersistentFlags().String("global-config-id", "", "protocol global config object ID override")
	root.PersistentFlags().String("reward-coin-type", "", "default reward coin type override")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open a position and fund it",
		RunE:  runOpen,
	}
	openCmd.Flags().String("pool", "", "pool object ID (required)")
	openCmd.Flags().Float64("amount-a", 0, "coin A deposit amount, human units")
	openCmd.Flags().Float64("amount-b", 0, "coin B deposit amount, human units")
	openCmd.Flags().StringSlice("coin-a", nil, "coin A funding object IDs (comma-separated)")
	openCmd.Flags().StringSlice("coin-b", nil, "coin B funding object IDs (comma-separated)")
	openCmd.Flags().Float64("price", 0, "current price override, 0 derives from pool state")
	openCmd.Flags().Float64("lower-mult", 0, "lower bound as multiple of current price")
	openCmd.Flags().Float64("upper-mult", 0, "upper bound as multiple of current price")
	openCmd.Flags().Uint8("decimals-a", 9, "coin A decimals")
	openCmd.Flags().Uint8("decimals-b", 9, "coin B decimals")
	openCmd.Flags().String("min-liquidity", "", "minimum liquidity to mint")
	openCmd.Flags().Float64("slippage", 0, "advisory slippage percent for the summary")
	root.AddCommand(openCmd)

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a percentage of a position's liquidity",
		RunE:  runRemove,
	}
	removeCmd.Flags().String("pool", "", "pool object ID (required)")
	removeCmd.Flags().String("position", "", "position object ID (required)")
	removeCmd.Flags().Int("percent", 0, "percent of liquidity to remove, 1 to 100 (required)")
	removeCmd.Flags().String("min-a", "", "minimum coin A output, chain units")
	removeCmd.Flags().String("min-b", "", "minimum coin B output, chain units")
	removeCmd.Flags().Float64("slippage", 0, "advisory slippage percent for the summary")
	root.AddCommand(removeCmd)

	for _, spec := range []struct {
		use, short string
		run        func(*cobra.Command, []string) error
		rewards    bool
	}{
		{"collect-fee", "Collect accrued trading fees", runCollectFee, false},
		{"collect-rewards", "Collect accrued incentive rewards", runCollectRewards, true},
		{"collect-all", "Collect fees and rewards in one transaction", runCollectAll, true},
		{"close", "Close a position, optionally collecting rewards", runClose, true},
	} {
		cmd := &cobra.Command{Use: spec.use, Short: spec.short, RunE: spec.run}
		cmd.Flags().String("pool", "", "pool object ID (required)")
		cmd.Flags().String("position", "", "position object ID (required)")
		if spec.rewards {
			cmd.Flags().StringSlice("reward", nil, "reward coin types, collected in order (comma-separated)")
		}
		root.AddCommand(cmd)
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config, builds the logger and a composer backed by the
// configured snapshot source.
func setup(cmd *cobra.Command) (context.Context, context.CancelFunc, *composer.Composer, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)

	lookup, closeLookup, err := newLookup(ctx, cfg, logger)
	if err != nil {
		cancel()
		stop()
		return nil, nil, nil, nil, err
	}

	c := composer.New(lookup, composer.ProtocolConfig{
		PackageID:         cfg.PackageID,
		GlobalConfigID:    cfg.GlobalConfigID,
		DefaultRewardType: cfg.RewardCoinType,
	})

	return ctx, func() { closeLookup(); cancel(); stop() }, c, logger, nil
}

// newLookup builds the composer's snapshot source: a rate-limited RPC pool
// behind a TTL cache, with websocket event invalidation when a ws endpoint
// is configured. The lookup is nil when no endpoints are set, which is
// fine for requests carrying their own snapshots.
func newLookup(ctx context.Context, cfg config.Config, logger *zap.Logger) (composer.Lookup, func(), error) {
	noop := func() {}
	if len(cfg.RPCEndpoints) == 0 {
		return nil, noop, nil
	}

	pool, err := chain.NewRPCPool(cfg.RPCEndpoints, cfg.ReqLimitPerSecond, logger)
	if err != nil {
		return nil, noop, err
	}
	logger.Debug("rpc pool ready", zap.Int("endpoints", pool.Size()))

	if cfg.WSEndpoint != "" {
		manager, err := subscription.NewManager(ctx, cfg.WSEndpoint, pool, cfg.CacheTTL, logger)
		if err != nil {
			return nil, noop, err
		}
		return manager, func() { manager.Close() }, nil
	}
	return subscription.NewSnapshotCache(pool, cfg.CacheTTL, logger), noop, nil
}

func runOpen(cmd *cobra.Command, _ []string) error {
	ctx, done, c, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()
	defer logger.Sync()

	flags := cmd.Flags()
	poolID, _ := flags.GetString("pool")
	if poolID == "" {
		return fmt.Errorf("pool id is required")
	}
	amountA, _ := flags.GetFloat64("amount-a")
	amountB, _ := flags.GetFloat64("amount-b")
	coinA, _ := flags.GetStringSlice("coin-a")
	coinB, _ := flags.GetStringSlice("coin-b")
	price, _ := flags.GetFloat64("price")
	lowerMult, _ := flags.GetFloat64("lower-mult")
	upperMult, _ := flags.GetFloat64("upper-mult")
	decimalsA, _ := flags.GetUint8("decimals-a")
	decimalsB, _ := flags.GetUint8("decimals-b")
	slippage, _ := flags.GetFloat64("slippage")

	req := composer.OpenPositionRequest{
		PoolID:         poolID,
		AmountA:        amountA,
		AmountB:        amountB,
		CoinAObjectIDs: coinA,
		CoinBObjectIDs: coinB,
		DecimalsA:      &decimalsA,
		DecimalsB:      &decimalsB,
		SlippagePct:    slippage,
	}
	if price != 0 || lowerMult != 0 || upperMult != 0 {
		req.PriceRange = &composer.PriceRange{
			CurrentPrice:    price,
			LowerMultiplier: lowerMult,
			UpperMultiplier: upperMult,
		}
	}
	if minLiquidity, err := intFlag(flags, "min-liquidity"); err != nil {
		return err
	} else if minLiquidity != nil {
		req.MinLiquidity = minLiquidity
	}

	result, err := c.OpenPosition(ctx, req)
	if err != nil {
		return err
	}
	return printResult(result)
}

func runRemove(cmd *cobra.Command, _ []string) error {
	ctx, done, c, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()
	defer logger.Sync()

	flags := cmd.Flags()
	poolID, _ := flags.GetString("pool")
	positionID, _ := flags.GetString("position")
	if poolID == "" || positionID == "" {
		return fmt.Errorf("pool and position ids are required")
	}
	percent, _ := flags.GetInt("percent")
	slippage, _ := flags.GetFloat64("slippage")

	req := composer.RemoveLiquidityRequest{
		PoolID:      poolID,
		PositionID:  positionID,
		Percent:     percent,
		SlippagePct: slippage,
	}
	if minA, err := intFlag(flags, "min-a"); err != nil {
		return err
	} else if minA != nil {
		req.MinAmountA = minA
	}
	if minB, err := intFlag(flags, "min-b"); err != nil {
		return err
	} else if minB != nil {
		req.MinAmountB = minB
	}

	result, err := c.RemoveLiquidity(ctx, req)
	if err != nil {
		return err
	}
	return printResult(result)
}

func runCollectFee(cmd *cobra.Command, _ []string) error {
	return runCollect(cmd, (*composer.Composer).CollectFee)
}

func runCollectRewards(cmd *cobra.Command, _ []string) error {
	return runCollect(cmd, (*composer.Composer).CollectRewards)
}

func runCollectAll(cmd *cobra.Command, _ []string) error {
	return runCollect(cmd, (*composer.Composer).CollectFeeAndRewards)
}

func runClose(cmd *cobra.Command, _ []string) error {
	return runCollect(cmd, (*composer.Composer).ClosePosition)
}

func runCollect(cmd *cobra.Command, op func(*composer.Composer, context.Context, composer.CollectRequest) (*composer.Result, error)) error {
	ctx, done, c, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()
	defer logger.Sync()

	flags := cmd.Flags()
	poolID, _ := flags.GetString("pool")
	positionID, _ := flags.GetString("position")
	if poolID == "" || positionID == "" {
		return fmt.Errorf("pool and position ids are required")
	}
	rewards, _ := flags.GetStringSlice("reward")

	result, err := op(c, ctx, composer.CollectRequest{
		PoolID:      poolID,
		PositionID:  positionID,
		RewardTypes: rewards,
	})
	if err != nil {
		return err
	}
	return printResult(result)
}

func intFlag(flags *pflag.FlagSet, name string) (*sdkmath.Int, error) {
	raw, err := flags.GetString(name)
	if err != nil || raw == "" {
		return nil, nil
	}
	value, ok := sdkmath.NewIntFromString(raw)
	if !ok || value.IsNegative() {
		return nil, fmt.Errorf("invalid %s: %q must be a non-negative integer", name, raw)
	}
	return &value, nil
}

func printResult(result *composer.Result) error {
	out := struct {
		Payload string           `json:"payload"`
		Digest  string           `json:"digest"`
		Summary composer.Summary `json:"summary"`
	}{result.Payload, result.Digest, result.Summary}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
