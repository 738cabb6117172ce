package composer

// Default protocol addressing. Callers integrating against a fork or a
// testnet deployment override these through ProtocolConfig.
const (
	// DefaultPackageID is the published CLMM package.
	DefaultPackageID = "0x1eabed72c53feb3805120a081dc15963c204dc8d091542592abaf7a35689b2fb"

	// DefaultGlobalConfigID is the protocol's shared config object.
	DefaultGlobalConfigID = "0xdaa46292632c3c4d8f31f23ea0f9b36a28ff3677e9684980e4438403a67a3d8f"

	// ClockObjectID is the chain's shared clock, required for reward accrual.
	ClockObjectID = "0x6"

	// NativeCoinType is the only coin type eligible for gas-fallback funding.
	NativeCoinType = "0x2::sui::SUI"

	// DefaultRewardCoinType is collected when a caller lists no reward types.
	DefaultRewardCoinType = "0x06864a6f921804860930db6ddbe2e16acdf8504495ea7481637a1c8b9a8fe54b::cetus::CETUS"

	// zeroCoinTarget mints a zero-value coin for unfunded sides.
	zeroCoinTarget = "0x2::coin::zero"

	// callModule is the protocol's entry module for liquidity operations.
	callModule = "pool_script"

	// DefaultDecimals applies when a caller gives no decimals override.
	DefaultDecimals uint8 = 9
)

// Default price range multipliers around the current price.
const (
	DefaultLowerMultiplier = 0.5
	DefaultUpperMultiplier = 2.0
)
