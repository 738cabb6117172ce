package clmm

import (
	"fmt"
	"math"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// scalePrec is the big.Float precision used when scaling human amounts.
// 256 bits comfortably covers float64's 53-bit mantissa times 10^decimals.
const scalePrec = 256

// ScaleToChainUnits converts a human-readable amount into on-chain units,
// floor(humanAmount * 10^decimals). The multiplication and floor happen in
// arbitrary precision so amounts past the float64 safe-integer range are
// not silently truncated.
func ScaleToChainUnits(humanAmount float64, decimals uint8) (sdkmath.Int, error) {
	if math.IsNaN(humanAmount) || math.IsInf(humanAmount, 0) || humanAmount < 0 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: amount must be a non-negative finite number, got %v", ErrInvalidInput, humanAmount)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f := new(big.Float).SetPrec(scalePrec).SetFloat64(humanAmount)
	f.Mul(f, new(big.Float).SetPrec(scalePrec).SetInt(scale))

	// Int truncates toward zero; the amount is non-negative so this is floor.
	out, _ := f.Int(nil)
	return sdkmath.NewIntFromBigInt(out), nil
}

// ProportionalLiquidity computes floor(liquidity * percent / 100) using
// integer division. Liquidity is a protocol-level integer; doing this in
// floating point would mis-fund removals once values pass 2^53.
func ProportionalLiquidity(liquidity sdkmath.Int, percent int) (sdkmath.Int, error) {
	if percent <= 0 || percent > 100 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: percent must be in (0, 100], got %d", ErrInvalidInput, percent)
	}
	if liquidity.IsNil() || liquidity.IsNegative() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: liquidity must be non-negative", ErrInvalidInput)
	}
	return liquidity.MulRaw(int64(percent)).QuoRaw(100), nil
}
