package clmm

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for malformed numeric input: non-positive
// prices, out-of-range percentages, negative amounts.
var ErrInvalidInput = errors.New("invalid input")

const (
	// MinTick and MaxTick bound the usable tick range of the protocol.
	MinTick int32 = -443636
	MaxTick int32 = 443636

	// tickBase is the price ratio between two adjacent ticks.
	tickBase = 1.0001
)

// PriceToTick converts a price to the nearest initialized tick at or below
// it. Both the log conversion and the spacing alignment round toward
// negative infinity, so a price exactly on a tick boundary maps to that
// tick and anything in between rounds down.
func PriceToTick(price float64, tickSpacing int32) (int32, error) {
	if tickSpacing <= 0 {
		return 0, fmt.Errorf("%w: tick spacing must be positive, got %d", ErrInvalidInput, tickSpacing)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("%w: price must be a positive finite number, got %v", ErrInvalidInput, price)
	}

	raw := math.Floor(math.Log(price) / math.Log(tickBase))
	if raw < float64(MinTick) || raw > float64(MaxTick) {
		return 0, fmt.Errorf("%w: price %v maps outside tick range [%d, %d]", ErrInvalidInput, price, MinTick, MaxTick)
	}

	tick := int32(raw)
	rem := tick % tickSpacing
	if rem < 0 {
		rem += tickSpacing
	}
	tick -= rem
	// Alignment rounds down, so a raw tick just inside the range can land
	// below MinTick.
	if tick < MinTick || tick > MaxTick {
		return 0, fmt.Errorf("%w: price %v aligns to tick %d outside range [%d, %d]", ErrInvalidInput, price, tick, MinTick, MaxTick)
	}
	return tick, nil
}

// TickToPrice returns the price at a tick, 1.0001^tick. Defined for any
// tick; extreme ticks produce values near float64 range limits.
func TickToPrice(tick int32) float64 {
	return math.Pow(tickBase, float64(tick))
}
