package clmm

import (
	"math"
	"testing"

	"lukechampine.com/uint128"
)

func TestPoolValidate(t *testing.T) {
	valid := Pool{
		ID:          "0xp00l",
		CoinTypeA:   "0x2::sui::SUI",
		CoinTypeB:   "0xc::usdc::USDC",
		TickSpacing: 60,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid pool rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(p *Pool)
	}{
		{"empty id", func(p *Pool) { p.ID = "" }},
		{"same coin types", func(p *Pool) { p.CoinTypeB = p.CoinTypeA }},
		{"missing coin type", func(p *Pool) { p.CoinTypeA = "" }},
		{"zero spacing", func(p *Pool) { p.TickSpacing = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("invalid pool accepted")
			}
		})
	}
}

func TestPoolCurrentPrice(t *testing.T) {
	// sqrt price of exactly 2^64 is price 1.0 for equal decimals.
	p := Pool{CurrentSqrtPrice: uint128.New(0, 1)}
	if got := p.CurrentPrice(9, 9); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("CurrentPrice = %v, want 1.0", got)
	}
	// Three fewer decimals on side B scales the price up by 10^3.
	if got := p.CurrentPrice(9, 6); math.Abs(got-1000) > 1e-9 {
		t.Errorf("CurrentPrice with decimal skew = %v, want 1000", got)
	}
}
