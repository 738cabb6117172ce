package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func rpcServer(t *testing.T, objects map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Method != "sui_getObject" {
			t.Errorf("unexpected method %s", req.Method)
		}
		id, _ := req.Params[0].(string)

		w.Header().Set("Content-Type", "application/json")
		result, ok := objects[id]
		if !ok {
			result = `{"error":{"code":"notExists"}}`
		}
		resp := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%s}`, req.ID, result)
		if _, err := w.Write([]byte(resp)); err != nil {
			t.Error(err)
		}
	}))
}

const poolObjectJSON = `{
	"data": {
		"objectId": "0xp00l",
		"type": "0xpkg::pool::Pool<0x2::sui::SUI, 0xc0ffee::usdc::USDC>",
		"content": {
			"dataType": "moveObject",
			"fields": {
				"current_sqrt_price": "18446744073709551616",
				"current_tick_index": {"fields": {"bits": 14100}},
				"tick_spacing": 60,
				"fee_rate": "2500",
				"liquidity": "9000000000000000000000"
			}
		}
	}
}`

const positionObjectJSON = `{
	"data": {
		"objectId": "0xp0s",
		"type": "0xpkg::position::Position",
		"content": {
			"dataType": "moveObject",
			"fields": {
				"pool": "0xp00l",
				"tick_lower_index": {"fields": {"bits": 13800}},
				"tick_upper_index": {"fields": {"bits": 14400}},
				"liquidity": "1000000"
			}
		}
	}
}`

func TestGetPool(t *testing.T) {
	srv := rpcServer(t, map[string]string{"0xp00l": poolObjectJSON})
	defer srv.Close()

	client := NewClient(srv.URL, 0, zap.NewNop())
	pool, err := client.GetPool(context.Background(), "0xp00l")
	if err != nil {
		t.Fatal(err)
	}

	if pool.ID != "0xp00l" {
		t.Errorf("pool id = %s", pool.ID)
	}
	if pool.CoinTypeA != "0x2::sui::SUI" || pool.CoinTypeB != "0xc0ffee::usdc::USDC" {
		t.Errorf("coin types = %s / %s", pool.CoinTypeA, pool.CoinTypeB)
	}
	if pool.TickSpacing != 60 || pool.CurrentTick != 14100 {
		t.Errorf("ticks = %d / %d", pool.TickSpacing, pool.CurrentTick)
	}
	if pool.FeeRate != 2500 {
		t.Errorf("fee rate = %d", pool.FeeRate)
	}
	// 2^64 as X64 sqrt price.
	if pool.CurrentSqrtPrice.Hi != 1 || pool.CurrentSqrtPrice.Lo != 0 {
		t.Errorf("sqrt price = %v", pool.CurrentSqrtPrice)
	}
	if pool.Liquidity.String() != "9000000000000000000000" {
		t.Errorf("liquidity = %s", pool.Liquidity)
	}
}

func TestGetPosition(t *testing.T) {
	srv := rpcServer(t, map[string]string{"0xp0s": positionObjectJSON})
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	position, err := client.GetPosition(context.Background(), "0xp0s")
	if err != nil {
		t.Fatal(err)
	}
	if position.ID != "0xp0s" || position.PoolID != "0xp00l" {
		t.Errorf("position ids = %s / %s", position.ID, position.PoolID)
	}
	if position.LowerTick != 13800 || position.UpperTick != 14400 {
		t.Errorf("position ticks = %d / %d", position.LowerTick, position.UpperTick)
	}
	if position.Liquidity.String() != "1000000" {
		t.Errorf("liquidity = %s", position.Liquidity)
	}
}

func TestGetPositionLiquidity(t *testing.T) {
	srv := rpcServer(t, map[string]string{"0xp0s": positionObjectJSON})
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	liquidity, err := client.GetPositionLiquidity(context.Background(), "0xp0s")
	if err != nil {
		t.Fatal(err)
	}
	if liquidity.String() != "1000000" {
		t.Errorf("liquidity = %s, want 1000000", liquidity)
	}
}

func TestGetObjectNotFound(t *testing.T) {
	srv := rpcServer(t, nil)
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	if _, err := client.GetPool(context.Background(), "0xmissing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNegativeTickBits(t *testing.T) {
	// Tick -1 arrives as the u32 two's-complement bits 4294967295.
	negativeTickPool := `{
		"data": {
			"objectId": "0xneg",
			"type": "0xpkg::pool::Pool<0xa::a::A, 0xb::b::B>",
			"content": {"fields": {
				"current_sqrt_price": "18446744073709551616",
				"current_tick_index": {"fields": {"bits": 4294967295}},
				"tick_spacing": 2,
				"fee_rate": "100",
				"liquidity": "0"
			}}
		}
	}`
	srv := rpcServer(t, map[string]string{"0xneg": negativeTickPool})
	defer srv.Close()

	pool, err := NewClient(srv.URL, 0, nil).GetPool(context.Background(), "0xneg")
	if err != nil {
		t.Fatal(err)
	}
	if pool.CurrentTick != -1 {
		t.Errorf("current tick = %d, want -1", pool.CurrentTick)
	}
}

func TestParsePoolCoinTypes(t *testing.T) {
	cases := []struct {
		objectType string
		wantA      string
		wantB      string
		wantErr    bool
	}{
		{"0xpkg::pool::Pool<0xa::a::A, 0xb::b::B>", "0xa::a::A", "0xb::b::B", false},
		{"0xpkg::pool::Pool<0xa::w::W<0xc::c::C>, 0xb::b::B>", "0xa::w::W<0xc::c::C>", "0xb::b::B", false},
		{"0xpkg::position::Position", "", "", true},
		{"0xpkg::pool::Pool<0xa::a::A>", "", "", true},
	}
	for _, tc := range cases {
		a, b, err := parsePoolCoinTypes(tc.objectType)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parsePoolCoinTypes(%q) accepted", tc.objectType)
			}
			continue
		}
		if err != nil {
			t.Errorf("parsePoolCoinTypes(%q): %v", tc.objectType, err)
			continue
		}
		if a != tc.wantA || b != tc.wantB {
			t.Errorf("parsePoolCoinTypes(%q) = %q, %q", tc.objectType, a, b)
		}
	}
}

func TestRPCPoolRoundRobin(t *testing.T) {
	srv := rpcServer(t, map[string]string{"0xp0s": positionObjectJSON})
	defer srv.Close()

	pool, err := NewRPCPool([]string{srv.URL, srv.URL}, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if pool.Size() != 2 {
		t.Errorf("pool size = %d", pool.Size())
	}
	first := pool.GetClient()
	second := pool.GetClient()
	if first == second {
		t.Error("round-robin returned the same client twice")
	}

	if _, err := pool.GetPositionLiquidity(context.Background(), "0xp0s"); err != nil {
		t.Errorf("pool lookup failed: %v", err)
	}

	if _, err := NewRPCPool(nil, 10, nil); err == nil {
		t.Error("empty endpoint list accepted")
	}
}
