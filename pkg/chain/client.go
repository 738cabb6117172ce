// Package chain resolves pool and position objects over JSON-RPC. It is
// the composer's only collaborator with I/O; every call is a single
// read-only fetch, so timeouts and cancellation need no compensation.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	sdkmath "cosmossdk.io/math"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"lukechampine.com/uint128"

	"clmmtx/pkg/clmm"
)

// ErrNotFound is returned when the node has no object for an identifier.
var ErrNotFound = errors.New("object not found")

// Client is a rate-limited JSON-RPC client for one endpoint.
type Client struct {
	endpoint string
	httpc    *http.Client
	limiter  *rate.Limiter
	log      *zap.Logger
	nextID   atomic.Uint64
}

// NewClient creates a client for the given endpoint. A non-positive
// request limit disables rate limiting.
func NewClient(endpoint string, reqLimitPerSecond int, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	burst := 1
	if reqLimitPerSecond > 0 {
		limit = rate.Limit(reqLimitPerSecond)
		burst = reqLimitPerSecond
	}
	return &Client{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(limit, burst),
		log:      logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s request failed: status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("failed to parse %s result: %w", method, err)
		}
	}
	return nil
}

type objectData struct {
	ObjectID string `json:"objectId"`
	Type     string `json:"type"`
	Content  struct {
		Fields json.RawMessage `json:"fields"`
	} `json:"content"`
}

type getObjectResult struct {
	Data  *objectData `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (c *Client) getObject(ctx context.Context, id string) (*objectData, error) {
	var res getObjectResult
	err := c.call(ctx, "sui_getObject", []any{
		id,
		map[string]any{"showType": true, "showContent": true},
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.Data == nil {
		code := ""
		if res.Error != nil {
			code = res.Error.Code
		}
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, id, code)
	}
	return res.Data, nil
}

// tickIndex mirrors the on-chain I32 wrapper: a u32 holding the tick's
// two's-complement bits.
type tickIndex struct {
	Fields struct {
		Bits uint32 `json:"bits"`
	} `json:"fields"`
}

type poolFields struct {
	CurrentSqrtPrice string    `json:"current_sqrt_price"`
	CurrentTickIndex tickIndex `json:"current_tick_index"`
	TickSpacing      uint32    `json:"tick_spacing"`
	FeeRate          string    `json:"fee_rate"`
	Liquidity        string    `json:"liquidity"`
}

// GetPool fetches and decodes a pool object snapshot.
func (c *Client) GetPool(ctx context.Context, id string) (*clmm.Pool, error) {
	obj, err := c.getObject(ctx, id)
	if err != nil {
		return nil, err
	}

	coinTypeA, coinTypeB, err := parsePoolCoinTypes(obj.Type)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", id, err)
	}

	var fields poolFields
	if err := json.Unmarshal(obj.Content.Fields, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode pool %s fields: %w", id, err)
	}

	sqrtPrice, err := parseU128(fields.CurrentSqrtPrice)
	if err != nil {
		return nil, fmt.Errorf("pool %s sqrt price: %w", id, err)
	}
	feeRate, err := strconv.ParseUint(fields.FeeRate, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("pool %s fee rate: %w", id, err)
	}
	liquidity, ok := sdkmath.NewIntFromString(fields.Liquidity)
	if !ok {
		return nil, fmt.Errorf("pool %s liquidity: invalid value %q", id, fields.Liquidity)
	}

	pool := &clmm.Pool{
		ID:               obj.ObjectID,
		CoinTypeA:        coinTypeA,
		CoinTypeB:        coinTypeB,
		FeeRate:          feeRate,
		TickSpacing:      int32(fields.TickSpacing),
		CurrentTick:      int32(fields.CurrentTickIndex.Fields.Bits),
		CurrentSqrtPrice: sqrtPrice,
		Liquidity:        liquidity,
	}
	if err := pool.Validate(); err != nil {
		return nil, err
	}

	c.log.Debug("fetched pool",
		zap.String("pool_id", pool.ID),
		zap.Int32("tick_spacing", pool.TickSpacing),
		zap.Int32("current_tick", pool.CurrentTick))
	return pool, nil
}

type positionFields struct {
	Pool           string    `json:"pool"`
	TickLowerIndex tickIndex `json:"tick_lower_index"`
	TickUpperIndex tickIndex `json:"tick_upper_index"`
	Liquidity      string    `json:"liquidity"`
}

// GetPosition fetches and decodes a position object snapshot.
func (c *Client) GetPosition(ctx context.Context, id string) (*clmm.Position, error) {
	obj, err := c.getObject(ctx, id)
	if err != nil {
		return nil, err
	}

	var fields positionFields
	if err := json.Unmarshal(obj.Content.Fields, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode position %s fields: %w", id, err)
	}
	liquidity, ok := sdkmath.NewIntFromString(fields.Liquidity)
	if !ok {
		return nil, fmt.Errorf("position %s liquidity: invalid value %q", id, fields.Liquidity)
	}
	if liquidity.IsNegative() {
		return nil, fmt.Errorf("position %s liquidity: negative value %s", id, liquidity)
	}

	return &clmm.Position{
		ID:        obj.ObjectID,
		PoolID:    fields.Pool,
		LowerTick: int32(fields.TickLowerIndex.Fields.Bits),
		UpperTick: int32(fields.TickUpperIndex.Fields.Bits),
		Liquidity: liquidity,
	}, nil
}

// GetPositionLiquidity fetches a position object and returns its current
// liquidity.
func (c *Client) GetPositionLiquidity(ctx context.Context, id string) (sdkmath.Int, error) {
	position, err := c.GetPosition(ctx, id)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return position.Liquidity, nil
}

// parsePoolCoinTypes extracts the two coin type parameters from a pool
// object type like "0xpkg::pool::Pool<TypeA, TypeB>".
func parsePoolCoinTypes(objectType string) (string, string, error) {
	open := strings.Index(objectType, "<")
	if open < 0 || !strings.HasSuffix(objectType, ">") {
		return "", "", fmt.Errorf("object type %q has no type parameters", objectType)
	}
	inner := objectType[open+1 : len(objectType)-1]

	// Split on top-level commas only; type parameters may nest generics.
	var params []string
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	params = append(params, strings.TrimSpace(inner[start:]))

	if len(params) != 2 {
		return "", "", fmt.Errorf("object type %q has %d type parameters, want 2", objectType, len(params))
	}
	return params[0], params[1], nil
}

func parseU128(s string) (uint128.Uint128, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 128 {
		return uint128.Zero, fmt.Errorf("invalid u128 value %q", s)
	}
	return uint128.FromBig(v), nil
}
