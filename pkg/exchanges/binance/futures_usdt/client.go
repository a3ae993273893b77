package futures_usdt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/pkg/cache"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

const venue = "binance"

// Config holds Binance USDT-M futures credentials.
type Config struct {
	APIKey     string
	APISecret  string
	Testnet    bool
	RecvWindow int64 // ms
	BaseURL    string
}

// Client handles Binance USDT-M futures.
type Client struct {
	cfg         Config
	baseURL     string
	httpClient  *http.Client
	timeSync    *common.TimeSync
	rateLimiter *common.RateLimiter
	markets     *cache.Sharded[common.Market]
}

var _ common.Gateway = (*Client)(nil)

// NewClient creates a new USDT-M futures client.
func NewClient(cfg Config) *Client {
	base := "https://fapi.binance.com"
	if cfg.Testnet {
		base = "https://testnet.binancefuture.com"
	}
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.RecvWindow == 0 {
		cfg.RecvWindow = 5000
	}
	c := &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		markets:    cache.NewSharded[common.Market](time.Hour),
	}
	c.timeSync = common.NewTimeSync(c.GetServerTime)
	c.rateLimiter = common.NewRateLimiter(2400, time.Minute) // 2400 weight/min for futures
	return c
}

func (c *Client) Name() string { return venue }

// TimeSync exposes the clock offset tracker so the caller can Start it.
func (c *Client) TimeSync() *common.TimeSync { return c.timeSync }

func (c *Client) now() int64 {
	return c.timeSync.Now().UnixMilli()
}

func (c *Client) signedParams() url.Values {
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(c.now(), 10))
	params.Set("recvWindow", strconv.FormatInt(c.cfg.RecvWindow, 10))
	return params
}

// ListPositions returns every position row, including empty ones.
// In one-way mode positionAmt is signed; the sign gives the direction.
func (c *Client) ListPositions(ctx context.Context) ([]common.Position, error) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return nil, common.Wrap(venue, "positions", common.ErrCredentials)
	}
	body, err := c.doSigned(ctx, http.MethodGet, c.baseURL+"/fapi/v3/positionRisk", c.signedParams())
	if err != nil {
		return nil, common.Wrap(venue, "positions", err)
	}
	var rows []PositionRisk
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, common.Wrap(venue, "positions", fmt.Errorf("decode positions: %w", err))
	}
	out := make([]common.Position, 0, len(rows))
	for _, r := range rows {
		out = append(out, convertPosition(r))
	}
	return out, nil
}

func convertPosition(r PositionRisk) common.Position {
	amt := parseFloat(r.PositionAmt)
	side := common.PositionLong
	switch strings.ToUpper(r.PositionSide) {
	case "SHORT":
		side = common.PositionShort
	case "LONG":
	default:
		if amt < 0 {
			side = common.PositionShort
		}
	}
	margin := parseFloat(r.InitialMargin)
	if margin == 0 {
		margin = parseFloat(r.IsolatedMargin)
	}
	return common.Position{
		Symbol:        fromVenueSymbol(r.Symbol),
		Side:          side,
		Contracts:     math.Abs(amt),
		EntryPrice:    parseFloat(r.EntryPrice),
		MarkPrice:     parseFloat(r.MarkPrice),
		UnrealizedPnl: parseFloat(r.UnRealizedProfit),
		InitialMargin: margin,
	}
}

// MarketInfo returns lot filters for symbol. USDT-M quantities are in base
// asset, so ContractSize is 1.
func (c *Client) MarketInfo(ctx context.Context, symbol string) (common.Market, error) {
	m, err := c.markets.GetOrLoad(symbol, func() (common.Market, error) {
		return c.loadMarket(ctx, symbol)
	})
	return m, common.Wrap(venue, "market", err)
}

func (c *Client) loadMarket(ctx context.Context, symbol string) (common.Market, error) {
	vs, err := toVenueSymbol(symbol)
	if err != nil {
		return common.Market{}, err
	}
	body, err := c.doPublic(ctx, "/fapi/v1/exchangeInfo", nil)
	if err != nil {
		return common.Market{}, err
	}
	var info exchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return common.Market{}, fmt.Errorf("decode exchange info: %w", err)
	}
	for _, s := range info.Symbols {
		if s.Symbol != vs {
			continue
		}
		m := common.Market{Symbol: symbol, ContractSize: 1}
		for _, f := range s.Filters {
			if f.FilterType == "MARKET_LOT_SIZE" || (f.FilterType == "LOT_SIZE" && m.LotSize == 0) {
				m.LotSize = parseFloat(f.StepSize)
				m.MinSize = parseFloat(f.MinQty)
			}
		}
		return m, nil
	}
	return common.Market{}, fmt.Errorf("symbol %s not listed", vs)
}

// LastPrice returns the latest traded price.
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	vs, err := toVenueSymbol(symbol)
	if err != nil {
		return 0, common.Wrap(venue, "ticker", err)
	}
	q := url.Values{}
	q.Set("symbol", vs)
	body, err := c.doPublic(ctx, "/fapi/v1/ticker/price", q)
	if err != nil {
		return 0, common.Wrap(venue, "ticker", err)
	}
	var tp tickerPrice
	if err := json.Unmarshal(body, &tp); err != nil {
		return 0, common.Wrap(venue, "ticker", fmt.Errorf("decode ticker: %w", err))
	}
	return parseFloat(tp.Price), nil
}

// PlaceMarketOrder sends a MARKET order. Binance has no broker tag on
// futures orders, so the tag is carried as the client order id prefix.
func (c *Client) PlaceMarketOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return common.OrderResult{}, common.Wrap(venue, "order", common.ErrCredentials)
	}
	vs, err := toVenueSymbol(req.Symbol)
	if err != nil {
		return common.OrderResult{}, common.Wrap(venue, "order", err)
	}
	params := c.signedParams()
	params.Set("symbol", vs)
	params.Set("side", strings.ToUpper(string(req.Side)))
	params.Set("type", "MARKET")
	params.Set("quantity", formatFloat(req.Qty))
	if req.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	if cid := clientOrderID(req); cid != "" {
		params.Set("newClientOrderId", cid)
	}

	body, err := c.doSigned(ctx, http.MethodPost, c.baseURL+"/fapi/v1/order", params)
	if err != nil {
		return common.OrderResult{}, common.Wrap(venue, "order", err)
	}
	var resp orderResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return common.OrderResult{}, common.Wrap(venue, "order", fmt.Errorf("decode order: %w", err))
	}
	return common.OrderResult{
		ExchangeOrderID: strconv.FormatInt(resp.OrderID, 10),
		Status:          mapStatus(resp.Status),
		ClientID:        resp.ClientOrderID,
	}, nil
}

// clientOrderID joins tag and id; Binance caps it at 36 chars.
func clientOrderID(req common.OrderRequest) string {
	id := req.ClientID
	if req.Tag != "" {
		id = req.Tag + "-" + id
	}
	id = strings.Trim(id, "-")
	if len(id) > 36 {
		id = id[:36]
	}
	return id
}

// SetLeverage sets leverage, then the margin type. Binance answers
// -4046 "No need to change margin type" when it is already set.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int, mode common.MarginMode) common.BestEffort {
	res := common.BestEffort{Op: "set_leverage", Symbol: symbol}
	vs, err := toVenueSymbol(symbol)
	if err != nil {
		res.Err = err
		return res
	}
	params := c.signedParams()
	params.Set("symbol", vs)
	params.Set("leverage", strconv.Itoa(leverage))
	if _, err := c.doSigned(ctx, http.MethodPost, c.baseURL+"/fapi/v1/leverage", params); err != nil {
		res.Err = err
		return res
	}
	if mode != "" {
		mp := c.signedParams()
		mp.Set("symbol", vs)
		mp.Set("marginType", toMarginType(mode))
		if _, err := c.doSigned(ctx, http.MethodPost, c.baseURL+"/fapi/v1/marginType", mp); err != nil {
			res.Err = err
		}
	}
	return res
}

// SetPositionMode toggles hedge mode. It is account wide on Binance, so
// symbol is only echoed back.
func (c *Client) SetPositionMode(ctx context.Context, hedge bool, symbol string) common.BestEffort {
	res := common.BestEffort{Op: "set_position_mode", Symbol: symbol}
	params := c.signedParams()
	params.Set("dualSidePosition", strconv.FormatBool(hedge))
	_, res.Err = c.doSigned(ctx, http.MethodPost, c.baseURL+"/fapi/v1/positionSide/dual", params)
	return res
}

// GetServerTime fetches futures server time.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	body, err := c.doPublic(ctx, "/fapi/v1/time", nil)
	if err != nil {
		return time.Time{}, err
	}
	var res struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(res.ServerTime), nil
}

func (c *Client) doPublic(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	c.rateLimiter.UpdateFromHeader(res.Header.Get("X-MBX-USED-WEIGHT-1M"))
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if res.StatusCode >= 300 {
		return nil, decodeErr(res.StatusCode, body)
	}
	return body, nil
}

// doSigned handles signing and sending requests.
func (c *Client) doSigned(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	payload := params.Encode()
	encoded := payload + "&signature=" + sign(payload, c.cfg.APISecret)

	var (
		req *http.Request
		err error
	)
	switch method {
	case http.MethodGet, http.MethodDelete:
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+encoded, nil)
	default:
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(encoded))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	c.rateLimiter.UpdateFromHeader(res.Header.Get("X-MBX-USED-WEIGHT-1M"))

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	if res.StatusCode >= 300 {
		return nil, decodeErr(res.StatusCode, body)
	}
	return body, nil
}

func decodeErr(status int, body []byte) error {
	var e apiErr
	if json.Unmarshal(body, &e) == nil && e.Msg != "" {
		return &common.APIError{Status: status, Code: strconv.Itoa(e.Code), Msg: e.Msg}
	}
	return &common.APIError{Status: status, Msg: string(body)}
}
