// Package okx is a minimal OKX v5 REST gateway for USDT-margined swaps.
package okx

import (
	"bytes"
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

const venue = "okx"

// Config holds OKX credentials.
type Config struct {
	APIKey     string
	APISecret  string
	Passphrase string
	Simulated  bool // demo trading, sends x-simulated-trading: 1
	BaseURL    string
}

// Client handles OKX perpetual swaps.
type Client struct {
	cfg         Config
	baseURL     string
	httpClient  *http.Client
	timeSync    *common.TimeSync
	rateLimiter *common.RateLimiter
	instruments *cache.Sharded[common.Market]
}

var _ common.Gateway = (*Client)(nil)

// NewClient creates a new OKX client.
func NewClient(cfg Config) *Client {
	base := "https://www.okx.com"
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	c := &Client{
		cfg:         cfg,
		baseURL:     base,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		instruments: cache.NewSharded[common.Market](time.Hour),
	}
	c.timeSync = common.NewTimeSync(c.GetServerTime)
	c.rateLimiter = common.NewRateLimiter(20, 2*time.Second)
	return c
}

func (c *Client) Name() string { return venue }

// TimeSync exposes the clock offset tracker so the caller can Start it.
func (c *Client) TimeSync() *common.TimeSync { return c.timeSync }

// InstID maps BTC/USDT:USDT to BTC-USDT-SWAP.
func InstID(symbol string) (string, error) {
	ins, err := common.ParseSymbol(symbol)
	if err != nil {
		return "", err
	}
	return ins.Base + "-" + ins.Quote + "-SWAP", nil
}

// UnifiedSymbol maps BTC-USDT-SWAP back to BTC/USDT:USDT.
func UnifiedSymbol(instID string) string {
	parts := strings.Split(instID, "-")
	if len(parts) < 2 {
		return instID
	}
	return parts[0] + "/" + parts[1] + ":" + parts[1]
}

// ListPositions returns every swap position on the account.
func (c *Client) ListPositions(ctx context.Context) ([]common.Position, error) {
	if !c.hasKeys() {
		return nil, common.Wrap(venue, "positions", common.ErrCredentials)
	}
	q := url.Values{}
	q.Set("instType", "SWAP")
	var rows []positionRow
	if err := c.do(ctx, http.MethodGet, "/api/v5/account/positions", q, nil, true, &rows); err != nil {
		return nil, common.Wrap(venue, "positions", err)
	}
	out := make([]common.Position, 0, len(rows))
	for _, r := range rows {
		out = append(out, convertPosition(r))
	}
	return out, nil
}

func convertPosition(r positionRow) common.Position {
	pos := parseFloat(r.Pos)
	side := common.PositionLong
	switch r.PosSide {
	case "short":
		side = common.PositionShort
	case "long":
	default: // net mode: sign of pos gives direction
		if pos < 0 {
			side = common.PositionShort
		}
	}
	margin := parseFloat(r.Imr)
	if r.Imr == "" || margin == 0 {
		margin = parseFloat(r.Margin)
	}
	return common.Position{
		Symbol:        UnifiedSymbol(r.InstID),
		Side:          side,
		Contracts:     math.Abs(pos),
		EntryPrice:    parseFloat(r.AvgPx),
		MarkPrice:     parseFloat(r.MarkPx),
		UnrealizedPnl: parseFloat(r.Upl),
		InitialMargin: margin,
	}
}

// MarketInfo returns contract value and lot sizes, cached for an hour.
func (c *Client) MarketInfo(ctx context.Context, symbol string) (common.Market, error) {
	m, err := c.instruments.GetOrLoad(symbol, func() (common.Market, error) {
		id, err := InstID(symbol)
		if err != nil {
			return common.Market{}, err
		}
		q := url.Values{}
		q.Set("instType", "SWAP")
		q.Set("instId", id)
		var rows []instrumentRow
		if err := c.do(ctx, http.MethodGet, "/api/v5/public/instruments", q, nil, false, &rows); err != nil {
			return common.Market{}, err
		}
		if len(rows) == 0 {
			return common.Market{}, fmt.Errorf("instrument %s not found", id)
		}
		return common.Market{
			Symbol:       symbol,
			ContractSize: parseFloat(rows[0].CtVal),
			LotSize:      parseFloat(rows[0].LotSz),
			MinSize:      parseFloat(rows[0].MinSz),
		}, nil
	})
	return m, common.Wrap(venue, "market", err)
}

// LastPrice returns the last traded price.
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	id, err := InstID(symbol)
	if err != nil {
		return 0, common.Wrap(venue, "ticker", err)
	}
	q := url.Values{}
	q.Set("instId", id)
	var rows []tickerRow
	if err := c.do(ctx, http.MethodGet, "/api/v5/market/ticker", q, nil, false, &rows); err != nil {
		return 0, common.Wrap(venue, "ticker", err)
	}
	if len(rows) == 0 {
		return 0, common.Wrap(venue, "ticker", fmt.Errorf("no ticker for %s", id))
	}
	return parseFloat(rows[0].Last), nil
}

// PlaceMarketOrder sends a market order in contracts.
func (c *Client) PlaceMarketOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error) {
	if !c.hasKeys() {
		return common.OrderResult{}, common.Wrap(venue, "order", common.ErrCredentials)
	}
	id, err := InstID(req.Symbol)
	if err != nil {
		return common.OrderResult{}, common.Wrap(venue, "order", err)
	}
	mode := req.MarginMode
	if mode == "" {
		mode = common.MarginCross
	}
	body := orderBody{
		InstID:     id,
		TdMode:     string(mode),
		Side:       string(req.Side),
		OrdType:    "market",
		Sz:         formatFloat(req.Qty),
		ReduceOnly: req.ReduceOnly,
		Tag:        req.Tag,
		ClOrdID:    clientOrderID(req.ClientID),
	}
	var acks []orderAck
	if err := c.do(ctx, http.MethodPost, "/api/v5/trade/order", nil, body, true, &acks); err != nil {
		return common.OrderResult{}, common.Wrap(venue, "order", err)
	}
	if len(acks) == 0 {
		return common.OrderResult{}, common.Wrap(venue, "order", fmt.Errorf("empty order ack"))
	}
	ack := acks[0]
	if ack.SCode != "" && ack.SCode != "0" {
		return common.OrderResult{}, common.Wrap(venue, "order", &common.APIError{Status: http.StatusOK, Code: ack.SCode, Msg: ack.SMsg})
	}
	return common.OrderResult{
		ExchangeOrderID: ack.OrdID,
		ClientID:        ack.ClOrdID,
		Status:          common.StatusNew,
	}, nil
}

// clientOrderID keeps alphanumerics only; OKX caps clOrdId at 32 chars.
func clientOrderID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 32 {
		out = out[:32]
	}
	return out
}

// SetLeverage sets leverage and margin mode for one instrument.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int, mode common.MarginMode) common.BestEffort {
	res := common.BestEffort{Op: "set_leverage", Symbol: symbol}
	id, err := InstID(symbol)
	if err != nil {
		res.Err = err
		return res
	}
	if mode == "" {
		mode = common.MarginCross
	}
	body := map[string]string{
		"instId":  id,
		"lever":   strconv.Itoa(leverage),
		"mgnMode": string(mode),
	}
	res.Err = c.do(ctx, http.MethodPost, "/api/v5/account/set-leverage", nil, body, true, nil)
	return res
}

// SetPositionMode switches between net and long/short mode. It fails while
// positions or orders are open, which callers tolerate.
func (c *Client) SetPositionMode(ctx context.Context, hedge bool, symbol string) common.BestEffort {
	res := common.BestEffort{Op: "set_position_mode", Symbol: symbol}
	mode := "net_mode"
	if hedge {
		mode = "long_short_mode"
	}
	res.Err = c.do(ctx, http.MethodPost, "/api/v5/account/set-position-mode", nil, map[string]string{"posMode": mode}, true, nil)
	return res
}

// GetServerTime fetches OKX server time.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	var rows []timeRow
	if err := c.do(ctx, http.MethodGet, "/api/v5/public/time", nil, nil, false, &rows); err != nil {
		return time.Time{}, err
	}
	if len(rows) == 0 {
		return time.Time{}, fmt.Errorf("empty time response")
	}
	ms, err := strconv.ParseInt(rows[0].Ts, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

func (c *Client) hasKeys() bool {
	return c.cfg.APIKey != "" && c.cfg.APISecret != "" && c.cfg.Passphrase != ""
}

// do sends a request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload any, signed bool, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}
	requestPath := path
	if len(q) > 0 {
		requestPath += "?" + q.Encode()
	}
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = b
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Simulated {
		req.Header.Set("x-simulated-trading", "1")
	}
	if signed {
		ts := formatTimestamp(c.timeSync.Now())
		req.Header.Set("OK-ACCESS-KEY", c.cfg.APIKey)
		req.Header.Set("OK-ACCESS-SIGN", sign(c.cfg.APISecret, ts, method, requestPath, string(body)))
		req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
		req.Header.Set("OK-ACCESS-PASSPHRASE", c.cfg.Passphrase)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if res.StatusCode >= 300 {
			return &common.APIError{Status: res.StatusCode, Msg: string(raw)}
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if res.StatusCode >= 300 || env.Code != "0" {
		msg := env.Msg
		// order endpoints put the reason in data[0].sMsg
		var acks []orderAck
		if msg == "" && json.Unmarshal(env.Data, &acks) == nil && len(acks) > 0 {
			msg = acks[0].SMsg
		}
		return &common.APIError{Status: res.StatusCode, Code: env.Code, Msg: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}
