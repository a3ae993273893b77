package okx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "k", APISecret: "s", Passphrase: "p", Simulated: true, BaseURL: srv.URL})
}

func TestSymbolMapping(t *testing.T) {
	id, err := InstID("BTC/USDT:USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT-SWAP", id)
	assert.Equal(t, "ETH/USDT:USDT", UnifiedSymbol("ETH-USDT-SWAP"))
}

func TestSignIsDeterministic(t *testing.T) {
	a := sign("secret", "2024-01-01T00:00:00.000Z", "GET", "/api/v5/account/positions?instType=SWAP", "")
	b := sign("secret", "2024-01-01T00:00:00.000Z", "GET", "/api/v5/account/positions?instType=SWAP", "")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, sign("other", "2024-01-01T00:00:00.000Z", "GET", "/api/v5/account/positions?instType=SWAP", ""))
}

func TestListPositions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/account/positions", r.URL.Path)
		assert.Equal(t, "SWAP", r.URL.Query().Get("instType"))
		assert.Equal(t, "k", r.Header.Get("OK-ACCESS-KEY"))
		assert.Equal(t, "p", r.Header.Get("OK-ACCESS-PASSPHRASE"))
		assert.Equal(t, "1", r.Header.Get("x-simulated-trading"))
		assert.NotEmpty(t, r.Header.Get("OK-ACCESS-SIGN"))
		w.Write([]byte(`{"code":"0","msg":"","data":[
			{"instId":"BTC-USDT-SWAP","posSide":"net","pos":"-3","avgPx":"50000","markPx":"49500","upl":"15","imr":"","margin":"30","mgnMode":"isolated"},
			{"instId":"ETH-USDT-SWAP","posSide":"long","pos":"2","avgPx":"3000","markPx":"3100","upl":"2","imr":"12","margin":"","mgnMode":"cross"}
		]}`))
	})

	got, err := c.ListPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, common.PositionShort, got[0].Side)
	assert.Equal(t, 3.0, got[0].Contracts)
	assert.Equal(t, 30.0, got[0].InitialMargin)
	assert.Equal(t, "ETH/USDT:USDT", got[1].Symbol)
	assert.Equal(t, 12.0, got[1].InitialMargin)
}

func TestEnvelopeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"50113","msg":"Invalid Sign","data":[]}`))
	})
	_, err := c.ListPositions(context.Background())
	var apiErr *common.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "50113", apiErr.Code)
}

func TestPlaceMarketOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body orderBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, orderBody{
			InstID: "BTC-USDT-SWAP", TdMode: "isolated", Side: "buy", OrdType: "market",
			Sz: "1", ReduceOnly: true, Tag: "f1ee03b510d5SUDE", ClOrdID: "abc123",
		}, body)
		w.Write([]byte(`{"code":"0","msg":"","data":[{"ordId":"9","clOrdId":"abc123","sCode":"0","sMsg":""}]}`))
	})
	res, err := c.PlaceMarketOrder(context.Background(), common.OrderRequest{
		Symbol: "BTC/USDT:USDT", Side: common.SideBuy, Qty: 1, ReduceOnly: true,
		ClientID: "abc-123", Tag: "f1ee03b510d5SUDE", MarginMode: common.MarginIsolated,
	})
	require.NoError(t, err)
	assert.Equal(t, "9", res.ExchangeOrderID)
}

func TestPlaceMarketOrderRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"1","msg":"","data":[{"ordId":"","sCode":"51008","sMsg":"Insufficient margin"}]}`))
	})
	_, err := c.PlaceMarketOrder(context.Background(), common.OrderRequest{Symbol: "BTC/USDT:USDT", Side: common.SideSell, Qty: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient margin")
}

func TestMarketInfoAndLastPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v5/public/instruments":
			assert.Empty(t, r.Header.Get("OK-ACCESS-SIGN"))
			w.Write([]byte(`{"code":"0","data":[{"instId":"BTC-USDT-SWAP","ctVal":"0.01","lotSz":"0.1","minSz":"0.1"}]}`))
		case "/api/v5/market/ticker":
			w.Write([]byte(`{"code":"0","data":[{"instId":"BTC-USDT-SWAP","last":"50000.5"}]}`))
		}
	})
	m, err := c.MarketInfo(context.Background(), "BTC/USDT:USDT")
	require.NoError(t, err)
	assert.Equal(t, 0.01, m.ContractSize)
	p, err := c.LastPrice(context.Background(), "BTC/USDT:USDT")
	require.NoError(t, err)
	assert.Equal(t, 50000.5, p)
}

func TestSetupBestEffort(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v5/account/set-position-mode" {
			w.Write([]byte(`{"code":"59000","msg":"Setting failed. Cancel any open orders, close positions, and stop trading bots first.","data":[]}`))
			return
		}
		w.Write([]byte(`{"code":"0","data":[{"lever":"5"}]}`))
	})
	assert.True(t, c.SetLeverage(context.Background(), "BTC/USDT:USDT", 5, common.MarginCross).OK())
	res := c.SetPositionMode(context.Background(), false, "BTC/USDT:USDT")
	assert.False(t, res.OK())
}

func TestTruncatedBodyIsAReadError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "200")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"code":"0","data":[{"ts":"17`))
	})

	_, err := c.GetServerTime(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "read /api/v5/public/time")
}
