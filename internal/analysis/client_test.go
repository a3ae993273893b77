package analysis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		Endpoint: srv.URL + "/",
		Exchange: "okx",
		APIKey:   "sk-test",
		BaseURL:  "https://api.openai.com/v1",
		Model:    "gpt-4o",
		Timeout:  5 * time.Second,
	}, nil)
}

func TestAnalyze(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analyse/swap/okx", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTC/USDT:USDT", q.Get("symbol"))
		assert.Equal(t, "5", q.Get("leverage"))
		assert.Equal(t, "1m,5m,15m,30m,1h,4h,1d", q.Get("timeframes"))
		assert.Equal(t, "3", q.Get("compare"))
		assert.Equal(t, "sk-test", r.Header.Get("OPENAI-API-KEY"))
		assert.Equal(t, "https://api.openai.com/v1", r.Header.Get("OPENAI-BASE-URL"))
		assert.Equal(t, "gpt-4o", r.Header.Get("OPENAI-MODEL"))
		w.Write([]byte(`{"signal":"buy","reason":"breakout","confidence":"high","trend":"strong_rising"}`))
	})

	sig, err := c.Analyze(context.Background(), "BTC/USDT:USDT", 5)
	require.NoError(t, err)
	assert.Equal(t, EntrySignal{Signal: SignalBuy, Reason: "breakout", Confidence: ConfidenceHigh, Trend: TrendStrongRising}, sig)
	dir, ok := sig.Signal.Direction()
	assert.True(t, ok)
	assert.Equal(t, DirectionLong, dir)
}

func TestAnalyzeRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"model overloaded"}`},
		{"not json", http.StatusOK, `<html>`},
		{"unknown signal", http.StatusOK, `{"signal":"strong_buy","reason":"","confidence":"high","trend":"rising"}`},
		{"unknown trend", http.StatusOK, `{"signal":"hold","reason":"","confidence":"high","trend":"up"}`},
		{"missing confidence", http.StatusOK, `{"signal":"hold","reason":"","trend":"rising"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.Analyze(context.Background(), "ETH/USDT:USDT", 3)
			var se *SourceError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, endpointSwap, se.Endpoint)
			assert.Equal(t, tt.status, se.Status)
		})
	}
}

func TestAnalyzeStopLoss(t *testing.T) {
	t.Run("with entry price", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/analyse/swap-stop-loss/okx", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "short", q.Get("direction"))
			assert.Equal(t, "50123.5", q.Get("entry_price"))
			assert.Empty(t, q.Get("compare"))
			w.Write([]byte(`{"stop_loss":51000,"take_profit":47000,"reason":"above resistance","confidence":"medium"}`))
		})
		rec, err := c.AnalyzeStopLoss(context.Background(), "BTC/USDT:USDT", 5, DirectionShort, 50123.5)
		require.NoError(t, err)
		assert.Equal(t, 51000.0, rec.StopLoss)
		assert.Equal(t, ConfidenceMedium, rec.Confidence)
	})

	t.Run("without entry price", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, has := r.URL.Query()["entry_price"]
			assert.False(t, has)
			w.Write([]byte(`{"stop_loss":48000,"take_profit":55000,"reason":"","confidence":"low"}`))
		})
		rec, err := c.AnalyzeStopLoss(context.Background(), "BTC/USDT:USDT", 5, DirectionLong, 0)
		require.NoError(t, err)
		assert.Equal(t, 48000.0, rec.StopLoss)
	})

	t.Run("non-positive stop", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"stop_loss":0,"take_profit":55000,"reason":"","confidence":"low"}`))
		})
		_, err := c.AnalyzeStopLoss(context.Background(), "BTC/USDT:USDT", 5, DirectionLong, 0)
		var se *SourceError
		assert.True(t, errors.As(err, &se))
	})
}

func TestTransportFailureIsSourceError(t *testing.T) {
	c := NewClient(Config{Endpoint: "http://127.0.0.1:1", Exchange: "okx", Timeout: time.Second}, nil)
	_, err := c.Analyze(context.Background(), "BTC/USDT:USDT", 5)
	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 0, se.Status)
}
