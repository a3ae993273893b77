// Package analysis is the HTTP client for the AI signal source.
package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dunea/blockchain-ai-quantificat/internal/monitor"
)

const (
	endpointSwap     = "swap"
	endpointStopLoss = "swap-stop-loss"
)

// Config configures the signal source client.
type Config struct {
	Endpoint   string // base URL, no trailing slash
	Exchange   string // venue path segment, e.g. okx
	APIKey     string
	BaseURL    string
	Model      string
	Timeframes string
	Compare    int
	Timeout    time.Duration
	// Requests per second across all symbols; 0 disables throttling.
	RateLimit float64
}

// Client calls the analysis endpoints. One client is shared by every
// symbol.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *monitor.SystemMetrics
}

// NewClient builds a client. metrics may be nil.
func NewClient(cfg Config, metrics *monitor.SystemMetrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.Timeframes == "" {
		cfg.Timeframes = "1m,5m,15m,30m,1h,4h,1d"
	}
	if cfg.Compare <= 0 {
		cfg.Compare = 3
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    metrics,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

// Analyze asks for an entry signal.
func (c *Client) Analyze(ctx context.Context, symbol string, leverage int) (EntrySignal, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("leverage", strconv.Itoa(leverage))
	q.Set("timeframes", c.cfg.Timeframes)
	q.Set("compare", strconv.Itoa(c.cfg.Compare))

	body, status, err := c.get(ctx, endpointSwap, q)
	if err != nil {
		return EntrySignal{}, &SourceError{Symbol: symbol, Endpoint: endpointSwap, Status: status, Err: err}
	}
	sig, err := decodeEntrySignal(body)
	if err != nil {
		return EntrySignal{}, &SourceError{Symbol: symbol, Endpoint: endpointSwap, Status: status, Err: err}
	}
	return sig, nil
}

// AnalyzeStopLoss asks for a stop price. entryPrice is sent only when > 0.
func (c *Client) AnalyzeStopLoss(ctx context.Context, symbol string, leverage int, dir Direction, entryPrice float64) (StopRecommendation, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("leverage", strconv.Itoa(leverage))
	q.Set("direction", string(dir))
	q.Set("timeframes", c.cfg.Timeframes)
	if entryPrice > 0 {
		q.Set("entry_price", strconv.FormatFloat(entryPrice, 'f', -1, 64))
	}

	body, status, err := c.get(ctx, endpointStopLoss, q)
	if err != nil {
		return StopRecommendation{}, &SourceError{Symbol: symbol, Endpoint: endpointStopLoss, Status: status, Err: err}
	}
	rec, err := decodeStopRecommendation(body)
	if err != nil {
		return StopRecommendation{}, &SourceError{Symbol: symbol, Endpoint: endpointStopLoss, Status: status, Err: err}
	}
	return rec, nil
}

// Ping checks that the endpoint answers at all; any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.Endpoint+"/", nil)
	if err != nil {
		return err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}
	u := c.cfg.Endpoint + "/api/v1/analyse/" + endpoint + "/" + c.cfg.Exchange + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("OPENAI-API-KEY", c.cfg.APIKey)
	req.Header.Set("OPENAI-BASE-URL", c.cfg.BaseURL)
	req.Header.Set("OPENAI-MODEL", c.cfg.Model)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.httpClient.Do(req)
	took := time.Since(start)
	monitor.ObserveCall("signal."+endpoint, took)
	if c.metrics != nil {
		c.metrics.SignalLatency.RecordDuration(took)
	}
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 256 {
			msg = msg[:256]
		}
		return nil, res.StatusCode, errors.New(msg)
	}
	return body, res.StatusCode, nil
}
