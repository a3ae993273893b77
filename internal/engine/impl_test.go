package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/internal/analysis"
	"github.com/dunea/blockchain-ai-quantificat/internal/events"
	"github.com/dunea/blockchain-ai-quantificat/internal/monitor"
	"github.com/dunea/blockchain-ai-quantificat/internal/risk"
	"github.com/dunea/blockchain-ai-quantificat/pkg/config"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

type fakeGateway struct {
	mu        sync.Mutex
	positions []common.Position
	orders    []common.OrderRequest
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) ListPositions(context.Context) ([]common.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]common.Position(nil), g.positions...), nil
}

func (g *fakeGateway) MarketInfo(_ context.Context, symbol string) (common.Market, error) {
	return common.Market{Symbol: symbol, ContractSize: 0.01}, nil
}

func (g *fakeGateway) LastPrice(context.Context, string) (float64, error) { return 50000, nil }

func (g *fakeGateway) PlaceMarketOrder(_ context.Context, req common.OrderRequest) (common.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = append(g.orders, req)
	if req.ReduceOnly {
		g.positions = nil
	}
	return common.OrderResult{ExchangeOrderID: "x", Status: common.StatusNew}, nil
}

func (g *fakeGateway) SetLeverage(_ context.Context, symbol string, _ int, _ common.MarginMode) common.BestEffort {
	return common.BestEffort{Op: "set-leverage", Symbol: symbol, Err: errors.New("leverage not modified")}
}

func (g *fakeGateway) SetPositionMode(_ context.Context, _ bool, symbol string) common.BestEffort {
	return common.BestEffort{Op: "set-position-mode", Symbol: symbol}
}

func (g *fakeGateway) orderCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.orders)
}

type buyAdvisor struct{}

func (buyAdvisor) Analyze(context.Context, string, int) (analysis.EntrySignal, error) {
	return analysis.EntrySignal{Signal: analysis.SignalBuy, Confidence: analysis.ConfidenceHigh, Trend: analysis.TrendRising}, nil
}

func (buyAdvisor) AnalyzeStopLoss(context.Context, string, int, analysis.Direction, float64) (analysis.StopRecommendation, error) {
	return analysis.StopRecommendation{StopLoss: 48000, TakeProfit: 55000, Confidence: analysis.ConfidenceHigh}, nil
}

var symbols = []config.TrackedSymbol{
	{Symbol: "BTC/USDT:USDT", Leverage: 5, USDTAmount: 100, MarginMode: common.MarginCross},
	{Symbol: "ETH/USDT:USDT", Leverage: 3, USDTAmount: 50, MarginMode: common.MarginIsolated},
}

func newImpl(gw *fakeGateway) *Impl {
	return NewImpl(Config{
		Gateway:          gw,
		Advisor:          buyAdvisor{},
		Symbols:          symbols,
		Tag:              config.DefaultClientTag,
		EntryInterval:    time.Hour,
		StopLossInterval: time.Hour,
		Bus:              events.NewBus(),
		Metrics:          monitor.NewSystemMetrics(),
		Meta:             SystemStatus{Venue: "fake", Version: "test"},
	})
}

func TestSetupIsBestEffort(t *testing.T) {
	e := newImpl(&fakeGateway{})
	res := e.Setup(context.Background())
	if len(res) != 4 {
		t.Fatalf("expected 2 calls per symbol, got %d", len(res))
	}
	failed := 0
	for _, r := range res {
		if !r.OK() {
			failed++
		}
	}
	if failed != 2 {
		t.Fatalf("expected the leverage calls to report failure, got %d", failed)
	}
}

func TestLoopsOpenOnStart(t *testing.T) {
	gw := &fakeGateway{}
	e := newImpl(gw)
	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)

	deadline := time.After(2 * time.Second)
	for gw.orderCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected one entry per symbol, got %d", gw.orderCount())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	e.Wait()

	for _, o := range gw.orders {
		if o.Side != common.SideBuy || o.Tag != config.DefaultClientTag || o.ReduceOnly {
			t.Fatalf("unexpected order %+v", o)
		}
		if o.Symbol == "BTC/USDT:USDT" && o.Qty != 1 {
			t.Fatalf("BTC qty=%v want 1", o.Qty)
		}
	}
	st, err := e.GetSymbolStatus(context.Background(), "BTC/USDT:USDT")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Risk.InitialStop == nil || *st.Risk.InitialStop != 48000 {
		t.Fatalf("stop not stored: %+v", st.Risk)
	}
	if s := e.GetSystemStatus(context.Background()); s.Jobs != 4 || len(s.Symbols) != 2 {
		t.Fatalf("unexpected system status %+v", s)
	}
}

func TestForceClose(t *testing.T) {
	gw := &fakeGateway{positions: []common.Position{
		{Symbol: "ETH/USDT:USDT", Side: common.PositionLong, Contracts: 4, UnrealizedPnl: 10, InitialMargin: 50},
	}}
	e := newImpl(gw)

	if _, err := e.ForceClose(context.Background(), "DOGE/USDT:USDT", "op"); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
	if _, err := e.ForceClose(context.Background(), "BTC/USDT:USDT", "op"); !errors.Is(err, risk.ErrNoPosition) {
		t.Fatalf("expected ErrNoPosition, got %v", err)
	}
	res, err := e.ForceClose(context.Background(), "ETH/USDT:USDT", "op")
	if err != nil {
		t.Fatalf("ForceClose: %v", err)
	}
	if res.Reason != "manual" || res.PnlRatio != 0.2 {
		t.Fatalf("unexpected result %+v", res)
	}
	o := gw.orders[0]
	if !o.ReduceOnly || o.Side != common.SideSell || o.Qty != 4 || o.MarginMode != common.MarginIsolated {
		t.Fatalf("unexpected close order %+v", o)
	}
}

func TestJournalQueriesWithoutJournal(t *testing.T) {
	e := newImpl(&fakeGateway{})
	if _, err := e.ListOrders(context.Background(), "", 10); !errors.Is(err, ErrJournalDisabled) {
		t.Fatalf("expected ErrJournalDisabled, got %v", err)
	}
}
