// Package strategy runs the AI-driven entry decision for one symbol.
package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/internal/analysis"
	"github.com/dunea/blockchain-ai-quantificat/internal/events"
	"github.com/dunea/blockchain-ai-quantificat/internal/monitor"
	"github.com/dunea/blockchain-ai-quantificat/internal/persistence"
	"github.com/dunea/blockchain-ai-quantificat/internal/risk"
	"github.com/dunea/blockchain-ai-quantificat/pkg/config"
	"github.com/dunea/blockchain-ai-quantificat/pkg/db"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
	"github.com/dunea/blockchain-ai-quantificat/pkg/i18n"
)

// EntryLoop decides, once per tick, whether to open a position on its
// symbol. It is either Flat or InPosition, derived from the venue on every
// tick rather than stored.
type EntryLoop struct {
	Symbol    config.TrackedSymbol
	Positions PositionSource
	Advisor   Advisor
	Sizer     Sizer
	Orders    OrderPlacer
	State     *risk.State
	Bus       *events.Bus
	Journal   *persistence.Journal
	Metrics   *monitor.SystemMetrics

	now func() time.Time
}

func NewEntryLoop(sym config.TrackedSymbol, positions PositionSource, advisor Advisor, sizer Sizer, orders OrderPlacer, state *risk.State) *EntryLoop {
	return &EntryLoop{
		Symbol:    sym,
		Positions: positions,
		Advisor:   advisor,
		Sizer:     sizer,
		Orders:    orders,
		State:     state,
		now:       time.Now,
	}
}

// Tick runs one decision.
func (l *EntryLoop) Tick(ctx context.Context, lg Logger) error {
	if l.Metrics != nil {
		l.Metrics.IncrementTicks(monitor.LoopEntry)
	}
	all, err := l.Positions.ListPositions(ctx)
	if err != nil {
		return err
	}
	if pos, ok := common.FindPosition(common.OpenPositions(all), l.Symbol.Symbol); ok {
		return l.inPosition(ctx, pos, lg)
	}
	return l.flat(ctx, lg)
}

// inPosition seeds the initial stop for a position the loop did not open
// itself (or whose stop was lost on restart). Nothing else happens.
func (l *EntryLoop) inPosition(ctx context.Context, pos common.Position, lg Logger) error {
	lg.Printf(i18n.Get("EntryInPosition"), l.Symbol.Symbol, pos.Side, pos.Contracts, pos.EntryPrice)
	if l.State.HasInitialStop() {
		return nil
	}
	_, err := l.seedStop(ctx, directionOf(pos.Side), pos.EntryPrice, lg)
	return err
}

func (l *EntryLoop) flat(ctx context.Context, lg Logger) error {
	sym := l.Symbol.Symbol
	lg.Printf(i18n.Get("EntryFlat"), sym)
	l.State.Reset()

	sig, err := l.Advisor.Analyze(ctx, sym, l.Symbol.Leverage)
	if err != nil {
		return err
	}
	l.recordSignal(sig)
	lg.Printf(i18n.Get("SignalReceived"), sym, sig.Signal, sig.Confidence, sig.Trend, sig.Reason)

	dir, ok := sig.Signal.Direction()
	if !ok {
		lg.Printf(i18n.Get("SignalHold"), sym)
		return nil
	}

	if _, err := l.seedStop(ctx, dir, 0, lg); err != nil {
		return err
	}

	qty, err := l.Sizer.Size(ctx, sym, l.Symbol.USDTAmount, l.Symbol.Leverage)
	if err != nil {
		return err
	}
	lg.Printf(i18n.Get("EntrySized"), sym, l.Symbol.USDTAmount, l.Symbol.Leverage, qty)

	side := sideOf(dir)
	res, err := l.Orders.Open(ctx, sym, side, qty, l.Symbol.MarginMode)
	if err != nil {
		return fmt.Errorf("open %s %s: %w", sym, side, err)
	}
	lg.Printf(i18n.Get("EntryOrderPlaced"), sym, side, qty, res.ExchangeOrderID)
	return nil
}

// seedStop asks for a stop price and stores it. entryPrice 0 means the
// position does not exist yet.
func (l *EntryLoop) seedStop(ctx context.Context, dir analysis.Direction, entryPrice float64, lg Logger) (analysis.StopRecommendation, error) {
	sym := l.Symbol.Symbol
	rec, err := l.Advisor.AnalyzeStopLoss(ctx, sym, l.Symbol.Leverage, dir, entryPrice)
	if err != nil {
		return analysis.StopRecommendation{}, err
	}
	l.State.SetInitialStop(rec.StopLoss)
	lg.Printf(i18n.Get("EntryStopSeeded"), sym, rec.StopLoss, rec.Reason, rec.Confidence)

	now := l.clock()
	l.Journal.RecordStop(db.StopRecord{
		Symbol:     sym,
		Direction:  string(dir),
		EntryPrice: entryPrice,
		StopLoss:   rec.StopLoss,
		TakeProfit: rec.TakeProfit,
		Confidence: string(rec.Confidence),
		Reason:     rec.Reason,
		CreatedAt:  now,
	})
	l.Bus.Publish(events.EventStopSeeded, events.StopEvent{
		Symbol:     sym,
		Direction:  string(dir),
		StopPrice:  rec.StopLoss,
		EntryPrice: entryPrice,
		Time:       now,
	})
	return rec, nil
}

func (l *EntryLoop) recordSignal(sig analysis.EntrySignal) {
	sym := l.Symbol.Symbol
	now := l.clock()
	monitor.ObserveSignal(sym, string(sig.Signal))
	if l.Metrics != nil {
		l.Metrics.IncrementSignals()
	}
	l.Journal.RecordSignal(db.SignalRecord{
		Symbol:     sym,
		Signal:     string(sig.Signal),
		Confidence: string(sig.Confidence),
		Trend:      string(sig.Trend),
		Reason:     sig.Reason,
		CreatedAt:  now,
	})
	l.Bus.Publish(events.EventSignal, events.SignalEvent{
		Symbol:     sym,
		Signal:     string(sig.Signal),
		Confidence: string(sig.Confidence),
		Trend:      string(sig.Trend),
		Reason:     sig.Reason,
		Time:       now,
	})
}

func (l *EntryLoop) clock() time.Time {
	if l.now == nil {
		return time.Now()
	}
	return l.now()
}
