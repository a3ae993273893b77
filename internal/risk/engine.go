// Package risk holds the per-symbol risk state and the engine that closes
// positions on the hard stop, the initial stop or the trailing ladder.
package risk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/internal/events"
	"github.com/dunea/blockchain-ai-quantificat/internal/monitor"
	"github.com/dunea/blockchain-ai-quantificat/internal/persistence"
	"github.com/dunea/blockchain-ai-quantificat/pkg/db"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
	"github.com/dunea/blockchain-ai-quantificat/pkg/i18n"
)

// Logger receives the lines of one tick.
type Logger interface {
	Printf(format string, v ...any)
}

// PositionSource lists account positions.
type PositionSource interface {
	ListPositions(ctx context.Context) ([]common.Position, error)
}

// Closer sends the reduce-only close order.
type Closer interface {
	Close(ctx context.Context, pos common.Position, mode common.MarginMode) (common.OrderResult, error)
}

// Engine watches one symbol's position.
type Engine struct {
	Symbol     string
	MarginMode common.MarginMode
	Positions  PositionSource
	Closer     Closer
	State      *State
	Bus        *events.Bus
	Journal    *persistence.Journal
	Metrics    *monitor.SystemMetrics

	// serializes scheduled ticks with manual closes
	mu  sync.Mutex
	now func() time.Time
}

func NewEngine(symbol string, mode common.MarginMode, positions PositionSource, closer Closer, state *State) *Engine {
	return &Engine{
		Symbol:     symbol,
		MarginMode: mode,
		Positions:  positions,
		Closer:     closer,
		State:      state,
		now:        time.Now,
	}
}

// Tick runs one evaluation. At most one close order is sent.
func (e *Engine) Tick(ctx context.Context, lg Logger) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Metrics != nil {
		e.Metrics.IncrementTicks(monitor.LoopRisk)
	}

	pos, ok, err := e.position(ctx)
	if err != nil {
		return err
	}
	if !ok {
		lg.Printf(i18n.Get("RiskNoPosition"), e.Symbol)
		return nil
	}

	if pos.InitialMargin <= 0 {
		return fmt.Errorf("%s: %w", e.Symbol, ErrNoMargin)
	}
	peak := e.State.ObservePnl(pos.UnrealizedPnl)
	d, err := Evaluate(pos, e.State.Snapshot().InitialStop, peak)
	if err != nil {
		return fmt.Errorf("%s: %w", e.Symbol, err)
	}
	lg.Printf(i18n.Get("RiskSnapshot"), e.Symbol, d.Pnl, d.PnlRatio*100, d.Peak, d.MaxPnlRatio*100, d.Mark, d.stopString())
	monitor.SetPeakRatio(e.Symbol, d.MaxPnlRatio)

	if !d.Close {
		return nil
	}
	return e.close(ctx, pos, d, lg)
}

// ForceClose flattens the position through the same path as a rule exit.
func (e *Engine) ForceClose(ctx context.Context, lg Logger) (Decision, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok, err := e.position(ctx)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{}, ErrNoPosition
	}

	snap := e.State.Snapshot()
	d := Decision{
		Close:  true,
		Reason: ExitManual,
		Pnl:    pos.UnrealizedPnl,
		Peak:   pos.UnrealizedPnl,
		Mark:   pos.MarkPrice,
		Stop:   snap.InitialStop,
	}
	if snap.PeakPnl != nil && *snap.PeakPnl > d.Peak {
		d.Peak = *snap.PeakPnl
	}
	if pos.InitialMargin > 0 {
		d.PnlRatio = d.Pnl / pos.InitialMargin
		d.MaxPnlRatio = d.Peak / pos.InitialMargin
	}
	if err := e.close(ctx, pos, d, lg); err != nil {
		return Decision{}, err
	}
	return d, nil
}

func (e *Engine) position(ctx context.Context) (common.Position, bool, error) {
	all, err := e.Positions.ListPositions(ctx)
	if err != nil {
		return common.Position{}, false, err
	}
	pos, ok := common.FindPosition(common.OpenPositions(all), e.Symbol)
	return pos, ok, nil
}

// close sends the reduce-only order and clears state once the venue
// accepts it. A zero-contract position is left alone.
func (e *Engine) close(ctx context.Context, pos common.Position, d Decision, lg Logger) error {
	if pos.Contracts == 0 {
		return nil
	}
	lg.Printf(i18n.Get("RiskExit"), e.Symbol, d.Reason, pos.Side, pos.Contracts)
	if _, err := e.Closer.Close(ctx, pos, e.MarginMode); err != nil {
		return fmt.Errorf("close %s: %w", e.Symbol, err)
	}
	e.State.Reset()
	lg.Printf(i18n.Get("RiskClosed"), e.Symbol)

	now := e.clock()
	monitor.ObserveExit(e.Symbol, string(d.Reason))
	monitor.SetPeakRatio(e.Symbol, 0)
	if e.Metrics != nil {
		e.Metrics.IncrementExits()
	}
	e.Journal.RecordExit(db.ExitRecord{
		Symbol:      e.Symbol,
		Side:        string(pos.Side),
		Contracts:   pos.Contracts,
		Reason:      string(d.Reason),
		Pnl:         d.Pnl,
		PnlRatio:    d.PnlRatio,
		PeakPnl:     d.Peak,
		MaxPnlRatio: d.MaxPnlRatio,
		MarkPrice:   d.Mark,
		CreatedAt:   now,
	})
	e.Bus.Publish(events.EventPositionClosed, events.ExitEvent{
		Symbol:      e.Symbol,
		Side:        string(pos.Side),
		Contracts:   pos.Contracts,
		Reason:      string(d.Reason),
		Pnl:         d.Pnl,
		PnlRatio:    d.PnlRatio,
		PeakPnl:     d.Peak,
		MaxPnlRatio: d.MaxPnlRatio,
		MarkPrice:   d.Mark,
		Time:        now,
	})
	if d.Reason == ExitHardStop {
		e.Bus.Publish(events.EventRiskAlert, events.AlertEvent{
			Symbol:  e.Symbol,
			Kind:    string(ExitHardStop),
			Message: fmt.Sprintf("pnl ratio %.2f%% hit the hard stop", d.PnlRatio*100),
			Time:    now,
		})
	}
	return nil
}

func (e *Engine) clock() time.Time {
	if e.now == nil {
		return time.Now()
	}
	return e.now()
}
