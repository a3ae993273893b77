package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/internal/events"
	"github.com/dunea/blockchain-ai-quantificat/internal/monitor"
	"github.com/dunea/blockchain-ai-quantificat/internal/order"
	"github.com/dunea/blockchain-ai-quantificat/internal/persistence"
	"github.com/dunea/blockchain-ai-quantificat/internal/risk"
	"github.com/dunea/blockchain-ai-quantificat/internal/scheduler"
	"github.com/dunea/blockchain-ai-quantificat/internal/sizing"
	"github.com/dunea/blockchain-ai-quantificat/internal/strategy"
	"github.com/dunea/blockchain-ai-quantificat/pkg/config"
	"github.com/dunea/blockchain-ai-quantificat/pkg/db"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
	"github.com/dunea/blockchain-ai-quantificat/pkg/i18n"
)

// Clock reports the venue-adjusted time; *common.TimeSync satisfies it.
type Clock interface {
	Now() time.Time
	Offset() time.Duration
}

// Config holds everything needed to assemble the agent.
type Config struct {
	Gateway common.Gateway
	// Placer sends orders; nil means Gateway. Set to a dry-run placer to
	// keep orders in process.
	Placer  order.Placer
	Advisor strategy.Advisor
	Symbols []config.TrackedSymbol
	Tag     string

	EntryInterval    time.Duration
	StopLossInterval time.Duration

	Bus     *events.Bus
	Journal *persistence.Journal
	Metrics *monitor.SystemMetrics
	Clock   Clock
	Meta    SystemStatus
}

type symbolRuntime struct {
	cfg   config.TrackedSymbol
	entry *strategy.EntryLoop
	risk  *risk.Engine
	state *risk.State
}

// Impl implements Service by composing the per-symbol loops.
type Impl struct {
	gateway   common.Gateway
	positions strategy.PositionSource
	journal   *persistence.Journal
	metrics   *monitor.SystemMetrics
	clock     Clock
	sched     *scheduler.Scheduler
	book      *risk.Book
	symbols   []string
	runtimes  map[string]*symbolRuntime
	meta      SystemStatus
}

// NewImpl builds one entry loop and one risk engine per symbol and
// registers both as scheduler jobs.
func NewImpl(cfg Config) *Impl {
	placer := cfg.Placer
	if placer == nil {
		placer = cfg.Gateway
	}
	names := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		names = append(names, s.Symbol)
	}

	positions := &timedPositions{gw: cfg.Gateway, metrics: cfg.Metrics}
	exec := order.NewExecutor(placer, cfg.Bus, cfg.Journal, cfg.Metrics, cfg.Tag)
	sizer := sizing.New(cfg.Gateway)
	book := risk.NewBook(names)
	sched := scheduler.New(cfg.Bus, cfg.Metrics)

	e := &Impl{
		gateway:   cfg.Gateway,
		positions: positions,
		journal:   cfg.Journal,
		metrics:   cfg.Metrics,
		clock:     cfg.Clock,
		sched:     sched,
		book:      book,
		symbols:   names,
		runtimes:  make(map[string]*symbolRuntime, len(cfg.Symbols)),
		meta:      cfg.Meta,
	}

	for _, s := range cfg.Symbols {
		state := book.Get(s.Symbol)

		entry := strategy.NewEntryLoop(s, positions, cfg.Advisor, sizer, exec, state)
		entry.Bus, entry.Journal, entry.Metrics = cfg.Bus, cfg.Journal, cfg.Metrics

		eng := risk.NewEngine(s.Symbol, s.MarginMode, positions, exec, state)
		eng.Bus, eng.Journal, eng.Metrics = cfg.Bus, cfg.Journal, cfg.Metrics

		e.runtimes[s.Symbol] = &symbolRuntime{cfg: s, entry: entry, risk: eng, state: state}

		sched.Add(scheduler.Job{
			Name:     "entry " + s.Symbol,
			Symbol:   s.Symbol,
			Loop:     monitor.LoopEntry,
			Interval: cfg.EntryInterval,
			Run: func(ctx context.Context, tl *scheduler.TickLog) error {
				return entry.Tick(ctx, tl)
			},
		})
		sched.Add(scheduler.Job{
			Name:     "risk " + s.Symbol,
			Symbol:   s.Symbol,
			Loop:     monitor.LoopRisk,
			Interval: cfg.StopLossInterval,
			Run: func(ctx context.Context, tl *scheduler.TickLog) error {
				return eng.Tick(ctx, tl)
			},
		})
	}

	e.meta.Symbols = names
	e.meta.Jobs = len(sched.Jobs())
	e.meta.JournalEnabled = cfg.Journal != nil
	e.meta.EntryInterval = cfg.EntryInterval.String()
	e.meta.StopLossInterval = cfg.StopLossInterval.String()
	if e.meta.StartedAt.IsZero() {
		e.meta.StartedAt = time.Now()
	}
	return e
}

// Setup applies one-way position mode and leverage for every symbol. Venue
// refusals are logged and otherwise ignored.
func (e *Impl) Setup(ctx context.Context) []common.BestEffort {
	var out []common.BestEffort
	for _, name := range e.symbols {
		rt := e.runtimes[name]
		out = append(out,
			e.gateway.SetPositionMode(ctx, false, name),
			e.gateway.SetLeverage(ctx, name, rt.cfg.Leverage, rt.cfg.MarginMode),
		)
	}
	for _, r := range out {
		if r.OK() {
			log.Printf(i18n.Get("SetupApplied"), r)
		} else {
			log.Printf(i18n.Get("SetupIgnored"), r)
		}
	}
	return out
}

// Book exposes the per-symbol risk state.
func (e *Impl) Book() *risk.Book { return e.book }

// Start launches the scheduler; Wait blocks until every loop has stopped.
func (e *Impl) Start(ctx context.Context) { e.sched.Start(ctx) }

func (e *Impl) Wait() { e.sched.Wait() }

// --- Symbols ---

func (e *Impl) ListSymbols(ctx context.Context) []SymbolInfo {
	out := make([]SymbolInfo, 0, len(e.symbols))
	for _, name := range e.symbols {
		out = append(out, infoOf(e.runtimes[name].cfg))
	}
	return out
}

func (e *Impl) GetSymbolStatus(ctx context.Context, symbol string) (*SymbolStatus, error) {
	rt, ok := e.runtimes[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	}
	st := &SymbolStatus{SymbolInfo: infoOf(rt.cfg), Risk: rt.state.Snapshot()}

	all, err := e.positions.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := common.FindPosition(common.OpenPositions(all), symbol); ok {
		pos := positionOf(p, true)
		st.Position = &pos
		if st.Risk.PeakPnl != nil && p.InitialMargin > 0 {
			r := *st.Risk.PeakPnl / p.InitialMargin
			st.MaxPnlRatio = &r
		}
	}
	return st, nil
}

func (e *Impl) ForceClose(ctx context.Context, symbol, requestedBy string) (*CloseResult, error) {
	rt, ok := e.runtimes[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	}
	log.Printf(i18n.Get("RiskManualClose"), symbol, requestedBy)
	tl := scheduler.NewTickLog("manual " + symbol)
	defer tl.Flush()

	d, err := rt.risk.ForceClose(ctx, tl)
	if err != nil {
		return nil, err
	}
	return &CloseResult{
		Symbol:      symbol,
		Reason:      string(d.Reason),
		RequestedBy: requestedBy,
		Pnl:         d.Pnl,
		PnlRatio:    d.PnlRatio,
		PeakPnl:     d.Peak,
	}, nil
}

// --- Venue ---

func (e *Impl) GetPositions(ctx context.Context) ([]Position, error) {
	all, err := e.positions.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	open := common.OpenPositions(all)
	out := make([]Position, 0, len(open))
	for _, p := range open {
		_, tracked := e.runtimes[p.Symbol]
		out = append(out, positionOf(p, tracked))
	}
	return out, nil
}

// --- Journal ---

func (e *Impl) ListOrders(ctx context.Context, symbol string, limit int) ([]db.OrderRecord, error) {
	if e.journal == nil {
		return nil, ErrJournalDisabled
	}
	return e.journal.Orders(ctx, symbol, limit)
}

func (e *Impl) ListExits(ctx context.Context, symbol string, limit int) ([]db.ExitRecord, error) {
	if e.journal == nil {
		return nil, ErrJournalDisabled
	}
	return e.journal.Exits(ctx, symbol, limit)
}

func (e *Impl) ListSignals(ctx context.Context, symbol string, limit int) ([]db.SignalRecord, error) {
	if e.journal == nil {
		return nil, ErrJournalDisabled
	}
	return e.journal.Signals(ctx, symbol, limit)
}

// --- System ---

func (e *Impl) GetSystemStatus(ctx context.Context) *SystemStatus {
	st := e.meta
	st.Symbols = append([]string(nil), e.meta.Symbols...)
	st.ServerTime = time.Now()
	if e.clock != nil {
		st.ServerTime = e.clock.Now()
		st.ClockOffsetMs = e.clock.Offset().Milliseconds()
	}
	return &st
}

func (e *Impl) GetMetrics() monitor.MetricsSnapshot {
	if e.metrics == nil {
		return monitor.MetricsSnapshot{Timestamp: time.Now()}
	}
	return e.metrics.GetSnapshot()
}

func infoOf(s config.TrackedSymbol) SymbolInfo {
	return SymbolInfo{Symbol: s.Symbol, Leverage: s.Leverage, USDTAmount: s.USDTAmount, MarginMode: string(s.MarginMode)}
}

func positionOf(p common.Position, tracked bool) Position {
	pos := Position{
		Symbol:        p.Symbol,
		Side:          string(p.Side),
		Contracts:     p.Contracts,
		EntryPrice:    p.EntryPrice,
		MarkPrice:     p.MarkPrice,
		UnrealizedPnl: p.UnrealizedPnl,
		InitialMargin: p.InitialMargin,
		Tracked:       tracked,
	}
	if p.InitialMargin > 0 {
		pos.PnlRatio = p.UnrealizedPnl / p.InitialMargin
	}
	return pos
}

// timedPositions records gateway latency for position snapshots, the call
// both loops make on every tick.
type timedPositions struct {
	gw      common.Gateway
	metrics *monitor.SystemMetrics
}

func (t *timedPositions) ListPositions(ctx context.Context) ([]common.Position, error) {
	start := time.Now()
	ps, err := t.gw.ListPositions(ctx)
	took := time.Since(start)
	monitor.ObserveCall("gateway.positions", took)
	if t.metrics != nil {
		t.metrics.GatewayLatency.RecordDuration(took)
	}
	return ps, err
}
