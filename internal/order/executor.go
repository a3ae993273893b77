package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dunea/blockchain-ai-quantificat/internal/events"
	"github.com/dunea/blockchain-ai-quantificat/internal/monitor"
	"github.com/dunea/blockchain-ai-quantificat/internal/persistence"
	"github.com/dunea/blockchain-ai-quantificat/pkg/db"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
	"github.com/dunea/blockchain-ai-quantificat/pkg/i18n"
)

// ErrInvalidQty is returned for a non-positive order quantity.
var ErrInvalidQty = errors.New("order quantity must be positive")

// Placer is the part of the gateway the executor needs.
type Placer interface {
	Name() string
	PlaceMarketOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error)
}

// Executor sends market orders to the venue, then journals them and emits
// updates. Orders are fire-and-forget: no fill tracking, no retries.
type Executor struct {
	Gateway Placer
	Bus     *events.Bus
	Journal *persistence.Journal
	Metrics *monitor.SystemMetrics
	Tag     string

	now func() time.Time
}

func NewExecutor(gw Placer, bus *events.Bus, journal *persistence.Journal, metrics *monitor.SystemMetrics, tag string) *Executor {
	return &Executor{
		Gateway: gw,
		Bus:     bus,
		Journal: journal,
		Metrics: metrics,
		Tag:     tag,
		now:     time.Now,
	}
}

// Open places an entry order for qty contracts.
func (e *Executor) Open(ctx context.Context, symbol string, side common.Side, qty float64, mode common.MarginMode) (common.OrderResult, error) {
	return e.Submit(ctx, Order{
		Symbol:     symbol,
		Side:       side,
		Qty:        qty,
		Purpose:    PurposeOpen,
		MarginMode: mode,
	})
}

// Close flattens pos with a reduce-only order on the opposite side for
// exactly its contracts.
func (e *Executor) Close(ctx context.Context, pos common.Position, mode common.MarginMode) (common.OrderResult, error) {
	return e.Submit(ctx, Order{
		Symbol:     pos.Symbol,
		Side:       pos.Side.CloseSide(),
		Qty:        pos.Contracts,
		ReduceOnly: true,
		Purpose:    PurposeClose,
		MarginMode: mode,
	})
}

// Submit sends o. A missing ID is filled with a fresh client order id.
func (e *Executor) Submit(ctx context.Context, o Order) (common.OrderResult, error) {
	if o.Qty <= 0 {
		return common.OrderResult{}, fmt.Errorf("%s %s: %w", o.Symbol, o.Side, ErrInvalidQty)
	}
	if o.ID == "" {
		o.ID = NewClientID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = e.clock()
	}

	var timer *monitor.Timer
	if e.Metrics != nil {
		timer = monitor.NewTimer(e.Metrics.OrderLatency)
	}
	start := time.Now()
	res, err := e.Gateway.PlaceMarketOrder(ctx, o.Request(e.Tag))
	monitor.ObserveCall("order."+string(o.Purpose), time.Since(start))
	if timer != nil {
		timer.Stop()
	}

	rejected := err != nil
	monitor.ObserveOrder(e.Gateway.Name(), string(o.Side), string(o.Purpose), rejected)
	if e.Metrics != nil {
		e.Metrics.IncrementOrders(rejected)
	}

	rec := db.OrderRecord{
		ID:         o.ID,
		Symbol:     o.Symbol,
		Side:       string(o.Side),
		Qty:        o.Qty,
		ReduceOnly: o.ReduceOnly,
		Purpose:    string(o.Purpose),
		CreatedAt:  o.CreatedAt,
	}
	evt := events.OrderEvent{
		Symbol:     o.Symbol,
		ClientID:   o.ID,
		Side:       string(o.Side),
		Qty:        o.Qty,
		ReduceOnly: o.ReduceOnly,
		Purpose:    string(o.Purpose),
		Time:       o.CreatedAt,
	}

	if err != nil {
		log.Printf(i18n.Get("OrderRejected"), o.Purpose, o.Symbol, o.Side, o.Qty, err)
		rec.Status = string(common.StatusRejected)
		rec.Error = err.Error()
		evt.Error = err.Error()
		e.Journal.RecordOrder(rec)
		e.Bus.Publish(events.EventOrderRejected, evt)
		return common.OrderResult{}, err
	}

	if res.ClientID == "" {
		res.ClientID = o.ID
	}
	log.Printf(i18n.Get("OrderSubmitted"), o.Purpose, o.Symbol, o.Side, o.Qty, o.ReduceOnly, res.ExchangeOrderID)
	rec.ExchangeOrderID = res.ExchangeOrderID
	rec.Status = string(res.Status)
	evt.ExchangeOrderID = res.ExchangeOrderID
	e.Journal.RecordOrder(rec)
	e.Bus.Publish(events.EventOrderSubmitted, evt)
	return res, nil
}

func (e *Executor) clock() time.Time {
	if e.now == nil {
		return time.Now()
	}
	return e.now()
}

// NewClientID returns a 32-char alphanumeric id accepted by both venues.
func NewClientID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
