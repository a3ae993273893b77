package db

import (
	"context"
	"time"
)

// OrderRecord is one submitted or rejected market order.
type OrderRecord struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	Side            string    `json:"side"`
	Qty             float64   `json:"qty"`
	ReduceOnly      bool      `json:"reduce_only"`
	Purpose         string    `json:"purpose"` // open | close
	ExchangeOrderID string    `json:"exchange_order_id"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SignalRecord is one entry signal received from the signal source.
type SignalRecord struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Signal     string    `json:"signal"`
	Confidence string    `json:"confidence"`
	Trend      string    `json:"trend"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// StopRecord is one stop-loss recommendation.
type StopRecord struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Direction  string    `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Confidence string    `json:"confidence"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExitRecord is one close decision taken by the risk engine.
type ExitRecord struct {
	ID          int64     `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Contracts   float64   `json:"contracts"`
	Reason      string    `json:"reason"`
	Pnl         float64   `json:"pnl"`
	PnlRatio    float64   `json:"pnl_ratio"`
	PeakPnl     float64   `json:"peak_pnl"`
	MaxPnlRatio float64   `json:"max_pnl_ratio"`
	MarkPrice   float64   `json:"mark_price"`
	CreatedAt   time.Time `json:"created_at"`
}

// Args returns the InsertOrderSQL arguments.
func (o OrderRecord) Args() []any {
	return []any{o.ID, o.Symbol, o.Side, o.Qty, o.ReduceOnly, o.Purpose, o.ExchangeOrderID, o.Status, o.Error, o.CreatedAt.UTC()}
}

// Args returns the InsertSignalSQL arguments.
func (s SignalRecord) Args() []any {
	return []any{s.Symbol, s.Signal, s.Confidence, s.Trend, s.Reason, s.CreatedAt.UTC()}
}

// Args returns the InsertStopSQL arguments.
func (s StopRecord) Args() []any {
	return []any{s.Symbol, s.Direction, s.EntryPrice, s.StopLoss, s.TakeProfit, s.Confidence, s.Reason, s.CreatedAt.UTC()}
}

// Args returns the InsertExitSQL arguments.
func (e ExitRecord) Args() []any {
	return []any{e.Symbol, e.Side, e.Contracts, e.Reason, e.Pnl, e.PnlRatio, e.PeakPnl, e.MaxPnlRatio, e.MarkPrice, e.CreatedAt.UTC()}
}

// ListOrders returns the newest orders first; empty symbol means all.
func (d *Database) ListOrders(ctx context.Context, symbol string, limit int) ([]OrderRecord, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, symbol, side, qty, reduce_only, purpose, exchange_order_id, status, error, created_at
		FROM orders
		WHERE (? = '' OR symbol = ?)
		ORDER BY created_at DESC
		LIMIT ?`, symbol, symbol, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var o OrderRecord
		if err := rows.Scan(&o.ID, &o.Symbol, &o.Side, &o.Qty, &o.ReduceOnly, &o.Purpose, &o.ExchangeOrderID, &o.Status, &o.Error, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListExits returns the newest exit decisions first.
func (d *Database) ListExits(ctx context.Context, symbol string, limit int) ([]ExitRecord, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, symbol, side, contracts, reason, pnl, pnl_ratio, peak_pnl, max_pnl_ratio, mark_price, created_at
		FROM exits
		WHERE (? = '' OR symbol = ?)
		ORDER BY id DESC
		LIMIT ?`, symbol, symbol, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExitRecord
	for rows.Next() {
		var e ExitRecord
		if err := rows.Scan(&e.ID, &e.Symbol, &e.Side, &e.Contracts, &e.Reason, &e.Pnl, &e.PnlRatio, &e.PeakPnl, &e.MaxPnlRatio, &e.MarkPrice, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListSignals returns the newest signals first.
func (d *Database) ListSignals(ctx context.Context, symbol string, limit int) ([]SignalRecord, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, symbol, signal, confidence, trend, reason, created_at
		FROM signals
		WHERE (? = '' OR symbol = ?)
		ORDER BY id DESC
		LIMIT ?`, symbol, symbol, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var s SignalRecord
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Signal, &s.Confidence, &s.Trend, &s.Reason, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
