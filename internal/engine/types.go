package engine

import (
	"time"

	"github.com/dunea/blockchain-ai-quantificat/internal/risk"
)

// SymbolInfo is a tracked symbol and its entry parameters.
type SymbolInfo struct {
	Symbol     string  `json:"symbol"`
	Leverage   int     `json:"leverage"`
	USDTAmount float64 `json:"usdt_amount"`
	MarginMode string  `json:"margin_mode"`
}

// Position is an open venue position.
type Position struct {
	Symbol        string  `json:"symbol"`
	Side          string  `json:"side"`
	Contracts     float64 `json:"contracts"`
	EntryPrice    float64 `json:"entry_price"`
	MarkPrice     float64 `json:"mark_price"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	InitialMargin float64 `json:"initial_margin"`
	PnlRatio      float64 `json:"pnl_ratio"`
	Tracked       bool    `json:"tracked"`
}

// SymbolStatus combines config, risk state and the live position.
type SymbolStatus struct {
	SymbolInfo
	Risk     risk.Snapshot `json:"risk"`
	Position *Position     `json:"position,omitempty"`
	// MaxPnlRatio is derived from Risk.PeakPnl and the live margin.
	MaxPnlRatio *float64 `json:"max_pnl_ratio,omitempty"`
}

// CloseResult reports a manual close.
type CloseResult struct {
	Symbol      string  `json:"symbol"`
	Reason      string  `json:"reason"`
	RequestedBy string  `json:"requested_by"`
	Pnl         float64 `json:"pnl"`
	PnlRatio    float64 `json:"pnl_ratio"`
	PeakPnl     float64 `json:"peak_pnl"`
}

// SystemStatus represents the system runtime status.
type SystemStatus struct {
	Venue            string    `json:"venue"`
	DryRun           bool      `json:"dry_run"`
	Symbols          []string  `json:"symbols"`
	EntryInterval    string    `json:"entry_interval"`
	StopLossInterval string    `json:"stop_loss_interval"`
	JournalEnabled   bool      `json:"journal_enabled"`
	Jobs             int       `json:"jobs"`
	Version          string    `json:"version"`
	StartedAt        time.Time `json:"started_at"`
	ServerTime       time.Time `json:"server_time"`
	ClockOffsetMs    int64     `json:"clock_offset_ms"`
}
