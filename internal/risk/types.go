package risk

import (
	"errors"
	"strconv"
)

// Exit thresholds, as fractions of initial margin.
const (
	HardStopRatio = -0.20
	Tier1Ratio    = 0.20
	Tier2Ratio    = 1.00
	Tier1Keep     = 0.80
	Tier2Keep     = 0.75
)

// ErrNoMargin means the position reports no initial margin, so no ratio
// can be computed this tick.
var ErrNoMargin = errors.New("position has no initial margin")

// ErrNoPosition is returned by a manual close when nothing is open.
var ErrNoPosition = errors.New("no open position")

// ExitReason names the rule that closed a position.
type ExitReason string

const (
	ExitHardStop      ExitReason = "hard_stop"
	ExitInitialStop   ExitReason = "initial_stop"
	ExitTier1Trailing ExitReason = "tier1_trailing"
	ExitTier2Trailing ExitReason = "tier2_trailing"
	ExitManual        ExitReason = "manual"
)

// Decision is the outcome of one evaluation.
type Decision struct {
	Close       bool       `json:"close"`
	Reason      ExitReason `json:"reason,omitempty"`
	Pnl         float64    `json:"pnl"`
	PnlRatio    float64    `json:"pnl_ratio"`
	Peak        float64    `json:"peak_pnl"`
	MaxPnlRatio float64    `json:"max_pnl_ratio"`
	Mark        float64    `json:"mark_price"`
	Stop        *float64   `json:"initial_stop_price,omitempty"`
}

func (d Decision) stopString() string {
	if d.Stop == nil {
		return "-"
	}
	return strconv.FormatFloat(*d.Stop, 'f', -1, 64)
}
