package risk

import "github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"

// Evaluate applies the exit ladder to pos given the stored initial stop
// and the running peak PnL (which must already include pos). Rules are
// checked in order and the first match wins.
func Evaluate(pos common.Position, initialStop *float64, peak float64) (Decision, error) {
	if pos.InitialMargin <= 0 {
		return Decision{}, ErrNoMargin
	}
	d := Decision{
		Pnl:         pos.UnrealizedPnl,
		PnlRatio:    pos.UnrealizedPnl / pos.InitialMargin,
		Peak:        peak,
		MaxPnlRatio: peak / pos.InitialMargin,
		Mark:        pos.MarkPrice,
		Stop:        initialStop,
	}

	switch {
	case d.PnlRatio <= HardStopRatio:
		d.Close, d.Reason = true, ExitHardStop
	case d.MaxPnlRatio < Tier1Ratio:
		if initialStop != nil && crossed(pos.Side, pos.MarkPrice, *initialStop) {
			d.Close, d.Reason = true, ExitInitialStop
		}
	case d.MaxPnlRatio < Tier2Ratio:
		if d.Pnl <= d.Peak*Tier1Keep {
			d.Close, d.Reason = true, ExitTier1Trailing
		}
	default:
		if d.Pnl <= d.Peak*Tier2Keep {
			d.Close, d.Reason = true, ExitTier2Trailing
		}
	}
	return d, nil
}

// crossed reports an adverse move through stop.
func crossed(side common.PositionSide, mark, stop float64) bool {
	if side == common.PositionShort {
		return mark >= stop
	}
	return mark <= stop
}
