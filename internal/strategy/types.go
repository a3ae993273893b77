package strategy

import (
	"context"

	"github.com/dunea/blockchain-ai-quantificat/internal/analysis"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

// Logger receives the lines of one tick.
type Logger interface {
	Printf(format string, v ...any)
}

// PositionSource lists account positions.
type PositionSource interface {
	ListPositions(ctx context.Context) ([]common.Position, error)
}

// Advisor is the signal source.
type Advisor interface {
	Analyze(ctx context.Context, symbol string, leverage int) (analysis.EntrySignal, error)
	AnalyzeStopLoss(ctx context.Context, symbol string, leverage int, dir analysis.Direction, entryPrice float64) (analysis.StopRecommendation, error)
}

// Sizer converts a USDT amount into contracts.
type Sizer interface {
	Size(ctx context.Context, symbol string, usdtAmount float64, leverage int) (float64, error)
}

// OrderPlacer sends entry orders.
type OrderPlacer interface {
	Open(ctx context.Context, symbol string, side common.Side, qty float64, mode common.MarginMode) (common.OrderResult, error)
}

func directionOf(side common.PositionSide) analysis.Direction {
	if side == common.PositionShort {
		return analysis.DirectionShort
	}
	return analysis.DirectionLong
}

func sideOf(dir analysis.Direction) common.Side {
	if dir == analysis.DirectionShort {
		return common.SideSell
	}
	return common.SideBuy
}
