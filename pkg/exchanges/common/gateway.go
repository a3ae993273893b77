package common

import (
	"context"
	"fmt"
)

// Gateway abstracts a perpetual-swap venue.
type Gateway interface {
	Name() string

	// ListPositions returns every position on the account, including empty ones.
	ListPositions(ctx context.Context) ([]Position, error)
	MarketInfo(ctx context.Context, symbol string) (Market, error)
	LastPrice(ctx context.Context, symbol string) (float64, error)
	PlaceMarketOrder(ctx context.Context, req OrderRequest) (OrderResult, error)

	// Setup calls never fail the caller; inspect the returned BestEffort.
	SetLeverage(ctx context.Context, symbol string, leverage int, mode MarginMode) BestEffort
	SetPositionMode(ctx context.Context, hedge bool, symbol string) BestEffort
}

// BestEffort is the outcome of a setup call the caller may ignore.
// Venues commonly answer "already set" with an error status, so Err is
// informational and should be logged rather than propagated.
type BestEffort struct {
	Op     string
	Symbol string
	Err    error
}

// OK reports whether the call succeeded.
func (b BestEffort) OK() bool { return b.Err == nil }

func (b BestEffort) String() string {
	if b.Err == nil {
		return fmt.Sprintf("%s %s: ok", b.Op, b.Symbol)
	}
	return fmt.Sprintf("%s %s: %v", b.Op, b.Symbol, b.Err)
}

// OpenPositions keeps positions with contracts > 0.
func OpenPositions(all []Position) []Position {
	out := make([]Position, 0, len(all))
	for _, p := range all {
		if p.Contracts > 0 {
			out = append(out, p)
		}
	}
	return out
}

// FindPosition returns the first position for symbol, if any.
func FindPosition(positions []Position, symbol string) (Position, bool) {
	for _, p := range positions {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return Position{}, false
}
