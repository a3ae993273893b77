// Package sizing converts a USDT notional into a swap contract quantity.
package sizing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

// Places is the rounding applied to contract quantities.
const Places = 8

// MarketData is the part of the gateway the sizer reads.
type MarketData interface {
	MarketInfo(ctx context.Context, symbol string) (common.Market, error)
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

// SizingError means no order quantity could be derived this tick.
type SizingError struct {
	Symbol string
	Reason string
	Err    error
}

func (e *SizingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("size %s: %s: %v", e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("size %s: %s", e.Symbol, e.Reason)
}

func (e *SizingError) Unwrap() error { return e.Err }

// Sizer holds no state besides its market data source.
type Sizer struct {
	md MarketData
}

func New(md MarketData) *Sizer {
	return &Sizer{md: md}
}

// Size returns usdtAmount*leverage / (price*contractSize), rounded to 8
// places. A missing contract size counts as 1.
func (s *Sizer) Size(ctx context.Context, symbol string, usdtAmount float64, leverage int) (float64, error) {
	m, err := s.md.MarketInfo(ctx, symbol)
	if err != nil {
		return 0, &SizingError{Symbol: symbol, Reason: "market metadata unavailable", Err: err}
	}
	price, err := s.md.LastPrice(ctx, symbol)
	if err != nil {
		return 0, &SizingError{Symbol: symbol, Reason: "price unavailable", Err: err}
	}
	return Contracts(symbol, usdtAmount, leverage, price, m.ContractSize)
}

// Contracts is the pure conversion behind Size.
func Contracts(symbol string, usdtAmount float64, leverage int, price, contractSize float64) (float64, error) {
	if price <= 0 {
		return 0, &SizingError{Symbol: symbol, Reason: fmt.Sprintf("invalid price %g", price)}
	}
	if contractSize <= 0 {
		contractSize = 1
	}
	notional := decimal.NewFromFloat(usdtAmount).Mul(decimal.NewFromInt(int64(leverage)))
	perContract := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(contractSize))
	qty := notional.DivRound(perContract, Places+4).Round(Places)
	return qty.InexactFloat64(), nil
}
