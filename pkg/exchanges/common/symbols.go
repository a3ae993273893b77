package common

import (
	"fmt"
	"strings"
)

// Instrument is a unified swap symbol such as BTC/USDT:USDT.
type Instrument struct {
	Base   string
	Quote  string
	Settle string
}

// ParseSymbol parses the unified BASE/QUOTE:SETTLE form. The settle part
// defaults to the quote currency.
func ParseSymbol(symbol string) (Instrument, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	pair, settle, _ := strings.Cut(s, ":")
	base, quote, ok := strings.Cut(pair, "/")
	if !ok || base == "" || quote == "" {
		return Instrument{}, fmt.Errorf("invalid symbol %q: want BASE/QUOTE:SETTLE", symbol)
	}
	if settle == "" {
		settle = quote
	}
	return Instrument{Base: base, Quote: quote, Settle: settle}, nil
}

// String renders the unified form.
func (i Instrument) String() string {
	return i.Base + "/" + i.Quote + ":" + i.Settle
}
