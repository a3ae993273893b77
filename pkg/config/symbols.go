package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

// DefaultSymbols is used when SYMBOLS is empty.
var DefaultSymbols = []string{
	"BTC/USDT:USDT",
	"ETH/USDT:USDT",
	"BNB/USDT:USDT",
	"SOL/USDT:USDT",
	"DOGE/USDT:USDT",
	"XRP/USDT:USDT",
}

// TrackedSymbol is one traded instrument and its entry parameters.
type TrackedSymbol struct {
	Symbol     string            `json:"symbol"`
	Leverage   int               `json:"leverage"`
	USDTAmount float64           `json:"usdt_amount"`
	MarginMode common.MarginMode `json:"margin_mode"`
}

// SymbolOverride is a SYMBOLS_FILE entry. Zero fields inherit the globals.
type SymbolOverride struct {
	Symbol     string  `yaml:"symbol"`
	Leverage   int     `yaml:"leverage"`
	USDTAmount float64 `yaml:"usdt_amount"`
	MarginMode string  `yaml:"margin_mode"`
}

// SymbolsFile represents the top-level YAML structure.
type SymbolsFile struct {
	Symbols []SymbolOverride `yaml:"symbols"`
}

// LoadSymbolsFile reads per-symbol overrides from a YAML file.
func LoadSymbolsFile(path string) ([]SymbolOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file SymbolsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return file.Symbols, nil
}

// buildSymbols merges the SYMBOLS list with file overrides. Symbols only in
// the file are appended in file order.
func buildSymbols(names []string, overrides []SymbolOverride, def TrackedSymbol, errs *ConfigError) []TrackedSymbol {
	out := make([]TrackedSymbol, 0, len(names)+len(overrides))
	index := make(map[string]int)

	for _, n := range names {
		ins, err := common.ParseSymbol(n)
		if err != nil {
			errs.add("SYMBOLS", "%v", err)
			continue
		}
		key := ins.String()
		if _, dup := index[key]; dup {
			continue
		}
		ts := def
		ts.Symbol = key
		index[key] = len(out)
		out = append(out, ts)
	}

	for _, o := range overrides {
		ins, err := common.ParseSymbol(o.Symbol)
		if err != nil {
			errs.add("SYMBOLS_FILE", "%v", err)
			continue
		}
		key := ins.String()
		i, ok := index[key]
		if !ok {
			ts := def
			ts.Symbol = key
			index[key] = len(out)
			out = append(out, ts)
			i = len(out) - 1
		}
		ts := &out[i]
		if o.Leverage != 0 {
			ts.Leverage = o.Leverage
		}
		if o.USDTAmount != 0 {
			ts.USDTAmount = o.USDTAmount
		}
		if o.MarginMode != "" {
			m, ok := common.ParseMarginMode(o.MarginMode)
			if !ok {
				errs.add("SYMBOLS_FILE", "%s: margin_mode %q must be cross or isolated", key, o.MarginMode)
				continue
			}
			ts.MarginMode = m
		}
	}

	for _, ts := range out {
		if ts.Leverage < 1 {
			errs.add("LEVERAGE", "%s: must be >= 1, got %d", ts.Symbol, ts.Leverage)
		}
		if ts.USDTAmount < 1 {
			errs.add("USDT_AMOUNT", "%s: must be >= 1, got %g", ts.Symbol, ts.USDTAmount)
		}
	}
	return out
}
