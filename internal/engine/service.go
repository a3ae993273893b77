// Package engine wires the per-symbol loops together and exposes them to
// the API layer through Service.
package engine

import (
	"context"
	"errors"

	"github.com/dunea/blockchain-ai-quantificat/internal/monitor"
	"github.com/dunea/blockchain-ai-quantificat/pkg/db"
)

var (
	// ErrUnknownSymbol is returned for a symbol the agent does not track.
	ErrUnknownSymbol = errors.New("symbol not tracked")
	// ErrJournalDisabled is returned by journal queries when JOURNAL_PATH is empty.
	ErrJournalDisabled = errors.New("journal disabled")
)

// Service is everything the API layer may do with the running agent.
type Service interface {
	// Symbols
	ListSymbols(ctx context.Context) []SymbolInfo
	GetSymbolStatus(ctx context.Context, symbol string) (*SymbolStatus, error)
	ForceClose(ctx context.Context, symbol, requestedBy string) (*CloseResult, error)

	// Venue
	GetPositions(ctx context.Context) ([]Position, error)

	// Journal
	ListOrders(ctx context.Context, symbol string, limit int) ([]db.OrderRecord, error)
	ListExits(ctx context.Context, symbol string, limit int) ([]db.ExitRecord, error)
	ListSignals(ctx context.Context, symbol string, limit int) ([]db.SignalRecord, error)

	// System
	GetSystemStatus(ctx context.Context) *SystemStatus
	GetMetrics() monitor.MetricsSnapshot
}
