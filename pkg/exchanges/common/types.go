package common

import "strings"

// Side denotes order side.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the side that reduces a position opened with s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// PositionSide is the direction of a held position.
type PositionSide string

const (
	PositionLong  PositionSide = "long"
	PositionShort PositionSide = "short"
)

// EntrySide is the order side that opened a position of this direction.
func (p PositionSide) EntrySide() Side {
	if p == PositionShort {
		return SideSell
	}
	return SideBuy
}

// CloseSide is the order side that reduces a position of this direction.
func (p PositionSide) CloseSide() Side {
	return p.EntrySide().Opposite()
}

// MarginMode selects cross or isolated margin.
type MarginMode string

const (
	MarginCross    MarginMode = "cross"
	MarginIsolated MarginMode = "isolated"
)

// ParseMarginMode accepts the venue spellings (cross, crossed, isolated).
func ParseMarginMode(s string) (MarginMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cross", "crossed":
		return MarginCross, true
	case "isolated":
		return MarginIsolated, true
	default:
		return "", false
	}
}

// OrderStatus normalizes exchange status into a small set.
type OrderStatus string

const (
	StatusNew      OrderStatus = "NEW"
	StatusPartial  OrderStatus = "PARTIAL"
	StatusFilled   OrderStatus = "FILLED"
	StatusCanceled OrderStatus = "CANCELED"
	StatusRejected OrderStatus = "REJECTED"
	StatusExpired  OrderStatus = "EXPIRED"
	StatusUnknown  OrderStatus = "UNKNOWN"
)

// Position is a snapshot of one open swap position.
// It is only valid for the tick that fetched it.
type Position struct {
	Symbol        string
	Side          PositionSide
	Contracts     float64
	EntryPrice    float64
	MarkPrice     float64
	UnrealizedPnl float64
	InitialMargin float64
}

// Market carries instrument metadata needed for sizing.
// ContractSize is zero when the venue does not report one.
type Market struct {
	Symbol       string
	ContractSize float64
	LotSize      float64
	MinSize      float64
}

// OrderRequest captures a market order intent.
type OrderRequest struct {
	Symbol     string
	Side       Side
	Qty        float64
	ReduceOnly bool
	ClientID   string // optional client order id
	Tag        string // broker/client tag attached to every order
	MarginMode MarginMode
}

// OrderResult returns the exchange ack.
type OrderResult struct {
	ExchangeOrderID string
	ClientID        string
	Status          OrderStatus
}
