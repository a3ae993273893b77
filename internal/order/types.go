package order

import (
	"time"

	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

// Purpose says why an order was sent.
type Purpose string

const (
	PurposeOpen  Purpose = "open"
	PurposeClose Purpose = "close"
)

// Order is a market order intent. Every order the agent sends is a market
// order; opens are sized by the sizer and closes carry the full position.
type Order struct {
	ID         string
	Symbol     string
	Side       common.Side
	Qty        float64
	ReduceOnly bool
	Purpose    Purpose
	MarginMode common.MarginMode
	CreatedAt  time.Time
}

// Request converts the intent into a gateway request carrying tag.
func (o Order) Request(tag string) common.OrderRequest {
	return common.OrderRequest{
		Symbol:     o.Symbol,
		Side:       o.Side,
		Qty:        o.Qty,
		ReduceOnly: o.ReduceOnly,
		ClientID:   o.ID,
		Tag:        tag,
		MarginMode: o.MarginMode,
	}
}
