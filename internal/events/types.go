package events

import "time"

// Event enumerates topics published by the agent.
type Event string

const (
	EventOrderSubmitted Event = "order.submitted"
	EventOrderRejected  Event = "order.rejected"
	EventPositionClosed Event = "position.closed"
	EventSignal         Event = "signal.received"
	EventStopSeeded     Event = "stop.seeded"
	EventRiskAlert      Event = "risk.alert"
	EventTickFailed     Event = "tick.failed"
)

// AllEvents is every topic, in display order.
var AllEvents = []Event{
	EventOrderSubmitted,
	EventOrderRejected,
	EventPositionClosed,
	EventSignal,
	EventStopSeeded,
	EventRiskAlert,
	EventTickFailed,
}

// OrderEvent is published for every market order attempt.
type OrderEvent struct {
	Symbol          string    `json:"symbol"`
	ClientID        string    `json:"client_id"`
	Side            string    `json:"side"`
	Qty             float64   `json:"qty"`
	ReduceOnly      bool      `json:"reduce_only"`
	Purpose         string    `json:"purpose"`
	ExchangeOrderID string    `json:"exchange_order_id,omitempty"`
	Error           string    `json:"error,omitempty"`
	Time            time.Time `json:"time"`
}

// ExitEvent is published when the risk engine closes a position.
type ExitEvent struct {
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Contracts   float64   `json:"contracts"`
	Reason      string    `json:"reason"`
	Pnl         float64   `json:"pnl"`
	PnlRatio    float64   `json:"pnl_ratio"`
	PeakPnl     float64   `json:"peak_pnl"`
	MaxPnlRatio float64   `json:"max_pnl_ratio"`
	MarkPrice   float64   `json:"mark_price"`
	Time        time.Time `json:"time"`
}

// SignalEvent is published for each entry signal received.
type SignalEvent struct {
	Symbol     string    `json:"symbol"`
	Signal     string    `json:"signal"`
	Confidence string    `json:"confidence"`
	Trend      string    `json:"trend"`
	Reason     string    `json:"reason"`
	Time       time.Time `json:"time"`
}

// StopEvent is published when an initial stop price is stored.
type StopEvent struct {
	Symbol     string    `json:"symbol"`
	Direction  string    `json:"direction"`
	StopPrice  float64   `json:"stop_price"`
	EntryPrice float64   `json:"entry_price,omitempty"`
	Time       time.Time `json:"time"`
}

// AlertEvent is an operator-facing alert.
type AlertEvent struct {
	Symbol  string    `json:"symbol"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// TickErrorEvent is published when a loop tick fails.
type TickErrorEvent struct {
	Symbol string    `json:"symbol"`
	Loop   string    `json:"loop"`
	Error  string    `json:"error"`
	Time   time.Time `json:"time"`
}
