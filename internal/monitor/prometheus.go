// Prometheus collectors, registered in init() and served at /metrics:
//
//	agent_orders_total{venue,side,purpose,result}
//	agent_exits_total{symbol,reason}
//	agent_tick_errors_total{symbol,loop}
//	agent_signals_total{symbol,signal}
//	agent_peak_pnl_ratio{symbol}
//	agent_call_duration_seconds{op}
package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_orders_total",
			Help: "Market orders sent, by outcome",
		},
		[]string{"venue", "side", "purpose", "result"},
	)

	mtxExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_exits_total",
			Help: "Positions closed by the risk engine, by exit rule",
		},
		[]string{"symbol", "reason"},
	)

	mtxTickErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tick_errors_total",
			Help: "Loop ticks that ended in an error",
		},
		[]string{"symbol", "loop"},
	)

	mtxSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_signals_total",
			Help: "Entry signals received",
		},
		[]string{"symbol", "signal"},
	)

	// Zero while flat.
	mtxPeakRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agent_peak_pnl_ratio",
			Help: "Peak unrealized PnL over initial margin for the open position",
		},
		[]string{"symbol"},
	)

	mtxCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_call_duration_seconds",
			Help:    "Latency of exchange and signal source calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 60, 300},
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(mtxOrders, mtxExits, mtxTickErrors, mtxSignals, mtxPeakRatio, mtxCallDuration)
}

// ObserveOrder counts one order attempt.
func ObserveOrder(venue, side, purpose string, rejected bool) {
	result := "submitted"
	if rejected {
		result = "rejected"
	}
	mtxOrders.WithLabelValues(venue, side, purpose, result).Inc()
}

// ObserveExit counts one close decision.
func ObserveExit(symbol, reason string) {
	mtxExits.WithLabelValues(symbol, reason).Inc()
}

// ObserveTickError counts one failed tick.
func ObserveTickError(symbol string, loop TickLoop) {
	mtxTickErrors.WithLabelValues(symbol, string(loop)).Inc()
}

// ObserveSignal counts one entry signal.
func ObserveSignal(symbol, signal string) {
	mtxSignals.WithLabelValues(symbol, signal).Inc()
}

// SetPeakRatio publishes the current max PnL ratio for symbol.
func SetPeakRatio(symbol string, ratio float64) {
	mtxPeakRatio.WithLabelValues(symbol).Set(ratio)
}

// ObserveCall records the latency of an outbound call.
func ObserveCall(op string, took time.Duration) {
	mtxCallDuration.WithLabelValues(op).Observe(took.Seconds())
}
