package monitor

import (
	"context"
	"log"

	"github.com/dunea/blockchain-ai-quantificat/internal/events"
)

// Monitor forwards alert-worthy bus events to a sink: explicit risk
// alerts, exits and failed ticks.
type Monitor struct {
	Bus  *events.Bus
	Sink AlertSink
}

// Start consumes events until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	if m.Bus == nil || m.Sink == nil {
		log.Println("monitor not fully configured; skipping")
		return
	}
	stream, unsub := m.Bus.SubscribeMany([]events.Event{
		events.EventRiskAlert,
		events.EventPositionClosed,
		events.EventTickFailed,
	}, 64)
	go func() {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-stream:
				if !ok {
					return
				}
				m.dispatch(env)
			}
		}
	}()
}

func (m *Monitor) dispatch(env events.Envelope) {
	var err error
	switch p := env.Payload.(type) {
	case events.AlertEvent:
		err = m.Sink.Send(p.Symbol, p.Kind, p.Message)
	case events.ExitEvent:
		err = m.Sink.Send(p.Symbol, "exit", formatExit(p.Reason, p.Pnl, p.PnlRatio, p.PeakPnl, p.MaxPnlRatio))
	case events.TickErrorEvent:
		err = m.Sink.Send(p.Symbol, p.Loop+"_tick_failed", p.Error)
	}
	if err != nil {
		log.Printf("alert delivery failed: %v", err)
	}
}
