package monitor

import (
	"fmt"
	"log"

	"github.com/dunea/blockchain-ai-quantificat/pkg/i18n"
)

// AlertSink interface for pluggable alert delivery.
type AlertSink interface {
	Send(symbol, kind, message string) error
}

// LogSink writes alerts to the process log.
type LogSink struct{}

func (LogSink) Send(symbol, kind, message string) error {
	log.Printf(i18n.Get("AlertRaised"), symbol, kind, message)
	return nil
}

// FuncSink adapts a function to AlertSink.
type FuncSink func(symbol, kind, message string) error

func (f FuncSink) Send(symbol, kind, message string) error { return f(symbol, kind, message) }

func formatExit(reason string, pnl, ratio, peak, maxRatio float64) string {
	return fmt.Sprintf("%s pnl=%.4f (%.2f%%) peak=%.4f (%.2f%%)", reason, pnl, ratio*100, peak, maxRatio*100)
}
