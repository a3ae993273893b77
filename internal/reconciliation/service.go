// Package reconciliation compares venue positions with what the agent
// tracks and raises alerts for positions no loop is protecting.
package reconciliation

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/internal/events"
	"github.com/dunea/blockchain-ai-quantificat/internal/risk"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

// ExchangeClient interface for reconciliation
type ExchangeClient interface {
	ListPositions(ctx context.Context) ([]common.Position, error)
}

// Service handles periodic reconciliation
type Service struct {
	exchange ExchangeClient
	book     *risk.Book
	bus      *events.Bus
	interval time.Duration

	mu      sync.Mutex
	alerted map[string]bool // untracked symbols already reported
	last    *Report
}

// Report contains reconciliation results
type Report struct {
	Timestamp time.Time
	// Untracked are open positions on symbols without loops.
	Untracked []common.Position
	// Unprotected are tracked open positions with no initial stop yet.
	Unprotected []string
	HasDiffs    bool
}

// NewService creates a new reconciliation service
func NewService(exchange ExchangeClient, book *risk.Book, bus *events.Bus, interval time.Duration) *Service {
	return &Service{
		exchange: exchange,
		book:     book,
		bus:      bus,
		interval: interval,
		alerted:  make(map[string]bool),
	}
}

// Start begins periodic reconciliation
func (s *Service) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				report, err := s.Reconcile(ctx)
				if err != nil {
					log.Printf("reconciliation error: %v", err)
					continue
				}
				s.handleReport(report)

			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("reconciliation started (interval: %v)", s.interval)
}

// Reconcile performs reconciliation check
func (s *Service) Reconcile(ctx context.Context) (*Report, error) {
	all, err := s.exchange.ListPositions(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Timestamp: time.Now()}
	for _, p := range common.OpenPositions(all) {
		st := s.book.Get(p.Symbol)
		switch {
		case st == nil:
			report.Untracked = append(report.Untracked, p)
		case !st.HasInitialStop():
			report.Unprotected = append(report.Unprotected, p.Symbol)
		}
	}
	sort.Slice(report.Untracked, func(i, j int) bool { return report.Untracked[i].Symbol < report.Untracked[j].Symbol })
	sort.Strings(report.Unprotected)
	report.HasDiffs = len(report.Untracked) > 0 || len(report.Unprotected) > 0

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	return report, nil
}

// LastReport returns the most recent report, or nil before the first run.
func (s *Service) LastReport() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// handleReport alerts once per untracked symbol until its position goes
// away. Unprotected symbols are only logged; the entry loop seeds their
// stop on its next tick.
func (s *Service) handleReport(r *Report) {
	s.mu.Lock()
	seen := make(map[string]bool, len(r.Untracked))
	var fresh []common.Position
	for _, p := range r.Untracked {
		seen[p.Symbol] = true
		if !s.alerted[p.Symbol] {
			fresh = append(fresh, p)
		}
	}
	s.alerted = seen
	s.mu.Unlock()

	for _, p := range fresh {
		s.bus.Publish(events.EventRiskAlert, events.AlertEvent{
			Symbol:  p.Symbol,
			Kind:    "untracked_position",
			Message: fmt.Sprintf("%s %g contracts open with no risk loop", p.Side, p.Contracts),
			Time:    r.Timestamp,
		})
	}
	for _, sym := range r.Unprotected {
		log.Printf("reconciliation: %s has an open position without an initial stop", sym)
	}
}
