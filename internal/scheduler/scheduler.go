// Package scheduler runs the per-symbol loops: one goroutine per job, each
// tick strictly after the previous one.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/internal/events"
	"github.com/dunea/blockchain-ai-quantificat/internal/monitor"
	"github.com/dunea/blockchain-ai-quantificat/pkg/i18n"
)

// Job is one periodic loop.
type Job struct {
	Name     string
	Symbol   string
	Loop     monitor.TickLoop
	Interval time.Duration
	Run      func(ctx context.Context, tl *TickLog) error
}

// Scheduler owns the job goroutines.
type Scheduler struct {
	Bus     *events.Bus
	Metrics *monitor.SystemMetrics

	jobs []Job
	wg   sync.WaitGroup
}

func New(bus *events.Bus, metrics *monitor.SystemMetrics) *Scheduler {
	return &Scheduler{Bus: bus, Metrics: metrics}
}

// Add registers a job. Jobs added after Start are not run.
func (s *Scheduler) Add(j Job) {
	s.jobs = append(s.jobs, j)
}

// Jobs returns the registered jobs.
func (s *Scheduler) Jobs() []Job {
	return append([]Job(nil), s.jobs...)
}

// Start launches every job. Each runs a tick right away, then sleeps its
// interval, until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		j := j
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, j)
		}()
	}
}

// Wait blocks until every job has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	log.Printf(i18n.Get("JobStarted"), j.Name, j.Interval)
	defer log.Printf(i18n.Get("JobStopped"), j.Name)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		s.tick(ctx, j)
		timer.Reset(j.Interval)
	}
}

// tick runs one iteration. Errors and panics end the tick, never the loop.
func (s *Scheduler) tick(ctx context.Context, j Job) {
	tl := NewTickLog(j.Name)
	defer tl.Flush()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				tl.Printf(i18n.Get("JobPanic"), j.Name, r)
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return j.Run(ctx, tl)
	}()
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		return
	}
	tl.Printf(i18n.Get("TickFailed"), j.Symbol, j.Loop, err)
	monitor.ObserveTickError(j.Symbol, j.Loop)
	if s.Metrics != nil {
		s.Metrics.IncrementErrors()
	}
	s.Bus.Publish(events.EventTickFailed, events.TickErrorEvent{
		Symbol: j.Symbol,
		Loop:   string(j.Loop),
		Error:  err.Error(),
		Time:   time.Now(),
	})
}
