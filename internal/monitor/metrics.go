package monitor

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SystemMetrics tracks in-process counters for the status API.
type SystemMetrics struct {
	// Latency histograms
	GatewayLatency *LatencyHistogram
	SignalLatency  *LatencyHistogram
	OrderLatency   *LatencyHistogram

	// Counters
	entryTicks      atomic.Uint64
	riskTicks       atomic.Uint64
	ordersSubmitted atomic.Uint64
	ordersRejected  atomic.Uint64
	signals         atomic.Uint64
	exits           atomic.Uint64
	errorsCount     atomic.Uint64

	startedAt time.Time
}

// LatencyHistogram keeps the last maxSize samples in a ring and computes
// stats lazily.
type LatencyHistogram struct {
	mu          sync.Mutex
	samples     []float64
	next        int
	maxSize     int
	dirty       bool
	cachedStats LatencyStats
}

// NewSystemMetrics creates a new metrics instance.
func NewSystemMetrics() *SystemMetrics {
	return &SystemMetrics{
		GatewayLatency: NewLatencyHistogram(1000),
		SignalLatency:  NewLatencyHistogram(200),
		OrderLatency:   NewLatencyHistogram(500),
		startedAt:      time.Now(),
	}
}

// NewLatencyHistogram creates a sliding window histogram.
func NewLatencyHistogram(size int) *LatencyHistogram {
	if size <= 0 {
		size = 1000
	}
	return &LatencyHistogram{
		samples: make([]float64, 0, size),
		maxSize: size,
		dirty:   true,
	}
}

// Record adds a latency sample in milliseconds.
func (h *LatencyHistogram) Record(latencyMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) < h.maxSize {
		h.samples = append(h.samples, latencyMs)
	} else {
		h.samples[h.next] = latencyMs
	}
	h.next = (h.next + 1) % h.maxSize
	h.dirty = true
}

// RecordDuration converts duration to ms and records.
func (h *LatencyHistogram) RecordDuration(d time.Duration) {
	h.Record(float64(d.Nanoseconds()) / 1e6)
}

// Stats returns min, max, avg, p50, p95, p99.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.dirty && h.cachedStats.Count > 0 {
		return h.cachedStats
	}

	n := len(h.samples)
	if n == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, h.samples)
	sort.Float64s(sorted)

	var sum float64
	min, max := sorted[0], sorted[n-1]
	for _, v := range sorted {
		sum += v
	}

	h.cachedStats = LatencyStats{
		Min:   min,
		Max:   max,
		Avg:   sum / float64(n),
		P50:   sorted[n/2],
		P95:   sorted[int(float64(n)*0.95)],
		P99:   sorted[int(float64(n)*0.99)],
		Count: n,
	}
	h.dirty = false

	return h.cachedStats
}

// LatencyStats holds computed latency statistics.
type LatencyStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Count int     `json:"count"`
}

// TickLoop names the two per-symbol loops.
type TickLoop string

const (
	LoopEntry TickLoop = "entry"
	LoopRisk  TickLoop = "risk"
)

// IncrementTicks counts a completed tick of loop.
func (m *SystemMetrics) IncrementTicks(loop TickLoop) {
	if loop == LoopEntry {
		m.entryTicks.Add(1)
		return
	}
	m.riskTicks.Add(1)
}

// IncrementOrders counts a submitted or rejected order.
func (m *SystemMetrics) IncrementOrders(rejected bool) {
	if rejected {
		m.ordersRejected.Add(1)
		return
	}
	m.ordersSubmitted.Add(1)
}

// IncrementSignals counts a signal received from the signal source.
func (m *SystemMetrics) IncrementSignals() { m.signals.Add(1) }

// IncrementExits counts an exit decision that led to a close order.
func (m *SystemMetrics) IncrementExits() { m.exits.Add(1) }

// IncrementErrors counts a failed tick.
func (m *SystemMetrics) IncrementErrors() { m.errorsCount.Add(1) }

// MetricsSnapshot is a point-in-time view of SystemMetrics.
type MetricsSnapshot struct {
	GatewayLatency  LatencyStats `json:"gateway_latency"`
	SignalLatency   LatencyStats `json:"signal_latency"`
	OrderLatency    LatencyStats `json:"order_latency"`
	EntryTicks      uint64       `json:"entry_ticks"`
	RiskTicks       uint64       `json:"risk_ticks"`
	OrdersSubmitted uint64       `json:"orders_submitted"`
	OrdersRejected  uint64       `json:"orders_rejected"`
	Signals         uint64       `json:"signals"`
	Exits           uint64       `json:"exits"`
	ErrorsCount     uint64       `json:"errors_count"`
	GoroutineCount  int          `json:"goroutine_count"`
	HeapAlloc       uint64       `json:"heap_alloc_bytes"`
	Uptime          string       `json:"uptime"`
	Timestamp       time.Time    `json:"timestamp"`
}

// GetSnapshot returns a point-in-time metrics snapshot.
func (m *SystemMetrics) GetSnapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return MetricsSnapshot{
		GatewayLatency:  m.GatewayLatency.Stats(),
		SignalLatency:   m.SignalLatency.Stats(),
		OrderLatency:    m.OrderLatency.Stats(),
		EntryTicks:      m.entryTicks.Load(),
		RiskTicks:       m.riskTicks.Load(),
		OrdersSubmitted: m.ordersSubmitted.Load(),
		OrdersRejected:  m.ordersRejected.Load(),
		Signals:         m.signals.Load(),
		Exits:           m.exits.Load(),
		ErrorsCount:     m.errorsCount.Load(),
		GoroutineCount:  runtime.NumGoroutine(),
		HeapAlloc:       memStats.HeapAlloc,
		Uptime:          time.Since(m.startedAt).Round(time.Second).String(),
		Timestamp:       time.Now(),
	}
}

// Timer helps measure operation duration.
type Timer struct {
	start     time.Time
	histogram *LatencyHistogram
}

// NewTimer creates a timer that records to the given histogram.
func NewTimer(h *LatencyHistogram) *Timer {
	return &Timer{
		start:     time.Now(),
		histogram: h,
	}
}

// Stop records elapsed time to histogram.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if t.histogram != nil {
		t.histogram.RecordDuration(elapsed)
	}
	return elapsed
}
