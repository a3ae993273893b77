package persistence

import (
	"database/sql"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// WriteOp is one queued statement.
type WriteOp struct {
	Query string
	Args  []any
}

// BatchWriter queues journal inserts and commits them in one transaction,
// either when maxSize ops are pending or every interval. Trading loops never
// wait on sqlite.
type BatchWriter struct {
	db       *sql.DB
	flushMu  sync.Mutex // serializes commits so Flush returns after prior batches land
	mu       sync.Mutex
	buffer   []WriteOp
	maxSize  int
	interval time.Duration
	flushCh  chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	closed   atomic.Bool

	totalWrites  atomic.Uint64
	totalBatches atomic.Uint64
	totalErrors  atomic.Uint64
	lastBatch    atomic.Int64
	lastFlush    atomic.Int64 // unix nano
}

// BatchWriterMetrics is a snapshot for the status API.
type BatchWriterMetrics struct {
	TotalWrites   uint64    `json:"total_writes"`
	TotalBatches  uint64    `json:"total_batches"`
	TotalErrors   uint64    `json:"total_errors"`
	LastBatchSize int       `json:"last_batch_size"`
	LastFlushTime time.Time `json:"last_flush_time"`
	Pending       int       `json:"pending"`
}

// NewBatchWriter starts the background flusher.
func NewBatchWriter(db *sql.DB, maxSize int, interval time.Duration) *BatchWriter {
	if maxSize <= 0 {
		maxSize = 50
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	bw := &BatchWriter{
		db:       db,
		buffer:   make([]WriteOp, 0, maxSize),
		maxSize:  maxSize,
		interval: interval,
		flushCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	bw.wg.Add(1)
	go bw.loop()
	return bw
}

// Write queues op. A full buffer wakes the flusher instead of flushing on
// the caller's goroutine.
func (bw *BatchWriter) Write(op WriteOp) {
	if bw.closed.Load() {
		return
	}
	bw.mu.Lock()
	bw.buffer = append(bw.buffer, op)
	full := len(bw.buffer) >= bw.maxSize
	bw.mu.Unlock()

	if full {
		select {
		case bw.flushCh <- struct{}{}:
		default:
		}
	}
}

// WriteQuery is a convenience method for simple queries.
func (bw *BatchWriter) WriteQuery(query string, args ...any) {
	bw.Write(WriteOp{Query: query, Args: args})
}

// Flush writes everything queued so far.
func (bw *BatchWriter) Flush() error {
	bw.flushMu.Lock()
	defer bw.flushMu.Unlock()

	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return nil
	}
	ops := bw.buffer
	bw.buffer = make([]WriteOp, 0, bw.maxSize)
	bw.mu.Unlock()

	return bw.commit(ops)
}

func (bw *BatchWriter) commit(ops []WriteOp) error {
	bw.totalWrites.Add(uint64(len(ops)))
	bw.totalBatches.Add(1)
	bw.lastBatch.Store(int64(len(ops)))
	bw.lastFlush.Store(time.Now().UnixNano())

	tx, err := bw.db.Begin()
	if err != nil {
		bw.totalErrors.Add(1)
		return err
	}
	for _, op := range ops {
		if _, err := tx.Exec(op.Query, op.Args...); err != nil {
			tx.Rollback()
			bw.totalErrors.Add(1)
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		bw.totalErrors.Add(1)
		return err
	}
	return nil
}

func (bw *BatchWriter) loop() {
	defer bw.wg.Done()
	ticker := time.NewTicker(bw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-bw.flushCh:
		case <-bw.done:
			if err := bw.Flush(); err != nil {
				log.Printf("journal: final flush failed: %v", err)
			}
			return
		}
		if err := bw.Flush(); err != nil {
			log.Printf("journal: flush failed, batch dropped: %v", err)
		}
	}
}

// Pending returns the number of queued ops.
func (bw *BatchWriter) Pending() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}

// Metrics returns a snapshot of writer counters.
func (bw *BatchWriter) Metrics() BatchWriterMetrics {
	m := BatchWriterMetrics{
		TotalWrites:   bw.totalWrites.Load(),
		TotalBatches:  bw.totalBatches.Load(),
		TotalErrors:   bw.totalErrors.Load(),
		LastBatchSize: int(bw.lastBatch.Load()),
		Pending:       bw.Pending(),
	}
	if ns := bw.lastFlush.Load(); ns > 0 {
		m.LastFlushTime = time.Unix(0, ns)
	}
	return m
}

// Close flushes and stops the writer. Later writes are dropped.
func (bw *BatchWriter) Close() error {
	if bw.closed.Swap(true) {
		return nil
	}
	close(bw.done)
	bw.wg.Wait()
	return nil
}
