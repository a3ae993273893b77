package persistence

import (
	"context"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/pkg/db"
)

// Journal records orders, signals, stop recommendations and exits for
// audit. It is write-behind and never feeds risk state.
type Journal struct {
	database *db.Database
	writer   *BatchWriter
	now      func() time.Time
}

// NewJournal opens the journal at path; db.New creates the schema.
func NewJournal(path string) (*Journal, error) {
	database, err := db.New(path)
	if err != nil {
		return nil, err
	}
	return &Journal{
		database: database,
		writer:   NewBatchWriter(database.DB, 50, time.Second),
		now:      time.Now,
	}, nil
}

func (j *Journal) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return j.now()
	}
	return t
}

// RecordOrder queues an order row. A nil Journal is a no-op so callers can
// run without one.
func (j *Journal) RecordOrder(o db.OrderRecord) {
	if j == nil {
		return
	}
	o.CreatedAt = j.stamp(o.CreatedAt)
	j.writer.WriteQuery(db.InsertOrderSQL, o.Args()...)
}

// RecordSignal queues a signal row.
func (j *Journal) RecordSignal(s db.SignalRecord) {
	if j == nil {
		return
	}
	s.CreatedAt = j.stamp(s.CreatedAt)
	j.writer.WriteQuery(db.InsertSignalSQL, s.Args()...)
}

// RecordStop queues a stop recommendation row.
func (j *Journal) RecordStop(s db.StopRecord) {
	if j == nil {
		return
	}
	s.CreatedAt = j.stamp(s.CreatedAt)
	j.writer.WriteQuery(db.InsertStopSQL, s.Args()...)
}

// RecordExit queues an exit decision row.
func (j *Journal) RecordExit(e db.ExitRecord) {
	if j == nil {
		return
	}
	e.CreatedAt = j.stamp(e.CreatedAt)
	j.writer.WriteQuery(db.InsertExitSQL, e.Args()...)
}

// Orders lists recent orders.
func (j *Journal) Orders(ctx context.Context, symbol string, limit int) ([]db.OrderRecord, error) {
	if err := j.writer.Flush(); err != nil {
		return nil, err
	}
	return j.database.ListOrders(ctx, symbol, limit)
}

// Exits lists recent exits.
func (j *Journal) Exits(ctx context.Context, symbol string, limit int) ([]db.ExitRecord, error) {
	if err := j.writer.Flush(); err != nil {
		return nil, err
	}
	return j.database.ListExits(ctx, symbol, limit)
}

// Signals lists recent signals.
func (j *Journal) Signals(ctx context.Context, symbol string, limit int) ([]db.SignalRecord, error) {
	if err := j.writer.Flush(); err != nil {
		return nil, err
	}
	return j.database.ListSignals(ctx, symbol, limit)
}

// Metrics returns the write-behind counters.
func (j *Journal) Metrics() BatchWriterMetrics {
	return j.writer.Metrics()
}

// Close flushes pending rows and closes the database.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.writer.Close()
	return j.database.Close()
}
