package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/dunea/blockchain-ai-quantificat/pkg/db"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(":memory:")
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalWritesAreVisibleAfterFlush(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	j.RecordOrder(db.OrderRecord{ID: "o1", Symbol: "BTC/USDT:USDT", Side: "buy", Qty: 1, Purpose: "open", Status: "NEW"})
	j.RecordExit(db.ExitRecord{Symbol: "BTC/USDT:USDT", Side: "long", Contracts: 1, Reason: "hard_stop", Pnl: -40, PnlRatio: -0.2})
	j.RecordSignal(db.SignalRecord{Symbol: "BTC/USDT:USDT", Signal: "hold", Confidence: "low", Trend: "sideways"})
	j.RecordStop(db.StopRecord{Symbol: "BTC/USDT:USDT", Direction: "long", StopLoss: 48000})

	orders, err := j.Orders(ctx, "BTC/USDT:USDT", 10)
	if err != nil || len(orders) != 1 || orders[0].ID != "o1" {
		t.Fatalf("orders: %+v %v", orders, err)
	}
	if orders[0].CreatedAt.IsZero() {
		t.Fatalf("created_at should be stamped")
	}
	exits, err := j.Exits(ctx, "", 10)
	if err != nil || len(exits) != 1 || exits[0].Reason != "hard_stop" {
		t.Fatalf("exits: %+v %v", exits, err)
	}
	signals, err := j.Signals(ctx, "", 10)
	if err != nil || len(signals) != 1 {
		t.Fatalf("signals: %+v %v", signals, err)
	}

	m := j.Metrics()
	if m.TotalWrites != 4 || m.TotalErrors != 0 || m.Pending != 0 {
		t.Fatalf("metrics: %+v", m)
	}
}

func TestNilJournalIsNoop(t *testing.T) {
	var j *Journal
	j.RecordOrder(db.OrderRecord{ID: "x"})
	j.RecordExit(db.ExitRecord{})
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestBatchWriterFlushesInBackground(t *testing.T) {
	database, err := db.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatal(err)
	}

	bw := NewBatchWriter(database.DB, 2, 10*time.Millisecond)
	defer bw.Close()
	bw.WriteQuery(db.InsertSignalSQL, "ETH/USDT:USDT", "sell", "medium", "falling", "", time.Now().UTC())

	var n int
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if err := database.DB.QueryRow(`SELECT COUNT(*) FROM signals`).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		if n == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("writer never flushed, count=%d", n)
}

func TestBatchWriterDropsAfterClose(t *testing.T) {
	database, _ := db.New(":memory:")
	defer database.Close()
	db.ApplyMigrations(database)

	bw := NewBatchWriter(database.DB, 10, time.Hour)
	bw.Close()
	bw.WriteQuery(db.InsertSignalSQL, "x", "hold", "low", "sideways", "", time.Now())
	if bw.Pending() != 0 {
		t.Fatalf("writes after close must be dropped")
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
