package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	database, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return database
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	database := newTestDB(t)
	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("second migration run failed: %v", err)
	}
}

func TestOrdersRoundTrip(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	records := []OrderRecord{
		{ID: "a", Symbol: "BTC/USDT:USDT", Side: "buy", Qty: 1, Purpose: "open", Status: "NEW", CreatedAt: now.Add(-time.Minute)},
		{ID: "b", Symbol: "BTC/USDT:USDT", Side: "sell", Qty: 1, ReduceOnly: true, Purpose: "close", Status: "NEW", CreatedAt: now},
		{ID: "c", Symbol: "ETH/USDT:USDT", Side: "sell", Qty: 3, Purpose: "open", Status: "REJECTED", Error: "margin", CreatedAt: now},
	}
	for _, r := range records {
		if _, err := database.DB.Exec(InsertOrderSQL, r.Args()...); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	btc, err := database.ListOrders(ctx, "BTC/USDT:USDT", 10)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(btc) != 2 || btc[0].ID != "b" || !btc[0].ReduceOnly {
		t.Fatalf("unexpected BTC orders: %+v", btc)
	}

	all, err := database.ListOrders(ctx, "", 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("all orders: %d %v", len(all), err)
	}
}

func TestExitsAndSignals(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	exit := ExitRecord{Symbol: "BTC/USDT:USDT", Side: "long", Contracts: 2, Reason: "tier1_trailing",
		Pnl: 60, PnlRatio: 0.3, PeakPnl: 80, MaxPnlRatio: 0.4, MarkPrice: 50100, CreatedAt: now}
	if _, err := database.DB.Exec(InsertExitSQL, exit.Args()...); err != nil {
		t.Fatalf("insert exit: %v", err)
	}
	sig := SignalRecord{Symbol: "BTC/USDT:USDT", Signal: "buy", Confidence: "high", Trend: "rising", CreatedAt: now}
	if _, err := database.DB.Exec(InsertSignalSQL, sig.Args()...); err != nil {
		t.Fatalf("insert signal: %v", err)
	}
	stop := StopRecord{Symbol: "BTC/USDT:USDT", Direction: "long", StopLoss: 48000, CreatedAt: now}
	if _, err := database.DB.Exec(InsertStopSQL, stop.Args()...); err != nil {
		t.Fatalf("insert stop: %v", err)
	}

	exits, err := database.ListExits(ctx, "BTC/USDT:USDT", 5)
	if err != nil || len(exits) != 1 {
		t.Fatalf("ListExits: %v %v", exits, err)
	}
	if exits[0].Reason != "tier1_trailing" || exits[0].PeakPnl != 80 {
		t.Fatalf("unexpected exit: %+v", exits[0])
	}
	signals, err := database.ListSignals(ctx, "", 5)
	if err != nil || len(signals) != 1 || signals[0].Signal != "buy" {
		t.Fatalf("ListSignals: %v %v", signals, err)
	}
}

func TestNewCreatesJournalDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "journal.db")
	database, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("journal file not created: %v", err)
	}
	var mode string
	if err := database.DB.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
	var n int
	if err := database.DB.QueryRow("SELECT COUNT(*) FROM orders").Scan(&n); err != nil {
		t.Fatalf("schema not applied: %v", err)
	}
}

func TestNewRejectsBlankPath(t *testing.T) {
	if _, err := New("  "); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
}

func TestNewMemoryJournalHasSchema(t *testing.T) {
	database, err := New(MemoryPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer database.Close()
	if _, err := database.DB.Exec("INSERT INTO signals (symbol, signal, confidence, trend) VALUES ('BTC/USDT:USDT','buy','high','up')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
}
