package db

import "fmt"

// The journal is append-only audit data. Nothing here is read back into
// risk state on start.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    side TEXT NOT NULL,
    qty REAL NOT NULL,
    reduce_only INTEGER NOT NULL DEFAULT 0,
    purpose TEXT NOT NULL,
    exchange_order_id TEXT DEFAULT '',
    status TEXT NOT NULL,
    error TEXT DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS signals (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol TEXT NOT NULL,
    signal TEXT NOT NULL,
    confidence TEXT NOT NULL,
    trend TEXT NOT NULL,
    reason TEXT DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS stop_recommendations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol TEXT NOT NULL,
    direction TEXT NOT NULL,
    entry_price REAL DEFAULT 0,
    stop_loss REAL NOT NULL,
    take_profit REAL DEFAULT 0,
    confidence TEXT DEFAULT '',
    reason TEXT DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS exits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol TEXT NOT NULL,
    side TEXT NOT NULL,
    contracts REAL NOT NULL,
    reason TEXT NOT NULL,
    pnl REAL NOT NULL,
    pnl_ratio REAL NOT NULL,
    peak_pnl REAL NOT NULL,
    max_pnl_ratio REAL NOT NULL,
    mark_price REAL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol, created_at);
CREATE INDEX IF NOT EXISTS idx_exits_symbol ON exits(symbol, created_at);
`

// Insert statements used by the async journal writer.
const (
	InsertOrderSQL = `INSERT OR REPLACE INTO orders
		(id, symbol, side, qty, reduce_only, purpose, exchange_order_id, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	InsertSignalSQL = `INSERT INTO signals
		(symbol, signal, confidence, trend, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	InsertStopSQL = `INSERT INTO stop_recommendations
		(symbol, direction, entry_price, stop_loss, take_profit, confidence, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	InsertExitSQL = `INSERT INTO exits
		(symbol, side, contracts, reason, pnl, pnl_ratio, peak_pnl, max_pnl_ratio, mark_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// ApplyMigrations creates the journal tables if missing.
func ApplyMigrations(d *Database) error {
	if d == nil || d.DB == nil {
		return fmt.Errorf("database is not initialized")
	}
	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
