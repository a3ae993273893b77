// Package db stores the audit journal in SQLite.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// MemoryPath opens a private in-process journal that vanishes on Close.
const MemoryPath = ":memory:"

// ErrEmptyPath is returned by New for a blank JOURNAL_PATH. Callers treat
// a blank path as "journal disabled" and never reach New with it.
var ErrEmptyPath = errors.New("journal path is empty")

// Applied to file journals only; the API reads while the batch writer writes.
var filePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// Database is an opened journal with its schema in place.
type Database struct {
	DB   *sql.DB
	Path string
}

// New opens the journal at path, creating the parent directory of a file
// path, and applies the schema.
func New(path string) (*Database, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyPath
	}

	dsn, err := dsnFor(path)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// Single writer; also keeps ":memory:" a single database.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	d := &Database{DB: conn, Path: path}
	if err := ApplyMigrations(d); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

func dsnFor(path string) (string, error) {
	if path == MemoryPath {
		return path, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create journal directory: %w", err)
		}
	}
	q := make([]string, 0, len(filePragmas))
	for _, p := range filePragmas {
		q = append(q, "_pragma="+p)
	}
	return "file:" + path + "?" + strings.Join(q, "&"), nil
}

// Close releases the underlying DB handle.
func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
