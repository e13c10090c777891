// Package sqlite stores documents in a single SQLite database file.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. For the booking
// app it is an alternative to the plain JSON files: every document write is a
// single statement, so it is atomic and durable without any rename tricks.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code. No C compiler needed, works everywhere Go works.
//
// The body column holds exactly the same JSON text the file backend would
// write, so switching BOOKING_STORE between "file" and "sqlite" changes only
// where the bytes live.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// The blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/train-booking/internal/storage"
)

// compile-time check that *DB implements storage.Backend
var _ storage.Backend = (*DB)(nil)

// DB wraps a sql.DB connection pool.
type DB struct {
	conn *sql.DB
}

// New opens the database and runs migrations.
//
// dbPath examples:
//   - "data/booking.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
//
// sql.Open() does NOT actually open a connection; it just creates a pool manager.
// We call Ping() to force an immediate connection and verify it works.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: ":memory:" databases are per-connection, and the
	// engine is a single writer anyway.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode lets readers see the last committed
	// document while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the documents table. CREATE TABLE IF NOT EXISTS is safe
// to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			name       TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// Document returns the row named name.
func (db *DB) Document(name string) storage.Document {
	return &Document{db: db, name: name}
}

// Document is one row of the documents table.
type Document struct {
	db   *DB
	name string
}

func (d *Document) Name() string { return d.name }

func (d *Document) Read(ctx context.Context) ([]byte, error) {
	var body string
	err := d.db.conn.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE name = ?`, d.name,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotExist
		}
		return nil, fmt.Errorf("sqlite: reading document %s: %w", d.name, err)
	}
	return []byte(body), nil
}

// Write replaces the document in one INSERT ... ON CONFLICT statement, which
// SQLite applies atomically.
func (d *Document) Write(ctx context.Context, data []byte) error {
	_, err := d.db.conn.ExecContext(ctx,
		`INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		d.name, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing document %s: %w", d.name, err)
	}
	return nil
}
