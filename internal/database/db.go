package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the SQLite file at path and verifies the connection.
// A read-only handle may be shared by any number of concurrent readers; a
// writable handle is limited to a single connection since SQLite allows one
// writer at a time.
func Open(path string, readOnly bool) (*sql.DB, error) {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	if readOnly {
		q.Set("mode", "ro")
	} else {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	dsn := "file:" + path + "?" + q.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Pool settings
	if readOnly {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	} else {
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return db, nil
}

// TableExists reports whether a table with the given name exists. SQLite
// identifiers are case-insensitive, so the comparison is too.
func TableExists(ctx context.Context, q Querier, name string) (bool, error) {
	const stmt = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE`
	var n int
	if err := q.QueryRowContext(ctx, stmt, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// IndexNames returns the names of all indexes defined on table.
func IndexNames(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	const stmt = `SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? COLLATE NOCASE ORDER BY name`
	rows, err := db.QueryContext(ctx, stmt, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
