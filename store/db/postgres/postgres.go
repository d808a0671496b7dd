// Package postgres implements the store contracts on PostgreSQL.
package postgres

import (
	"database/sql"
	"fmt"

	// Postgres driver.
	_ "github.com/lib/pq"
)

// DB wraps the SQL connection used by the store implementations.
type DB struct {
	db *sql.DB
}

// NewDB opens a connection for the given DSN.
func NewDB(dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// placeholder returns the positional placeholder for the given index.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
