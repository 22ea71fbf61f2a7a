package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=transactions sslmode=disable"
func NewDB(connectionString string) (*DB, error) {
	connector, err := pq.NewConnector(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	db := sql.OpenDB(connector)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// EnsureSchema creates the transactions table and its indexes if they do not exist
func (db *DB) EnsureSchema(ctx context.Context, table string) error {
	quoted := pq.QuoteIdentifier(table)
	statements := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id                      TEXT PRIMARY KEY,
			bank                    TEXT NOT NULL,
			account_id              TEXT NOT NULL,
			transaction_datetime    TIMESTAMPTZ NOT NULL,
			transaction_datetime_ns INTEGER NOT NULL DEFAULT 0,
			amount                  NUMERIC NOT NULL,
			currency                CHAR(3) NOT NULL,
			conversion_from         CHAR(3),
			conversion_to           CHAR(3),
			conversion_rate         NUMERIC,
			short_name              TEXT NOT NULL,
			tags                    JSONB NOT NULL
		)`, quoted),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (bank, account_id)`,
			pq.QuoteIdentifier(table+"_bank_account_idx"), quoted),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (transaction_datetime DESC)`,
			pq.QuoteIdentifier(table+"_datetime_idx"), quoted),
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema for %s: %w", table, err)
		}
	}

	return nil
}
