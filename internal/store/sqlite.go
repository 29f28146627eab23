package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/blockreg-labs/blockreg/internal/content"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS records (
		id           TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		position     INTEGER NOT NULL,
		data         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_content_type ON records (content_type, position)`,
}

// SQLite stores records as JSON rows in a single table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" is accepted.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One connection keeps an in-memory database alive and serializes writes.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

// ListRecords returns the records of contentType in seed order.
func (s *SQLite) ListRecords(ctx context.Context, contentType string) ([]content.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM records WHERE content_type = ? ORDER BY position`, contentType)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", contentType, err)
	}
	defer func() { _ = rows.Close() }()

	var out []content.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", contentType, err)
		}
		var rec content.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decoding %s record: %w", contentType, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Seed replaces the records of contentType in one transaction.
func (s *SQLite) Seed(ctx context.Context, contentType string, records []content.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE content_type = ?`, contentType); err != nil {
		return fmt.Errorf("clearing %s: %w", contentType, err)
	}
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding %s record %d: %w", contentType, i, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (id, content_type, position, data) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), contentType, i, string(data)); err != nil {
			return fmt.Errorf("inserting %s record %d: %w", contentType, i, err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
