// Package store persists crawl history in SQLite so past collection runs
// can be reviewed from the CLI.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// dbFileName is the SQLite file created under the store directory.
const dbFileName = "crawls.db"

// CrawlRecord is one row of crawl history.
type CrawlRecord struct {
	ID                int64
	StartedAt         time.Time
	Keywords          []string
	Engine            string
	URLsFound         int
	Kept              int
	RejectedFilter    int
	RejectedDuplicate int
	Failed            int
}

// CrawlStore wraps a SQLite database holding one row per crawl.
type CrawlStore struct {
	db *sql.DB
}

// Open opens or creates the crawl store under dir.
func Open(dir string) (*CrawlStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName)+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite supports a single writer; more connections only add lock
	// contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS crawls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	keywords TEXT NOT NULL,
	engine TEXT NOT NULL,
	urls_found INTEGER NOT NULL DEFAULT 0,
	kept INTEGER NOT NULL DEFAULT 0,
	rejected_filter INTEGER NOT NULL DEFAULT 0,
	rejected_duplicate INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0
)`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &CrawlStore{db: db}, nil
}

// Record inserts one crawl-history row.
func (s *CrawlStore) Record(ctx context.Context, rec CrawlRecord) error {
	startedAt := rec.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO crawls (started_at, keywords, engine, urls_found, kept, rejected_filter, rejected_duplicate, failed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		startedAt.UTC().Format(time.RFC3339),
		strings.Join(rec.Keywords, ","),
		rec.Engine,
		rec.URLsFound,
		rec.Kept,
		rec.RejectedFilter,
		rec.RejectedDuplicate,
		rec.Failed,
	)
	if err != nil {
		return fmt.Errorf("store: insert crawl: %w", err)
	}
	return nil
}

// Recent returns up to limit crawl records, newest first.
func (s *CrawlStore) Recent(ctx context.Context, limit int) ([]CrawlRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, keywords, engine, urls_found, kept, rejected_filter, rejected_duplicate, failed
FROM crawls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query crawls: %w", err)
	}
	defer rows.Close()

	var records []CrawlRecord
	for rows.Next() {
		var rec CrawlRecord
		var startedAt, keywords string
		if err := rows.Scan(&rec.ID, &startedAt, &keywords, &rec.Engine,
			&rec.URLsFound, &rec.Kept, &rec.RejectedFilter, &rec.RejectedDuplicate, &rec.Failed); err != nil {
			return nil, fmt.Errorf("store: scan crawl row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			rec.StartedAt = t
		}
		if keywords != "" {
			rec.Keywords = strings.Split(keywords, ",")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate crawl rows: %w", err)
	}
	return records, nil
}

// Close closes the underlying database.
func (s *CrawlStore) Close() error {
	return s.db.Close()
}
