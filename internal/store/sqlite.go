package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hyperifyio/sitesum/internal/crawl"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS crawls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    start_url TEXT NOT NULL,
    max_pages INTEGER NOT NULL,
    started_at TIMESTAMP NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    visited INTEGER NOT NULL DEFAULT 0,
    error TEXT
);

CREATE TABLE IF NOT EXISTS pages (
    crawl_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    url TEXT NOT NULL,
    title TEXT NOT NULL,
    summary TEXT NOT NULL,
    PRIMARY KEY (crawl_id, position),
    FOREIGN KEY (crawl_id) REFERENCES crawls(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
`

// CrawlRecord is one row of crawl history.
type CrawlRecord struct {
	ID        int64
	StartURL  string
	MaxPages  int
	StartedAt time.Time
	Duration  time.Duration
	Visited   int
	Pages     int
	Error     string
}

// History keeps every crawl and its results in SQLite, unlike JSONFile
// which only holds the latest run.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the database at path and applies the schema.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// One writer at a time keeps SQLite happy under concurrent web requests.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Record stores a finished crawl and its pages in one transaction.
func (h *History) Record(ctx context.Context, req crawl.Request, startedAt time.Time, out crawl.Outcome) (int64, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var errText sql.NullString
	if out.Err != nil {
		errText = sql.NullString{String: out.Err.Error(), Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO crawls (start_url, max_pages, started_at, duration_ms, visited, error) VALUES (?, ?, ?, ?, ?, ?)`,
		req.StartURL, req.MaxPages, startedAt.UTC(), out.Duration.Milliseconds(), out.Visited, errText)
	if err != nil {
		return 0, fmt.Errorf("insert crawl: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("crawl id: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO pages (crawl_id, position, url, title, summary) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare page insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range out.Results.Entries() {
		if _, err := stmt.ExecContext(ctx, id, i, e.URL, e.Page.Title, e.Page.Summary); err != nil {
			return 0, fmt.Errorf("insert page %s: %w", e.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Recent lists the newest crawls first.
func (h *History) Recent(ctx context.Context, limit int) ([]CrawlRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
        SELECT c.id, c.start_url, c.max_pages, c.started_at, c.duration_ms, c.visited,
               COALESCE(c.error, ''), (SELECT COUNT(*) FROM pages p WHERE p.crawl_id = c.id)
        FROM crawls c
        ORDER BY c.id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query crawls: %w", err)
	}
	defer rows.Close()
	var out []CrawlRecord
	for rows.Next() {
		var r CrawlRecord
		var ms int64
		if err := rows.Scan(&r.ID, &r.StartURL, &r.MaxPages, &r.StartedAt, &ms, &r.Visited, &r.Error, &r.Pages); err != nil {
			return nil, fmt.Errorf("scan crawl: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// ErrCrawlNotFound is returned by Pages for an unknown crawl id.
var ErrCrawlNotFound = errors.New("crawl not found")

// Pages returns the results of one crawl in their original order.
func (h *History) Pages(ctx context.Context, crawlID int64) (*crawl.Results, error) {
	var exists int
	if err := h.db.QueryRowContext(ctx, `SELECT 1 FROM crawls WHERE id = ?`, crawlID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCrawlNotFound
		}
		return nil, fmt.Errorf("lookup crawl: %w", err)
	}
	rows, err := h.db.QueryContext(ctx, `SELECT url, title, summary FROM pages WHERE crawl_id = ? ORDER BY position`, crawlID)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()
	out := crawl.NewResults()
	for rows.Next() {
		var u string
		var p crawl.PageResult
		if err := rows.Scan(&u, &p.Title, &p.Summary); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out.Set(u, p)
	}
	return out, rows.Err()
}
