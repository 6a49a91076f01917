package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/threadreader/internal/types"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS comments (
		page_url TEXT NOT NULL,
		id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		author TEXT NOT NULL,
		content TEXT NOT NULL,
		date TEXT,
		reply_to_id TEXT,
		seen_at DATETIME NOT NULL,
		PRIMARY KEY (page_url, id)
	);

	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		page_url TEXT NOT NULL,
		comment_count INTEGER NOT NULL,
		link_count INTEGER NOT NULL,
		thread_count INTEGER NOT NULL,
		unread_count INTEGER NOT NULL,
		analyzed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comments_page_idx ON comments(page_url, idx);
	CREATE INDEX IF NOT EXISTS idx_runs_analyzed_at ON analysis_runs(analyzed_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value stored under key. Together with Set it makes Store
// usable as a read-state backend.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set inserts or replaces the value stored under key
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now())
	return err
}

// SaveComments upserts the comments seen on a page in one transaction
func (s *Store) SaveComments(pageURL string, comments []types.Comment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO comments (page_url, id, idx, author, content, date, reply_to_id, seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(page_url, id) DO UPDATE SET
			idx = excluded.idx,
			author = excluded.author,
			content = excluded.content,
			date = excluded.date,
			reply_to_id = excluded.reply_to_id,
			seen_at = excluded.seen_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range comments {
		if _, err := stmt.Exec(pageURL, c.ID, c.Index, c.Author, c.Content, c.Date, c.ReplyToID, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetComments returns the stored comments of a page ordered by index
func (s *Store) GetComments(pageURL string) ([]types.Comment, error) {
	rows, err := s.db.Query(`
		SELECT id, idx, author, content, date, reply_to_id
		FROM comments
		WHERE page_url = ?
		ORDER BY idx ASC
	`, pageURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []types.Comment
	for rows.Next() {
		var c types.Comment
		var date, replyTo sql.NullString
		if err := rows.Scan(&c.ID, &c.Index, &c.Author, &c.Content, &date, &replyTo); err != nil {
			return nil, err
		}
		c.Date = date.String
		c.ReplyToID = replyTo.String
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// RecordRun stores a summary of one analysis. A missing ID or timestamp is
// filled in.
func (s *Store) RecordRun(run *AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.AnalyzedAt.IsZero() {
		run.AnalyzedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO analysis_runs (id, page_url, comment_count, link_count, thread_count, unread_count, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.PageURL, run.CommentCount, run.LinkCount, run.ThreadCount, run.UnreadCount, run.AnalyzedAt)

	return err
}

// ListRuns returns the most recent analysis runs, newest first
func (s *Store) ListRuns(limit int) ([]AnalysisRun, error) {
	rows, err := s.db.Query(`
		SELECT id, page_url, comment_count, link_count, thread_count, unread_count, analyzed_at
		FROM analysis_runs
		ORDER BY analyzed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		var r AnalysisRun
		if err := rows.Scan(&r.ID, &r.PageURL, &r.CommentCount, &r.LinkCount,
			&r.ThreadCount, &r.UnreadCount, &r.AnalyzedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
