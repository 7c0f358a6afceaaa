// Package archive persists completed deep-thinking sessions so past research
// can be browsed and searched. The transcript rows live in sqlite; stage
// content is additionally indexed for keyword search.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one archived session with its stage transcript.
type Record struct {
	SessionID   string
	Question    string
	Role        string
	StartedAt   time.Time
	CompletedAt time.Time
	Stages      []StageRecord
}

// StageRecord is one completed stage within a session, in emission order.
type StageRecord struct {
	Position int
	Name     string
	Content  string
}

// Store provides transcript persistence and search.
type Store struct {
	db    *sql.DB
	index *searchIndex
}

// Open creates or opens the archive under dir.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	// WAL mode allows readers alongside the single writer.
	dsn := filepath.Join(dir, "archive.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	// SQLite doesn't support multiple writers well.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	index, err := openSearchIndex(filepath.Join(dir, "archive.bleve"))
	if err != nil {
		db.Close()
		return nil, err
	}
	s.index = index

	return s, nil
}

// Close closes the database and the search index.
func (s *Store) Close() error {
	indexErr := s.index.Close()
	if err := s.db.Close(); err != nil {
		return err
	}
	return indexErr
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id   TEXT PRIMARY KEY,
		question     TEXT NOT NULL,
		user_role    TEXT NOT NULL,
		started_at   INTEGER NOT NULL,
		completed_at INTEGER NOT NULL,
		stage_count  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stages (
		session_id TEXT NOT NULL REFERENCES sessions(session_id),
		position   INTEGER NOT NULL,
		name       TEXT NOT NULL,
		content    TEXT NOT NULL,
		PRIMARY KEY (session_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_completed ON sessions(completed_at DESC);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return nil
}

// Record stores one completed session and indexes its stage content.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.SessionID == "" {
		return fmt.Errorf("record is missing a session id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (session_id, question, user_role, started_at, completed_at, stage_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Question, rec.Role,
		rec.StartedAt.Unix(), rec.CompletedAt.Unix(), len(rec.Stages))
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, stage := range rec.Stages {
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO stages (session_id, position, name, content) VALUES (?, ?, ?, ?)`,
			rec.SessionID, stage.Position, stage.Name, stage.Content)
		if err != nil {
			return fmt.Errorf("failed to insert stage %d: %w", stage.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}

	return s.index.indexRecord(rec)
}

// Recent returns the most recently completed sessions, newest first, with
// their stage transcripts loaded.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, question, user_role, started_at, completed_at
		 FROM sessions ORDER BY completed_at DESC, session_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var started, completed int64
		if err := rows.Scan(&rec.SessionID, &rec.Question, &rec.Role, &started, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		rec.StartedAt = time.Unix(started, 0)
		rec.CompletedAt = time.Unix(completed, 0)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	for i := range records {
		stages, err := s.loadStages(ctx, records[i].SessionID)
		if err != nil {
			return nil, err
		}
		records[i].Stages = stages
	}
	return records, nil
}

func (s *Store) loadStages(ctx context.Context, sessionID string) ([]StageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, content FROM stages WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}
	defer rows.Close()

	var stages []StageRecord
	for rows.Next() {
		var stage StageRecord
		if err := rows.Scan(&stage.Position, &stage.Name, &stage.Content); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

// Search runs a keyword search over archived stage content and returns the
// top hits.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	return s.index.search(ctx, query, limit)
}
