package retriever

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/WildfireRanch/relayctx/internal/errors"
)

// SQLite retrieves documents from a SQLite FTS5 table using bm25() relevance.
// WAL mode allows concurrent readers across processes, so this backend suits
// tiers that are re-ingested while queries are in flight.
type SQLite struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// NewSQLite opens or creates an FTS5-backed index at path. An empty path
// creates an in-memory database.
func NewSQLite(path string) (*SQLite, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.IOError("create index directory", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.New(errors.ErrCodeIndexFailed, "open sqlite index", err).
			WithDetail("path", path)
	}

	// Single writer avoids lock contention; WAL must be set via PRAGMA for
	// modernc.org/sqlite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.New(errors.ErrCodeIndexFailed, "set sqlite pragma", err)
		}
	}

	schema := `
	CREATE VIRTUAL TABLE IF NOT EXISTS fts_docs USING fts5(
		path UNINDEXED,
		content,
		tokenize='unicode61'
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.New(errors.ErrCodeIndexFailed, "init fts5 schema", err)
	}

	return &SQLite{db: db, path: path}, nil
}

// Index adds or replaces a document keyed by path.
func (s *SQLite) Index(ctx context.Context, path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.InternalError("sqlite retriever is closed", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fts_docs WHERE path = ?`, path); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete previous document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO fts_docs (path, content) VALUES (?, ?)`, path, content); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert document: %w", err)
	}
	return tx.Commit()
}

// Search implements Retriever. FTS5 bm25() returns negative values where
// lower is better; scores are negated so higher means more relevant.
func (s *SQLite) Search(ctx context.Context, query string, k int) ([]ScoredDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.InternalError("sqlite retriever is closed", nil)
	}
	if k <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, content, bm25(fts_docs) AS score
		FROM fts_docs
		WHERE content MATCH ?
		ORDER BY score
		LIMIT ?`, match, k)
	if err != nil {
		// FTS5 rejects some token sequences outright; treat as no results.
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return nil, nil
		}
		return nil, fmt.Errorf("fts5 search failed: %w", err)
	}
	defer rows.Close()

	var docs []ScoredDoc
	for rows.Next() {
		var d ScoredDoc
		if err := rows.Scan(&d.Path, &d.Snippet, &d.RawScore); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		d.RawScore = -d.RawScore
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// buildMatchQuery turns free text into an OR-joined FTS5 match expression.
// Quoting each term keeps FTS5 operators in user queries inert.
func buildMatchQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"`)
		if f == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, "")+`"`)
	}
	return strings.Join(terms, " OR ")
}

// DocCount returns the number of indexed documents.
func (s *SQLite) DocCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errors.InternalError("sqlite retriever is closed", nil)
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fts_docs`).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
