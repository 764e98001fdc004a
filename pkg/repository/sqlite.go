package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bankrag/bankrag/pkg/model"
	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists chunks in a local database file and ranks them by brute force cosine similarity
type SQLite struct {
	mu  sync.RWMutex
	db  *sql.DB
	dir string
}

// NewSQLite opens (or creates) dir/vectors.db
func NewSQLite(dir string) (*SQLite, error) {
	if dir == "" {
		return nil, goerr.New("data directory is required")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dir))
	}

	path := filepath.Join(dir, "vectors.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}

	s := &SQLite{db: db, dir: dir}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// OpenSQLite opens an existing store and fails when nothing was ingested yet
func OpenSQLite(dir string) (*SQLite, error) {
	if _, err := os.Stat(filepath.Join(dir, "vectors.db")); err != nil {
		return nil, goerr.Wrap(err, "knowledge base not found, run ingest first", goerr.V("dir", dir))
	}
	return NewSQLite(dir)
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		category TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
	CREATE INDEX IF NOT EXISTS idx_chunks_category ON chunks(category);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return goerr.Wrap(err, "failed to initialize schema")
	}
	return nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) PutChunks(ctx context.Context, chunks []*model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, source, category, chunk_index, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare statement")
	}
	defer stmt.Close()

	for _, c := range chunks {
		embedding, err := json.Marshal([]float32(c.Embedding))
		if err != nil {
			return goerr.Wrap(err, "failed to encode embedding", goerr.V("id", c.ID))
		}

		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		if _, err := stmt.ExecContext(ctx,
			string(c.ID),
			c.Source,
			string(c.Category),
			c.Index,
			c.Content,
			embedding,
			createdAt.UTC(),
		); err != nil {
			return goerr.Wrap(err, "failed to insert chunk", goerr.V("id", c.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func (s *SQLite) SearchChunks(ctx context.Context, embedding []float32, limit int, category model.Category) ([]*model.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, source, category, content, embedding FROM chunks`
	var args []any
	if category.IsSet() {
		query += ` WHERE category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY source, chunk_index`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query chunks")
	}
	defer rows.Close()

	logger := logging.From(ctx)
	var fragments []*model.Fragment
	for rows.Next() {
		var (
			id, source, cat, content string
			raw                      []byte
			vector                   []float32
		)
		if err := rows.Scan(&id, &source, &cat, &content, &raw); err != nil {
			return nil, goerr.Wrap(err, "failed to scan row")
		}

		if err := json.Unmarshal(raw, &vector); err != nil {
			logger.Warn("skip chunk with broken embedding", "id", id, "error", err)
			continue
		}

		fragments = append(fragments, &model.Fragment{
			Text:     content,
			Category: model.Category(cat),
			Source:   source,
			Score:    cosineSimilarity(embedding, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate rows")
	}

	return topK(fragments, limit), nil
}

func (s *SQLite) DeleteSource(ctx context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source); err != nil {
		return goerr.Wrap(err, "failed to delete chunks", goerr.V("source", source))
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return goerr.Wrap(err, "failed to clear chunks")
	}
	return nil
}

// Count returns the number of stored chunks per category
func (s *SQLite) Count(ctx context.Context) (map[model.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM chunks GROUP BY category`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count chunks")
	}
	defer rows.Close()

	counts := make(map[model.Category]int)
	for rows.Next() {
		var (
			cat string
			n   int
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, goerr.Wrap(err, "failed to scan row")
		}
		counts[model.Category(cat)] = n
	}
	return counts, rows.Err()
}
