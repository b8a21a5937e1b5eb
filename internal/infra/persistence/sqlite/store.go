// Package sqlite persists the entity graph to a single SQLite table, one JSON
// payload per collection bucket.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"housingcore/internal/infra/persistence"
	"housingcore/pkg/domain"
)

var _ domain.Backend = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "housing.db"

// Store is a snapshotting SQLite Backend.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path, logger: logger}, nil
}

// Load decodes every bucket, resolves references and seeds seq.
func (s *Store) Load(ctx context.Context, seq *domain.Sequencer) (domain.Graph, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return domain.Graph{}, domain.NewPersistence("select state", err)
	}
	defer func() { _ = rows.Close() }()
	var raw domain.Graph
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return domain.Graph{}, domain.NewPersistence("scan state", err)
		}
		if err := persistence.DecodeBucket(&raw, bucket, payload); err != nil {
			return domain.Graph{}, domain.NewPersistence("load "+bucket, err)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Graph{}, domain.NewPersistence("iterate state", err)
	}
	return persistence.Resolve(ctx, raw, seq, s.logger), nil
}

// Save upserts every bucket inside one database transaction.
func (s *Store) Save(ctx context.Context, g domain.Graph) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewPersistence("begin", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range persistence.Buckets {
		data, err := persistence.EncodeBucket(g, bucket)
		if err != nil {
			return domain.NewPersistence("encode "+bucket, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			return domain.NewPersistence("upsert "+bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.NewPersistence("commit", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
