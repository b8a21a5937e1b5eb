// Package postgres provides a Postgres-backed snapshot Backend storing one
// JSONB payload per collection bucket.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"housingcore/internal/infra/persistence"
	"housingcore/pkg/domain"
)

var _ domain.Backend = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when no DSN is configured.
	DefaultDSN = "postgres://localhost/housing?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists the graph to Postgres.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// NewStore opens a Postgres-backed store using dsn (falls back to DefaultDSN),
// pings the server and ensures the snapshot table exists.
func NewStore(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
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

// Save upserts every bucket in a single transaction.
func (s *Store) Save(ctx context.Context, g domain.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewPersistence("begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range persistence.Buckets {
		data, err := persistence.EncodeBucket(g, bucket)
		if err != nil {
			return domain.NewPersistence("encode "+bucket, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return domain.NewPersistence("upsert "+bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.NewPersistence("commit", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
