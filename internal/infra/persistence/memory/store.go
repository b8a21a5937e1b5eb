// Package memory provides an in-process Backend used for tests and ephemeral
// runs. Saved graphs live only as long as the Store value.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"housingcore/internal/infra/persistence"
	"housingcore/pkg/domain"
)

var _ domain.Backend = (*Store)(nil)

// Store keeps the last saved graph in memory.
type Store struct {
	mu     sync.RWMutex
	graph  domain.Graph
	saves  int
	logger *slog.Logger
}

// NewStore returns a Store seeded with initial. Pass a zero Graph to start empty.
func NewStore(initial domain.Graph, logger *slog.Logger) *Store {
	return &Store{graph: initial.Clone(), logger: logger}
}

// Load returns a resolved copy of the stored graph and seeds seq.
func (s *Store) Load(ctx context.Context, seq *domain.Sequencer) (domain.Graph, error) {
	if err := ctx.Err(); err != nil {
		return domain.Graph{}, domain.NewPersistence("load", err)
	}
	s.mu.RLock()
	raw := s.graph.Clone()
	s.mu.RUnlock()
	return persistence.Resolve(ctx, raw, seq, s.logger), nil
}

// Save replaces the stored graph with a copy of g.
func (s *Store) Save(ctx context.Context, g domain.Graph) error {
	if err := ctx.Err(); err != nil {
		return domain.NewPersistence("save", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = g.Clone()
	s.saves++
	return nil
}

// Snapshot returns a copy of the stored graph without resolving it.
func (s *Store) Snapshot() domain.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Clone()
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
