// Package memory provides an in-memory run store backed by an LRU cache so
// a long-lived process retains a bounded number of finished runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pathanalyze/mcp-client-go/runstore"
)

// Store implements runstore.Store in process memory.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, runstore.Run]
}

// New creates a store retaining at most maxRuns runs. Once the bound is hit,
// the least recently touched run is evicted.
func New(maxRuns int) (*Store, error) {
	cache, err := lru.New[string, runstore.Run](maxRuns)
	if err != nil {
		return nil, fmt.Errorf("create run cache: %w", err)
	}
	return &Store{cache: cache}, nil
}

func (s *Store) Create(ctx context.Context, run runstore.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cache.Get(run.ID); exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	s.cache.Add(run.ID, run)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (runstore.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.cache.Get(id)
	if !ok {
		return runstore.Run{}, runstore.ErrNotFound
	}
	return run, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status runstore.Status, message string) (runstore.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.cache.Get(id)
	if !ok {
		return runstore.Run{}, runstore.ErrNotFound
	}
	if !runstore.ValidTransition(run.Status, status) {
		return runstore.Run{}, fmt.Errorf("%w: %s -> %s", runstore.ErrInvalidTransition, run.Status, status)
	}
	run.Status = status
	run.Message = message
	run.UpdatedAt = time.Now().UTC()
	s.cache.Add(id, run)
	return run, nil
}

func (s *Store) List(ctx context.Context) ([]runstore.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := make([]runstore.Run, 0, s.cache.Len())
	for _, id := range s.cache.Keys() {
		if run, ok := s.cache.Peek(id); ok {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	return nil
}

var _ runstore.Store = (*Store)(nil)
