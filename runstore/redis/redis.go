// Package redis provides a redis-backed run store so runs survive a single
// orchestrator process and can be inspected across replicas.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pathanalyze/mcp-client-go/runstore"
)

// Config contains configuration options for the redis run store.
type Config struct {
	// Client is the redis client instance.
	Client *redis.Client

	// KeyPrefix is the prefix for all redis keys.
	// Default: "pathanalyze:runs:"
	KeyPrefix string
}

// Store implements runstore.Store on redis. Runs are stored as JSON values
// under prefixed keys.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// New creates a redis-backed run store and verifies connectivity.
func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "pathanalyze:runs:"
	}
	if err := cfg.Client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: cfg.Client, keyPrefix: cfg.KeyPrefix}, nil
}

func (s *Store) key(id string) string { return s.keyPrefix + id }

func (s *Store) Create(ctx context.Context, run runstore.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(run.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("store run %s: %w", run.ID, err)
	}
	if !ok {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (runstore.Run, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return runstore.Run{}, runstore.ErrNotFound
		}
		return runstore.Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	var run runstore.Run
	if err := json.Unmarshal([]byte(val), &run); err != nil {
		return runstore.Run{}, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	return run, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status runstore.Status, message string) (runstore.Run, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return runstore.Run{}, err
	}
	if !runstore.ValidTransition(run.Status, status) {
		return runstore.Run{}, fmt.Errorf("%w: %s -> %s", runstore.ErrInvalidTransition, run.Status, status)
	}
	run.Status = status
	run.Message = message
	run.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(run)
	if err != nil {
		return runstore.Run{}, fmt.Errorf("marshal run: %w", err)
	}
	// Updates must land even when the caller is tearing down after a failure.
	c := context.WithoutCancel(ctx)
	if err := s.client.Set(c, s.key(id), data, 0).Err(); err != nil {
		return runstore.Run{}, fmt.Errorf("update run %s: %w", id, err)
	}
	return run, nil
}

func (s *Store) List(ctx context.Context) ([]runstore.Run, error) {
	var runs []runstore.Run
	var cursor uint64
	for {
		keys, cur, err := s.client.Scan(ctx, cursor, s.keyPrefix+"*", 50).Result()
		if err != nil {
			return nil, fmt.Errorf("scan runs: %w", err)
		}
		for _, key := range keys {
			val, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				return nil, fmt.Errorf("get %s: %w", key, err)
			}
			var run runstore.Run
			if err := json.Unmarshal([]byte(val), &run); err != nil {
				continue
			}
			runs = append(runs, run)
		}
		if cur == 0 {
			break
		}
		cursor = cur
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

// Close closes the underlying redis client.
func (s *Store) Close() error { return s.client.Close() }

var _ runstore.Store = (*Store)(nil)
