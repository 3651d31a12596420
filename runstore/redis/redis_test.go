package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/pathanalyze/mcp-client-go/runstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		DB:   3, // separate DB for run store tests
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { client.FlushDB(context.Background()) })

	s, err := New(Config{Client: client, KeyPrefix: "test:runs:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestRedisStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGet", func(t *testing.T) {
		run := runstore.NewRun("/slides/a.svs", "segment tissue")
		if err := s.Create(ctx, run); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := s.Create(ctx, run); err == nil {
			t.Fatal("duplicate create must fail")
		}

		got, err := s.Get(ctx, run.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Task != "segment tissue" || got.Status != runstore.StatusPending {
			t.Fatalf("unexpected run: %+v", got)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, runstore.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		run := runstore.NewRun("/slides/b.svs", "task")
		if err := s.Create(ctx, run); err != nil {
			t.Fatalf("Create: %v", err)
		}

		updated, err := s.UpdateStatus(ctx, run.ID, runstore.StatusRunning, "")
		if err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if updated.Status != runstore.StatusRunning {
			t.Fatalf("unexpected status %s", updated.Status)
		}
		if !updated.UpdatedAt.After(run.UpdatedAt) {
			t.Fatal("UpdatedAt not advanced")
		}

		if _, err := s.UpdateStatus(ctx, run.ID, runstore.StatusPending, ""); !errors.Is(err, runstore.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		runs, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(runs) < 2 {
			t.Fatalf("expected at least 2 runs, got %d", len(runs))
		}
		for i := 1; i < len(runs); i++ {
			if runs[i].CreatedAt.After(runs[i-1].CreatedAt) {
				t.Fatal("runs not sorted newest first")
			}
		}
	})
}
