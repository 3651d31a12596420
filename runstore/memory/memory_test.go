package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/pathanalyze/mcp-client-go/runstore"
)

func TestCreateAndGet(t *testing.T) {
	s, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	run := runstore.NewRun("/slides/a.svs", "count tumor cells")
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
	if got.SlidePath != "/slides/a.svs" || got.Status != runstore.StatusPending {
		t.Fatalf("unexpected run: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	s, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, runstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	s, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	run := runstore.NewRun("/slides/a.svs", "task")
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

	if _, err := s.UpdateStatus(ctx, run.ID, runstore.StatusPending, ""); !errors.Is(err, runstore.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	final, err := s.UpdateStatus(ctx, run.ID, runstore.StatusFailed, "mcp timeout")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if final.Message != "mcp timeout" {
		t.Fatalf("message not recorded: %+v", final)
	}

	// Terminal states reject further transitions.
	if _, err := s.UpdateStatus(ctx, run.ID, runstore.StatusRunning, ""); !errors.Is(err, runstore.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from terminal state, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Create(ctx, runstore.NewRun("/slides/x.svs", "task")); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	runs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].CreatedAt.After(runs[i-1].CreatedAt) {
			t.Fatal("runs not sorted newest first")
		}
	}
}

func TestEvictionBound(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	first := runstore.NewRun("/a", "t")
	for _, run := range []runstore.Run{first, runstore.NewRun("/b", "t"), runstore.NewRun("/c", "t")} {
		if err := s.Create(ctx, run); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if _, err := s.Get(ctx, first.ID); !errors.Is(err, runstore.ErrNotFound) {
		t.Fatalf("expected oldest run evicted, got %v", err)
	}
	runs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected bound of 2 runs, got %d", len(runs))
	}
}
