// Package runstore defines the store for analysis runs. The orchestration
// layer owns a Store instance explicitly; nothing in this module shares
// process-wide state.
package runstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates no run exists with the given id.
	ErrNotFound = errors.New("run not found")
	// ErrInvalidTransition indicates a status update that the run lifecycle
	// does not permit.
	ErrInvalidTransition = errors.New("invalid run status transition")
)

// Status is the lifecycle state of an analysis run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ValidTransition reports whether a run may move from one status to another.
// Completed and failed are terminal.
func ValidTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusFailed
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Run is one analysis run against a slide.
type Run struct {
	ID        string    `json:"id"`
	SlidePath string    `json:"slide_path"`
	Task      string    `json:"task"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRun builds a pending run with a fresh id.
func NewRun(slidePath, task string) Run {
	now := time.Now().UTC()
	return Run{
		ID:        uuid.NewString(),
		SlidePath: slidePath,
		Task:      task,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store persists runs. Implementations must be safe for concurrent use.
type Store interface {
	// Create stores a new run.
	Create(ctx context.Context, run Run) error

	// Get retrieves a run by id. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (Run, error)

	// UpdateStatus moves a run to a new status with an optional message.
	// Returns ErrInvalidTransition if the run lifecycle forbids the move.
	UpdateStatus(ctx context.Context, id string, status Status, message string) (Run, error)

	// List returns all known runs, newest first.
	List(ctx context.Context) ([]Run, error)

	// Close releases any resources held by the store.
	Close() error
}
