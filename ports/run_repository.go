package ports

import (
	"context"

	"martisim/domain/core"
	"martisim/domain/run"
)

// RunRepository keeps track of submitted runs and their reports
type RunRepository interface {
	// Create registers a new run in the pending state
	Create(ctx context.Context, record *run.Record) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id core.RunID) (*run.Record, error)

	// Update replaces the stored state of a run
	Update(ctx context.Context, record *run.Record) error

	// List returns the most recent runs first, optionally limited
	List(ctx context.Context, limit int) ([]*run.Record, error)
}
