package memory

import (
	"context"
	"sort"
	"sync"

	"martisim/domain/core"
	"martisim/domain/run"
	apperrors "martisim/internal/errors"
	"martisim/ports"
)

// DefaultRunCapacity is how many runs are kept before finished ones are evicted
const DefaultRunCapacity = 64

// RunRepositoryImpl implements ports.RunRepository in process memory.
// Records are cloned on the way in and out, so callers never share state
// with the store.
type RunRepositoryImpl struct {
	mu       sync.RWMutex
	records  map[core.RunID]*run.Record
	capacity int
}

// NewRunRepository creates an in-memory run repository. When full, the
// oldest finished run is evicted; unfinished runs are never evicted, so a
// store full of them rejects new runs.
func NewRunRepository(capacity int) ports.RunRepository {
	if capacity <= 0 {
		capacity = DefaultRunCapacity
	}
	return &RunRepositoryImpl{
		records:  make(map[core.RunID]*run.Record),
		capacity: capacity,
	}
}

// Create registers a new run
func (r *RunRepositoryImpl) Create(ctx context.Context, record *run.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.ID]; exists {
		return apperrors.InvalidInput("duplicate run id " + record.ID.String())
	}
	if len(r.records) >= r.capacity {
		r.evictOldestFinished()
	}
	if len(r.records) >= r.capacity {
		return core.NewRunCapacityError(r.capacity)
	}
	r.records[record.ID] = record.Clone()
	return nil
}

// Get retrieves a run by ID
func (r *RunRepositoryImpl) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, core.NewRunNotFoundError(id.String())
	}
	return rec.Clone(), nil
}

// Update replaces the stored state of an existing run
func (r *RunRepositoryImpl) Update(ctx context.Context, record *run.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; !ok {
		return core.NewRunNotFoundError(record.ID.String())
	}
	r.records[record.ID] = record.Clone()
	return nil
}

// List returns the most recent runs first
func (r *RunRepositoryImpl) List(ctx context.Context, limit int) ([]*run.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*run.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RunRepositoryImpl) evictOldestFinished() {
	var oldest *run.Record
	for _, rec := range r.records {
		if !rec.Done() {
			continue
		}
		if oldest == nil || rec.StartedAt.Before(oldest.StartedAt) {
			oldest = rec
		}
	}
	if oldest != nil {
		delete(r.records, oldest.ID)
	}
}
