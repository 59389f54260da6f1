package uow

import (
	"context"
	"log"
	"sync"

	"tbill-market/internal/eventing"
)

// Snapshotter is implemented by in-memory stores that can capture and
// restore their full state.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// MemoryRunner serializes units of work with a single mutex and rolls
// registered stores back to their pre-unit snapshots on failure.
type MemoryRunner struct {
	mu        sync.Mutex
	stores    []Snapshotter
	publisher Publisher
	logger    *log.Logger
}

// NewMemoryRunner constructs a memory runner over the given stores.
func NewMemoryRunner(publisher Publisher, logger *log.Logger, stores ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{stores: stores, publisher: publisher, logger: logger}
}

// Register adds a store to the rollback set.
func (r *MemoryRunner) Register(store Snapshotter) {
	if r == nil || store == nil {
		return
	}
	r.mu.Lock()
	r.stores = append(r.stores, store)
	r.mu.Unlock()
}

// Do runs fn atomically. Nested calls join the outer unit.
func (r *MemoryRunner) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if InFlight(ctx) {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshots := make([]any, len(r.stores))
	for i, store := range r.stores {
		snapshots[i] = store.Snapshot()
	}

	buf := &eventing.Buffer{}
	unitCtx := markInFlight(eventing.WithBuffer(ctx, buf))

	if err := fn(unitCtx); err != nil {
		for i, store := range r.stores {
			store.Restore(snapshots[i])
		}
		return err
	}

	publishBuffered(ctx, r.publisher, buf, r.logger)
	return nil
}
