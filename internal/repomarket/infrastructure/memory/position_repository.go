package memory

import (
	"context"
	"sort"
	"sync"

	"tbill-market/internal/auth"
	repomarket "tbill-market/internal/repomarket/domain"
)

// PositionRepository is an in-memory position store for demo/testing.
type PositionRepository struct {
	mu     sync.RWMutex
	data   map[uint64]*repomarket.Position
	nextID uint64
}

// NewPositionRepository constructs a repository.
func NewPositionRepository() *PositionRepository {
	return &PositionRepository{data: make(map[uint64]*repomarket.Position)}
}

// Get loads a position by id.
func (r *PositionRepository) Get(ctx context.Context, id uint64) (*repomarket.Position, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := r.data[id]
	if p == nil {
		return nil, repomarket.ErrPositionNotFound
	}
	return p.Clone(), nil
}

// Create inserts a position.
func (r *PositionRepository) Create(ctx context.Context, p *repomarket.Position) error {
	_ = ctx
	if p == nil {
		return repomarket.ErrNilPosition
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p.Clone()
	return nil
}

// Update replaces an existing position.
func (r *PositionRepository) Update(ctx context.Context, p *repomarket.Position) error {
	_ = ctx
	if p == nil {
		return repomarket.ErrNilPosition
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[p.ID]; !exists {
		return repomarket.ErrPositionNotFound
	}
	r.data[p.ID] = p.Clone()
	return nil
}

// NextID hands out the next sequential position id, starting at 1.
func (r *PositionRepository) NextID(ctx context.Context) (uint64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return r.nextID, nil
}

// ListByBorrower returns a borrower's positions ordered by id.
func (r *PositionRepository) ListByBorrower(ctx context.Context, borrower auth.Party) ([]*repomarket.Position, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*repomarket.Position
	for _, p := range r.data {
		if p.Borrower == borrower {
			result = append(result, p.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type snapshot struct {
	data   map[uint64]*repomarket.Position
	nextID uint64
}

// Snapshot captures the position table for unit-of-work rollback.
func (r *PositionRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data := make(map[uint64]*repomarket.Position, len(r.data))
	for id, p := range r.data {
		data[id] = p.Clone()
	}
	return snapshot{data: data, nextID: r.nextID}
}

// Restore replaces the position table with a snapshot.
func (r *PositionRepository) Restore(state any) {
	s, ok := state.(snapshot)
	if !ok {
		return
	}
	r.mu.Lock()
	r.data = make(map[uint64]*repomarket.Position, len(s.data))
	for id, p := range s.data {
		r.data[id] = p.Clone()
	}
	r.nextID = s.nextID
	r.mu.Unlock()
}
