package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tbill-market/internal/auth"
	series "tbill-market/internal/series/domain"
)

// SeriesRepository is an in-memory series store for demo/testing.
type SeriesRepository struct {
	mu   sync.RWMutex
	data map[string]*series.Series
}

// NewSeriesRepository constructs a repository.
func NewSeriesRepository() *SeriesRepository {
	return &SeriesRepository{data: make(map[string]*series.Series)}
}

// Get loads a series by id.
func (r *SeriesRepository) Get(ctx context.Context, id string) (*series.Series, error) {
	_ = ctx
	if id == "" {
		return nil, series.ErrEmptySeriesID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.data[id]
	if s == nil {
		return nil, series.ErrSeriesNotFound
	}
	return s.Clone(), nil
}

// Create inserts a series, failing when the id is taken.
func (r *SeriesRepository) Create(ctx context.Context, s *series.Series) error {
	_ = ctx
	if s == nil {
		return series.ErrNilSeries
	}
	if s.ID == "" {
		return series.ErrEmptySeriesID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[s.ID]; exists {
		return series.ErrSeriesExists
	}
	r.data[s.ID] = s.Clone()
	return nil
}

// Update replaces an existing series.
func (r *SeriesRepository) Update(ctx context.Context, s *series.Series) error {
	_ = ctx
	if s == nil {
		return series.ErrNilSeries
	}
	if s.ID == "" {
		return series.ErrEmptySeriesID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[s.ID]; !exists {
		return series.ErrSeriesNotFound
	}
	r.data[s.ID] = s.Clone()
	return nil
}

// List returns all series ordered by id.
func (r *SeriesRepository) List(ctx context.Context) ([]*series.Series, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*series.Series, 0, len(r.data))
	for _, s := range r.data {
		result = append(result, s.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Snapshot captures the series table for unit-of-work rollback.
func (r *SeriesRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]*series.Series, len(r.data))
	for id, s := range r.data {
		snapshot[id] = s.Clone()
	}
	return snapshot
}

// Restore replaces the series table with a snapshot.
func (r *SeriesRepository) Restore(snapshot any) {
	data, ok := snapshot.(map[string]*series.Series)
	if !ok {
		return
	}
	r.mu.Lock()
	r.data = make(map[string]*series.Series, len(data))
	for id, s := range data {
		r.data[id] = s.Clone()
	}
	r.mu.Unlock()
}

type subscriptionKey struct {
	seriesID string
	holder   auth.Party
}

// SubscriptionRepository is an in-memory subscription store.
type SubscriptionRepository struct {
	mu   sync.RWMutex
	data map[subscriptionKey]int64
}

// NewSubscriptionRepository constructs a repository.
func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{data: make(map[subscriptionKey]int64)}
}

// Get returns a holder's cumulative subscribed quantity, zero when absent.
func (r *SubscriptionRepository) Get(ctx context.Context, seriesID string, holder auth.Party) (int64, error) {
	_ = ctx
	if seriesID == "" {
		return 0, series.ErrEmptySeriesID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data[subscriptionKey{seriesID: seriesID, holder: holder}], nil
}

// Set stores a holder's cumulative subscribed quantity.
func (r *SubscriptionRepository) Set(ctx context.Context, seriesID string, holder auth.Party, quantity int64, updatedAt time.Time) error {
	_ = ctx
	_ = updatedAt
	if seriesID == "" {
		return series.ErrEmptySeriesID
	}
	if quantity < 0 {
		return series.ErrInvalidAmount
	}
	r.mu.Lock()
	r.data[subscriptionKey{seriesID: seriesID, holder: holder}] = quantity
	r.mu.Unlock()
	return nil
}

// Snapshot captures the subscription table for unit-of-work rollback.
func (r *SubscriptionRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[subscriptionKey]int64, len(r.data))
	for key, quantity := range r.data {
		snapshot[key] = quantity
	}
	return snapshot
}

// Restore replaces the subscription table with a snapshot.
func (r *SubscriptionRepository) Restore(snapshot any) {
	data, ok := snapshot.(map[subscriptionKey]int64)
	if !ok {
		return
	}
	r.mu.Lock()
	r.data = make(map[subscriptionKey]int64, len(data))
	for key, quantity := range data {
		r.data[key] = quantity
	}
	r.mu.Unlock()
}
