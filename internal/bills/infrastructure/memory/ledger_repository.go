package memory

import (
	"context"
	"sort"
	"sync"

	"tbill-market/internal/auth"
	bills "tbill-market/internal/bills/domain"
)

type balanceKey struct {
	seriesID string
	holder   auth.Party
}

// BalanceRepository is an in-memory balance table for demo/testing. Zero
// balances are removed, matching the no-stored-zero rule.
type BalanceRepository struct {
	mu       sync.RWMutex
	balances map[balanceKey]int64
}

// NewBalanceRepository constructs a repository.
func NewBalanceRepository() *BalanceRepository {
	return &BalanceRepository{balances: make(map[balanceKey]int64)}
}

// Get returns a holder's balance, zero when absent.
func (r *BalanceRepository) Get(ctx context.Context, seriesID string, holder auth.Party) (int64, error) {
	_ = ctx
	if seriesID == "" {
		return 0, bills.ErrEmptySeriesID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[balanceKey{seriesID: seriesID, holder: holder}], nil
}

// Set stores a balance, deleting the record when it reaches zero.
func (r *BalanceRepository) Set(ctx context.Context, seriesID string, holder auth.Party, amount int64) error {
	_ = ctx
	if seriesID == "" {
		return bills.ErrEmptySeriesID
	}
	if amount < 0 {
		return bills.ErrInvalidAmount
	}
	key := balanceKey{seriesID: seriesID, holder: holder}
	r.mu.Lock()
	defer r.mu.Unlock()
	if amount == 0 {
		delete(r.balances, key)
		return nil
	}
	r.balances[key] = amount
	return nil
}

// TotalForSeries sums all balances held against a series.
func (r *BalanceRepository) TotalForSeries(ctx context.Context, seriesID string) (int64, error) {
	_ = ctx
	if seriesID == "" {
		return 0, bills.ErrEmptySeriesID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for key, balance := range r.balances {
		if key.seriesID == seriesID {
			total += balance
		}
	}
	return total, nil
}

// Snapshot captures the balance table for unit-of-work rollback.
func (r *BalanceRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[balanceKey]int64, len(r.balances))
	for key, balance := range r.balances {
		snapshot[key] = balance
	}
	return snapshot
}

// Restore replaces the balance table with a snapshot.
func (r *BalanceRepository) Restore(snapshot any) {
	balances, ok := snapshot.(map[balanceKey]int64)
	if !ok {
		return
	}
	r.mu.Lock()
	r.balances = make(map[balanceKey]int64, len(balances))
	for key, balance := range balances {
		r.balances[key] = balance
	}
	r.mu.Unlock()
}

// OperatorRepository is an in-memory mint/burn permission set.
type OperatorRepository struct {
	mu        sync.RWMutex
	operators map[auth.Party]struct{}
}

// NewOperatorRepository constructs a repository.
func NewOperatorRepository() *OperatorRepository {
	return &OperatorRepository{operators: make(map[auth.Party]struct{})}
}

// Add inserts an operator; adding twice is a no-op.
func (r *OperatorRepository) Add(ctx context.Context, operator auth.Party) error {
	_ = ctx
	if !operator.Valid() {
		return bills.ErrInvalidParty
	}
	r.mu.Lock()
	r.operators[operator] = struct{}{}
	r.mu.Unlock()
	return nil
}

// Remove deletes an operator; removing an absent one is a no-op.
func (r *OperatorRepository) Remove(ctx context.Context, operator auth.Party) error {
	_ = ctx
	if !operator.Valid() {
		return bills.ErrInvalidParty
	}
	r.mu.Lock()
	delete(r.operators, operator)
	r.mu.Unlock()
	return nil
}

// IsOperator reports membership.
func (r *OperatorRepository) IsOperator(ctx context.Context, operator auth.Party) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.operators[operator]
	return ok, nil
}

// List returns the operators in stable order.
func (r *OperatorRepository) List(ctx context.Context) ([]auth.Party, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]auth.Party, 0, len(r.operators))
	for operator := range r.operators {
		result = append(result, operator)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

// Snapshot captures the operator set for unit-of-work rollback.
func (r *OperatorRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[auth.Party]struct{}, len(r.operators))
	for operator := range r.operators {
		snapshot[operator] = struct{}{}
	}
	return snapshot
}

// Restore replaces the operator set with a snapshot.
func (r *OperatorRepository) Restore(snapshot any) {
	operators, ok := snapshot.(map[auth.Party]struct{})
	if !ok {
		return
	}
	r.mu.Lock()
	r.operators = make(map[auth.Party]struct{}, len(operators))
	for operator := range operators {
		r.operators[operator] = struct{}{}
	}
	r.mu.Unlock()
}
