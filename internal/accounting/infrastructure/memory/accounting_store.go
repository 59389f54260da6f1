package memory

import (
	"context"
	"sync"

	accounting "tbill-market/internal/accounting/domain"
)

// AccountingStore is an in-memory aggregate record for demo/testing.
type AccountingStore struct {
	mu     sync.RWMutex
	record accounting.ProtocolAccounting
}

// NewAccountingStore constructs a store.
func NewAccountingStore() *AccountingStore {
	return &AccountingStore{}
}

// Get returns a copy of the aggregate record.
func (s *AccountingStore) Get(ctx context.Context) (*accounting.ProtocolAccounting, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone(), nil
}

// Save replaces the aggregate record.
func (s *AccountingStore) Save(ctx context.Context, record *accounting.ProtocolAccounting) error {
	_ = ctx
	if record == nil {
		return accounting.ErrNilRecord
	}
	s.mu.Lock()
	s.record = *record
	s.mu.Unlock()
	return nil
}

// Snapshot captures the record for unit-of-work rollback.
func (s *AccountingStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Restore replaces the record with a snapshot.
func (s *AccountingStore) Restore(snapshot any) {
	record, ok := snapshot.(accounting.ProtocolAccounting)
	if !ok {
		return
	}
	s.mu.Lock()
	s.record = record
	s.mu.Unlock()
}
