package memory

import (
	"context"
	"sync"

	"tbill-market/internal/auth"
	"tbill-market/internal/fixedpoint"
	"tbill-market/internal/payments"
)

// Rail is an in-memory settlement-currency ledger.
type Rail struct {
	mu       sync.RWMutex
	balances map[auth.Party]int64
}

// NewRail constructs a rail with empty balances.
func NewRail() *Rail {
	return &Rail{balances: make(map[auth.Party]int64)}
}

// Deposit credits a party, used to seed balances in wiring and tests.
func (r *Rail) Deposit(party auth.Party, amount int64) {
	if amount <= 0 {
		return
	}
	r.mu.Lock()
	r.balances[party] += amount
	r.mu.Unlock()
}

// BalanceOf returns a party's cash balance.
func (r *Rail) BalanceOf(party auth.Party) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[party]
}

// Transfer moves cash between parties.
func (r *Rail) Transfer(ctx context.Context, from, to auth.Party, amount int64) error {
	_ = ctx
	if amount <= 0 {
		return payments.ErrInvalidAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.balances[from] < amount {
		return payments.ErrInsufficientFunds
	}
	credited, err := fixedpoint.Add(r.balances[to], amount)
	if err != nil {
		return payments.ErrInvalidAmount
	}
	r.balances[from] -= amount
	r.balances[to] = credited
	return nil
}

// Snapshot captures the balance table for unit-of-work rollback.
func (r *Rail) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[auth.Party]int64, len(r.balances))
	for party, balance := range r.balances {
		snapshot[party] = balance
	}
	return snapshot
}

// Restore replaces the balance table with a snapshot.
func (r *Rail) Restore(snapshot any) {
	balances, ok := snapshot.(map[auth.Party]int64)
	if !ok {
		return
	}
	r.mu.Lock()
	r.balances = make(map[auth.Party]int64, len(balances))
	for party, balance := range balances {
		r.balances[party] = balance
	}
	r.mu.Unlock()
}
