// Package accounting holds the protocol-wide aggregate ledger: cumulative
// cash flows updated transactionally alongside the operations that cause
// them, never independently mutated.
package accounting

import (
	"context"
	"errors"
	"time"

	"tbill-market/internal/fixedpoint"
)

var (
	// ErrInvalidAmount is returned for non-positive or overflowing amounts.
	ErrInvalidAmount = errors.New("accounting: invalid amount")
	// ErrNilRecord is returned when persisting a nil record.
	ErrNilRecord = errors.New("accounting: nil record")
)

// ProtocolAccounting is the single aggregate record of protocol cash flows.
type ProtocolAccounting struct {
	TotalCashCollected   int64
	TotalLiabilityMinted int64
	TotalLent            int64
	TotalRepoRevenue     int64
	TotalDefaults        int64
	UpdatedAt            time.Time
}

// Clone returns a deep copy.
func (a *ProtocolAccounting) Clone() *ProtocolAccounting {
	if a == nil {
		return nil
	}
	copied := *a
	return &copied
}

// Profit is (cash collected + repo revenue) - liability minted. It may go
// negative: early-stage liability can exceed collected cash before
// maturity, which is an unrealized deficit rather than an error.
func (a *ProtocolAccounting) Profit() (int64, error) {
	income, err := fixedpoint.Add(a.TotalCashCollected, a.TotalRepoRevenue)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	profit, err := fixedpoint.Sub(income, a.TotalLiabilityMinted)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return profit, nil
}

// AvailableForLending is (cash collected + repo revenue) - lent, floored
// at zero.
func (a *ProtocolAccounting) AvailableForLending() (int64, error) {
	income, err := fixedpoint.Add(a.TotalCashCollected, a.TotalRepoRevenue)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	available, err := fixedpoint.Sub(income, a.TotalLent)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if available < 0 {
		return 0, nil
	}
	return available, nil
}

// Store persists the aggregate record. Get returns a zero record when
// nothing has been saved yet.
type Store interface {
	Get(ctx context.Context) (*ProtocolAccounting, error)
	Save(ctx context.Context, record *ProtocolAccounting) error
}
