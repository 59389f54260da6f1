// Package repomarket holds the repo market's domain model: collateralized
// cash loan positions with haircut and spread terms in basis points.
package repomarket

import (
	"context"
	"time"

	"tbill-market/internal/auth"
)

// Status is the position lifecycle state.
type Status string

const (
	// StatusOpen is a live loan with collateral in custody.
	StatusOpen Status = "open"
	// StatusClosed is a repaid loan with collateral returned.
	StatusClosed Status = "closed"
	// StatusDefaulted is a loan whose collateral was claimed after the
	// deadline passed.
	StatusDefaulted Status = "defaulted"
)

// Position is one collateralized cash loan. Collateral sits in the repo
// market's custody balance while the position is open.
type Position struct {
	ID               uint64
	Borrower         auth.Party
	SeriesID         string
	CollateralPar    int64
	CashDisbursed    int64
	RepurchaseAmount int64
	OpenedAt         time.Time
	Deadline         time.Time
	Status           Status
	UpdatedAt        time.Time
}

// Clone returns a deep copy.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

// Repository stores positions and hands out sequential ids.
type Repository interface {
	Get(ctx context.Context, id uint64) (*Position, error)
	Create(ctx context.Context, p *Position) error
	Update(ctx context.Context, p *Position) error
	NextID(ctx context.Context) (uint64, error)
	ListByBorrower(ctx context.Context, borrower auth.Party) ([]*Position, error)
}
