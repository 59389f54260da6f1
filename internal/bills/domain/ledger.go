// Package bills holds the bill ledger's domain model: per-series fungible
// balances keyed by (series, holder), and the operator set whose members may
// mint and burn. Balances are never mutated directly by other contexts; the
// series engine and repo market go through the ledger's operations, which
// preserves the conservation law that the sum of a series' balances equals
// cumulative mint minus cumulative burn.
package bills

import (
	"context"

	"tbill-market/internal/auth"
)

// BalanceRepository stores per-series holder balances. Implementations keep
// no zero rows: setting a balance to zero removes the record.
type BalanceRepository interface {
	Get(ctx context.Context, seriesID string, holder auth.Party) (int64, error)
	Set(ctx context.Context, seriesID string, holder auth.Party, amount int64) error
	TotalForSeries(ctx context.Context, seriesID string) (int64, error)
}

// OperatorRepository stores the mint/burn permission set.
type OperatorRepository interface {
	Add(ctx context.Context, operator auth.Party) error
	Remove(ctx context.Context, operator auth.Party) error
	IsOperator(ctx context.Context, operator auth.Party) (bool, error)
	List(ctx context.Context) ([]auth.Party, error)
}
