package postgres

import (
	"context"
	"database/sql"
	"errors"

	accounting "tbill-market/internal/accounting/domain"
	"tbill-market/internal/uow"
)

// AccountingStore persists the single aggregate record in one row.
// Statements join the surrounding unit of work's transaction.
type AccountingStore struct {
	db *sql.DB
}

// NewAccountingStore constructs a store.
func NewAccountingStore(db *sql.DB) *AccountingStore {
	return &AccountingStore{db: db}
}

// Get returns the aggregate record, zero-valued before the first save.
func (s *AccountingStore) Get(ctx context.Context) (*accounting.ProtocolAccounting, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("accounting store: nil db")
	}

	var record accounting.ProtocolAccounting
	err := uow.Querier(ctx, s.db).QueryRowContext(ctx, `
SELECT total_cash_collected, total_liability_minted, total_lent,
       total_repo_revenue, total_defaults, updated_at
FROM protocol_accounting
WHERE id = 1`).Scan(
		&record.TotalCashCollected, &record.TotalLiabilityMinted, &record.TotalLent,
		&record.TotalRepoRevenue, &record.TotalDefaults, &record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &accounting.ProtocolAccounting{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save upserts the aggregate record.
func (s *AccountingStore) Save(ctx context.Context, record *accounting.ProtocolAccounting) error {
	if s == nil || s.db == nil {
		return errors.New("accounting store: nil db")
	}
	if record == nil {
		return accounting.ErrNilRecord
	}

	_, err := uow.Querier(ctx, s.db).ExecContext(ctx, `
INSERT INTO protocol_accounting (
	id, total_cash_collected, total_liability_minted, total_lent,
	total_repo_revenue, total_defaults, updated_at
) VALUES (
	1,$1,$2,$3,$4,$5,$6
)
ON CONFLICT (id)
DO UPDATE SET
	total_cash_collected = EXCLUDED.total_cash_collected,
	total_liability_minted = EXCLUDED.total_liability_minted,
	total_lent = EXCLUDED.total_lent,
	total_repo_revenue = EXCLUDED.total_repo_revenue,
	total_defaults = EXCLUDED.total_defaults,
	updated_at = EXCLUDED.updated_at`,
		record.TotalCashCollected, record.TotalLiabilityMinted, record.TotalLent,
		record.TotalRepoRevenue, record.TotalDefaults, record.UpdatedAt)
	return err
}
