package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tbill-market/internal/auth"
	bills "tbill-market/internal/bills/domain"
	"tbill-market/internal/uow"
)

// BalanceRepository persists per-series holder balances. Statements join
// the surrounding unit of work's transaction.
type BalanceRepository struct {
	db *sql.DB
}

// NewBalanceRepository constructs a repository.
func NewBalanceRepository(db *sql.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Get returns a holder's balance, zero when absent.
func (r *BalanceRepository) Get(ctx context.Context, seriesID string, holder auth.Party) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("balance repo: nil db")
	}
	if seriesID == "" {
		return 0, bills.ErrEmptySeriesID
	}

	var balance int64
	err := uow.Querier(ctx, r.db).QueryRowContext(ctx, `
SELECT balance FROM bill_balances
WHERE series_id = $1 AND holder = $2`, seriesID, string(holder)).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Set stores a balance, deleting the row when it reaches zero.
func (r *BalanceRepository) Set(ctx context.Context, seriesID string, holder auth.Party, amount int64) error {
	if r == nil || r.db == nil {
		return errors.New("balance repo: nil db")
	}
	if seriesID == "" {
		return bills.ErrEmptySeriesID
	}
	if amount < 0 {
		return bills.ErrInvalidAmount
	}

	q := uow.Querier(ctx, r.db)
	if amount == 0 {
		_, err := q.ExecContext(ctx, `
DELETE FROM bill_balances
WHERE series_id = $1 AND holder = $2`, seriesID, string(holder))
		return err
	}
	_, err := q.ExecContext(ctx, `
INSERT INTO bill_balances (series_id, holder, balance)
VALUES ($1, $2, $3)
ON CONFLICT (series_id, holder)
DO UPDATE SET balance = EXCLUDED.balance`, seriesID, string(holder), amount)
	return err
}

// TotalForSeries sums all balances held against a series.
func (r *BalanceRepository) TotalForSeries(ctx context.Context, seriesID string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("balance repo: nil db")
	}
	if seriesID == "" {
		return 0, bills.ErrEmptySeriesID
	}

	var total int64
	err := uow.Querier(ctx, r.db).QueryRowContext(ctx, `
SELECT COALESCE(SUM(balance), 0) FROM bill_balances
WHERE series_id = $1`, seriesID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// OperatorRepository persists the mint/burn permission set.
type OperatorRepository struct {
	db *sql.DB
}

// NewOperatorRepository constructs a repository.
func NewOperatorRepository(db *sql.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// Add inserts an operator; adding twice is a no-op.
func (r *OperatorRepository) Add(ctx context.Context, operator auth.Party) error {
	if r == nil || r.db == nil {
		return errors.New("operator repo: nil db")
	}
	if !operator.Valid() {
		return bills.ErrInvalidParty
	}
	_, err := uow.Querier(ctx, r.db).ExecContext(ctx, `
INSERT INTO ledger_operators (party)
VALUES ($1)
ON CONFLICT (party) DO NOTHING`, string(operator))
	return err
}

// Remove deletes an operator; removing an absent one is a no-op.
func (r *OperatorRepository) Remove(ctx context.Context, operator auth.Party) error {
	if r == nil || r.db == nil {
		return errors.New("operator repo: nil db")
	}
	if !operator.Valid() {
		return bills.ErrInvalidParty
	}
	_, err := uow.Querier(ctx, r.db).ExecContext(ctx, `
DELETE FROM ledger_operators
WHERE party = $1`, string(operator))
	return err
}

// IsOperator reports membership.
func (r *OperatorRepository) IsOperator(ctx context.Context, operator auth.Party) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("operator repo: nil db")
	}

	var exists bool
	err := uow.Querier(ctx, r.db).QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM ledger_operators WHERE party = $1)`, string(operator)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// List returns the operators in stable order.
func (r *OperatorRepository) List(ctx context.Context) ([]auth.Party, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("operator repo: nil db")
	}

	rows, err := uow.Querier(ctx, r.db).QueryContext(ctx, `
SELECT party FROM ledger_operators
ORDER BY party`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Party
	for rows.Next() {
		var party string
		if err := rows.Scan(&party); err != nil {
			return nil, err
		}
		result = append(result, auth.Party(party))
	}
	return result, rows.Err()
}
