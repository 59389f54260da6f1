package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tbill-market/internal/auth"
	"tbill-market/internal/payments"
	"tbill-market/internal/uow"
)

// Rail persists settlement-currency accounts in Postgres. Transfers join
// the surrounding unit of work's transaction.
type Rail struct {
	db *sql.DB
}

// NewRail constructs a rail.
func NewRail(db *sql.DB) *Rail {
	return &Rail{db: db}
}

// Transfer moves cash between parties, failing when the source account
// cannot cover the amount.
func (r *Rail) Transfer(ctx context.Context, from, to auth.Party, amount int64) error {
	if r == nil || r.db == nil {
		return errors.New("payments rail: nil db")
	}
	if amount <= 0 {
		return payments.ErrInvalidAmount
	}

	q := uow.Querier(ctx, r.db)

	result, err := q.ExecContext(ctx, `
UPDATE cash_accounts
SET balance = balance - $2
WHERE party = $1 AND balance >= $2`, string(from), amount)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return payments.ErrInsufficientFunds
	}

	_, err = q.ExecContext(ctx, `
INSERT INTO cash_accounts (party, balance)
VALUES ($1, $2)
ON CONFLICT (party)
DO UPDATE SET balance = cash_accounts.balance + EXCLUDED.balance`, string(to), amount)
	return err
}

// Deposit credits a party outside any unit of work, used for seeding.
func (r *Rail) Deposit(ctx context.Context, party auth.Party, amount int64) error {
	if r == nil || r.db == nil {
		return errors.New("payments rail: nil db")
	}
	if amount <= 0 {
		return payments.ErrInvalidAmount
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO cash_accounts (party, balance)
VALUES ($1, $2)
ON CONFLICT (party)
DO UPDATE SET balance = cash_accounts.balance + EXCLUDED.balance`, string(party), amount)
	return err
}
