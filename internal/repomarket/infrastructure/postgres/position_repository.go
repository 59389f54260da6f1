package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tbill-market/internal/auth"
	repomarket "tbill-market/internal/repomarket/domain"
	"tbill-market/internal/uow"
)

// PositionRepository persists repo positions. Statements join the
// surrounding unit of work's transaction. Ids come from a sequence so they
// stay monotonic across restarts.
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository constructs a repository.
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Get loads a position by id.
func (r *PositionRepository) Get(ctx context.Context, id uint64) (*repomarket.Position, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("position repo: nil db")
	}

	var p repomarket.Position
	var borrower, status string
	err := uow.Querier(ctx, r.db).QueryRowContext(ctx, `
SELECT id, borrower, series_id, collateral_par, cash_disbursed,
       repurchase_amount, opened_at, deadline, status, updated_at
FROM repo_positions
WHERE id = $1`, int64(id)).Scan(
		&p.ID, &borrower, &p.SeriesID, &p.CollateralPar, &p.CashDisbursed,
		&p.RepurchaseAmount, &p.OpenedAt, &p.Deadline, &status, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repomarket.ErrPositionNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Borrower = auth.Party(borrower)
	p.Status = repomarket.Status(status)
	return &p, nil
}

// Create inserts a position.
func (r *PositionRepository) Create(ctx context.Context, p *repomarket.Position) error {
	if r == nil || r.db == nil {
		return errors.New("position repo: nil db")
	}
	if p == nil {
		return repomarket.ErrNilPosition
	}

	_, err := uow.Querier(ctx, r.db).ExecContext(ctx, `
INSERT INTO repo_positions (
	id, borrower, series_id, collateral_par, cash_disbursed,
	repurchase_amount, opened_at, deadline, status, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`, int64(p.ID), string(p.Borrower), p.SeriesID, p.CollateralPar, p.CashDisbursed,
		p.RepurchaseAmount, p.OpenedAt, p.Deadline, string(p.Status), p.UpdatedAt)
	return err
}

// Update replaces a position's mutable fields.
func (r *PositionRepository) Update(ctx context.Context, p *repomarket.Position) error {
	if r == nil || r.db == nil {
		return errors.New("position repo: nil db")
	}
	if p == nil {
		return repomarket.ErrNilPosition
	}

	result, err := uow.Querier(ctx, r.db).ExecContext(ctx, `
UPDATE repo_positions
SET status = $2, updated_at = $3
WHERE id = $1`, int64(p.ID), string(p.Status), p.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repomarket.ErrPositionNotFound
	}
	return nil
}

// NextID hands out the next sequential position id.
func (r *PositionRepository) NextID(ctx context.Context) (uint64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("position repo: nil db")
	}

	var id int64
	err := uow.Querier(ctx, r.db).QueryRowContext(ctx, `
SELECT nextval('repo_position_id_seq')`).Scan(&id)
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByBorrower returns a borrower's positions ordered by id.
func (r *PositionRepository) ListByBorrower(ctx context.Context, borrower auth.Party) ([]*repomarket.Position, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("position repo: nil db")
	}

	rows, err := uow.Querier(ctx, r.db).QueryContext(ctx, `
SELECT id, borrower, series_id, collateral_par, cash_disbursed,
       repurchase_amount, opened_at, deadline, status, updated_at
FROM repo_positions
WHERE borrower = $1
ORDER BY id`, string(borrower))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*repomarket.Position
	for rows.Next() {
		var p repomarket.Position
		var owner, status string
		if err := rows.Scan(
			&p.ID, &owner, &p.SeriesID, &p.CollateralPar, &p.CashDisbursed,
			&p.RepurchaseAmount, &p.OpenedAt, &p.Deadline, &status, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		p.Borrower = auth.Party(owner)
		p.Status = repomarket.Status(status)
		result = append(result, &p)
	}
	return result, rows.Err()
}
