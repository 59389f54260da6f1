package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tbill-market/internal/auth"
	series "tbill-market/internal/series/domain"
	"tbill-market/internal/uow"
)

// SeriesRepository persists series records. Statements join the
// surrounding unit of work's transaction.
type SeriesRepository struct {
	db *sql.DB
}

// NewSeriesRepository constructs a repository.
func NewSeriesRepository(db *sql.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

// Get loads a series by id.
func (r *SeriesRepository) Get(ctx context.Context, id string) (*series.Series, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("series repo: nil db")
	}
	if id == "" {
		return nil, series.ErrEmptySeriesID
	}

	var s series.Series
	var status string
	err := uow.Querier(ctx, r.db).QueryRowContext(ctx, `
SELECT id, issue_time, maturity_time, issue_price, cap_amount, user_cap,
       minted, total_cash_collected, status, created_at, updated_at
FROM series
WHERE id = $1`, id).Scan(
		&s.ID, &s.IssueTime, &s.MaturityTime, &s.IssuePrice, &s.Cap, &s.UserCap,
		&s.Minted, &s.TotalCashCollected, &status, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, series.ErrSeriesNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Status = series.Status(status)
	return &s, nil
}

// Create inserts a series, failing when the id is taken.
func (r *SeriesRepository) Create(ctx context.Context, s *series.Series) error {
	if r == nil || r.db == nil {
		return errors.New("series repo: nil db")
	}
	if s == nil {
		return series.ErrNilSeries
	}

	_, err := uow.Querier(ctx, r.db).ExecContext(ctx, `
INSERT INTO series (
	id, issue_time, maturity_time, issue_price, cap_amount, user_cap,
	minted, total_cash_collected, status, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`, s.ID, s.IssueTime, s.MaturityTime, s.IssuePrice, s.Cap, s.UserCap,
		s.Minted, s.TotalCashCollected, string(s.Status), s.CreatedAt, s.UpdatedAt)
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return series.ErrSeriesExists
	}
	return err
}

// Update replaces an existing series' mutable fields.
func (r *SeriesRepository) Update(ctx context.Context, s *series.Series) error {
	if r == nil || r.db == nil {
		return errors.New("series repo: nil db")
	}
	if s == nil {
		return series.ErrNilSeries
	}

	result, err := uow.Querier(ctx, r.db).ExecContext(ctx, `
UPDATE series
SET minted = $2, total_cash_collected = $3, status = $4, updated_at = $5
WHERE id = $1`, s.ID, s.Minted, s.TotalCashCollected, string(s.Status), s.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return series.ErrSeriesNotFound
	}
	return nil
}

// List returns all series ordered by id.
func (r *SeriesRepository) List(ctx context.Context) ([]*series.Series, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("series repo: nil db")
	}

	rows, err := uow.Querier(ctx, r.db).QueryContext(ctx, `
SELECT id, issue_time, maturity_time, issue_price, cap_amount, user_cap,
       minted, total_cash_collected, status, created_at, updated_at
FROM series
ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*series.Series
	for rows.Next() {
		var s series.Series
		var status string
		if err := rows.Scan(
			&s.ID, &s.IssueTime, &s.MaturityTime, &s.IssuePrice, &s.Cap, &s.UserCap,
			&s.Minted, &s.TotalCashCollected, &status, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		s.Status = series.Status(status)
		result = append(result, &s)
	}
	return result, rows.Err()
}

// SubscriptionRepository persists per-holder subscription records.
type SubscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository constructs a repository.
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Get returns a holder's cumulative subscribed quantity, zero when absent.
func (r *SubscriptionRepository) Get(ctx context.Context, seriesID string, holder auth.Party) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("subscription repo: nil db")
	}
	if seriesID == "" {
		return 0, series.ErrEmptySeriesID
	}

	var quantity int64
	err := uow.Querier(ctx, r.db).QueryRowContext(ctx, `
SELECT quantity FROM series_subscriptions
WHERE series_id = $1 AND holder = $2`, seriesID, string(holder)).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return quantity, nil
}

// Set stores a holder's cumulative subscribed quantity.
func (r *SubscriptionRepository) Set(ctx context.Context, seriesID string, holder auth.Party, quantity int64, updatedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("subscription repo: nil db")
	}
	if seriesID == "" {
		return series.ErrEmptySeriesID
	}
	if quantity < 0 {
		return series.ErrInvalidAmount
	}

	_, err := uow.Querier(ctx, r.db).ExecContext(ctx, `
INSERT INTO series_subscriptions (series_id, holder, quantity, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (series_id, holder)
DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		seriesID, string(holder), quantity, updatedAt)
	return err
}
