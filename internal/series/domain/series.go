// Package series holds the series engine's domain model: the issuance
// batch with its lifecycle state machine, the per-holder subscription
// record, and the linear-accretion pricing rules.
package series

import (
	"context"
	"time"

	"tbill-market/internal/auth"
	"tbill-market/internal/fixedpoint"
)

// Status is the series lifecycle state.
type Status string

const (
	// StatusUpcoming is a created but not yet activated series.
	StatusUpcoming Status = "upcoming"
	// StatusActive accepts subscriptions.
	StatusActive Status = "active"
	// StatusMatured has passed maturity; bills redeem at par.
	StatusMatured Status = "matured"
	// StatusClosed is a terminal bookkeeping state.
	StatusClosed Status = "closed"
)

// IsValid reports whether the status is a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusMatured, StatusClosed:
		return true
	default:
		return false
	}
}

// Series is one issuance batch of discount-priced, maturity-dated bills.
// Minted is a liability counter: it never decreases, even as bills are
// later burned on redemption.
type Series struct {
	ID                 string
	IssueTime          time.Time
	MaturityTime       time.Time
	IssuePrice         int64
	Cap                int64
	UserCap            int64
	Minted             int64
	TotalCashCollected int64
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks the creation parameters.
func (s *Series) Validate() error {
	if s == nil {
		return ErrNilSeries
	}
	if s.ID == "" {
		return ErrEmptySeriesID
	}
	if s.IssueTime.IsZero() || s.MaturityTime.IsZero() || !s.MaturityTime.After(s.IssueTime) {
		return ErrInvalidTimestamp
	}
	if s.IssuePrice <= 0 || s.IssuePrice > fixedpoint.ParUnit {
		return ErrInvalidIssuePrice
	}
	if s.Cap <= 0 || s.UserCap <= 0 || s.UserCap > s.Cap {
		return ErrInvalidCapAmounts
	}
	return nil
}

// Clone returns a deep copy.
func (s *Series) Clone() *Series {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}

// Subscription is the cumulative subscribed quantity of one holder in one
// series. The quantity is monotonically non-decreasing and capped by the
// series' per-holder cap.
type Subscription struct {
	SeriesID  string
	Holder    auth.Party
	Quantity  int64
	UpdatedAt time.Time
}

// Repository stores series records.
type Repository interface {
	Get(ctx context.Context, id string) (*Series, error)
	Create(ctx context.Context, s *Series) error
	Update(ctx context.Context, s *Series) error
	List(ctx context.Context) ([]*Series, error)
}

// SubscriptionRepository stores per-holder subscription records.
type SubscriptionRepository interface {
	Get(ctx context.Context, seriesID string, holder auth.Party) (int64, error)
	Set(ctx context.Context, seriesID string, holder auth.Party, quantity int64, updatedAt time.Time) error
}
