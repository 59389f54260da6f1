package application

import (
	"context"
	"errors"
	"time"

	accounting "tbill-market/internal/accounting/domain"
	"tbill-market/internal/fixedpoint"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service maintains the protocol accounting aggregate. Its record methods
// run inside the caller's unit of work: the series engine and repo market
// invoke them mid-operation, and the store joins the surrounding
// transaction, so accounting moves atomically with the ledgers it mirrors.
type Service struct {
	store accounting.Store
	clock Clock
}

// ServiceOption customizes the accounting service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService constructs an accounting service.
func NewService(store accounting.Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("accounting: nil store")
	}
	service := &Service{store: store, clock: systemClock{}}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// RecordSubscription adds a subscription's cash and minted liability.
func (s *Service) RecordSubscription(ctx context.Context, cashCollected, liabilityMinted int64) error {
	if s == nil {
		return errors.New("accounting: nil service")
	}
	if cashCollected <= 0 || liabilityMinted <= 0 {
		return accounting.ErrInvalidAmount
	}
	return s.apply(ctx, func(record *accounting.ProtocolAccounting) error {
		cash, err := fixedpoint.Add(record.TotalCashCollected, cashCollected)
		if err != nil {
			return accounting.ErrInvalidAmount
		}
		liability, err := fixedpoint.Add(record.TotalLiabilityMinted, liabilityMinted)
		if err != nil {
			return accounting.ErrInvalidAmount
		}
		record.TotalCashCollected = cash
		record.TotalLiabilityMinted = liability
		return nil
	})
}

// RecordLoanOpened adds disbursed principal to the lent total.
func (s *Service) RecordLoanOpened(ctx context.Context, cashDisbursed int64) error {
	if s == nil {
		return errors.New("accounting: nil service")
	}
	if cashDisbursed <= 0 {
		return accounting.ErrInvalidAmount
	}
	return s.apply(ctx, func(record *accounting.ProtocolAccounting) error {
		lent, err := fixedpoint.Add(record.TotalLent, cashDisbursed)
		if err != nil {
			return accounting.ErrInvalidAmount
		}
		record.TotalLent = lent
		return nil
	})
}

// RecordLoanClosed returns principal from the lent total and books the
// spread margin as repo revenue.
func (s *Service) RecordLoanClosed(ctx context.Context, principal, margin int64) error {
	if s == nil {
		return errors.New("accounting: nil service")
	}
	if principal <= 0 || margin < 0 {
		return accounting.ErrInvalidAmount
	}
	return s.apply(ctx, func(record *accounting.ProtocolAccounting) error {
		lent, err := fixedpoint.Sub(record.TotalLent, principal)
		if err != nil {
			return accounting.ErrInvalidAmount
		}
		revenue, err := fixedpoint.Add(record.TotalRepoRevenue, margin)
		if err != nil {
			return accounting.ErrInvalidAmount
		}
		record.TotalLent = lent
		record.TotalRepoRevenue = revenue
		return nil
	})
}

// RecordDefault writes off an overdue loan's principal and counts the
// default.
func (s *Service) RecordDefault(ctx context.Context, principal int64) error {
	if s == nil {
		return errors.New("accounting: nil service")
	}
	if principal <= 0 {
		return accounting.ErrInvalidAmount
	}
	return s.apply(ctx, func(record *accounting.ProtocolAccounting) error {
		lent, err := fixedpoint.Sub(record.TotalLent, principal)
		if err != nil {
			return accounting.ErrInvalidAmount
		}
		record.TotalLent = lent
		record.TotalDefaults++
		return nil
	})
}

// Snapshot returns the current aggregate record.
func (s *Service) Snapshot(ctx context.Context) (*accounting.ProtocolAccounting, error) {
	if s == nil {
		return nil, errors.New("accounting: nil service")
	}
	return s.store.Get(ctx)
}

func (s *Service) apply(ctx context.Context, mutate func(record *accounting.ProtocolAccounting) error) error {
	record, err := s.store.Get(ctx)
	if err != nil {
		return err
	}
	if err := mutate(record); err != nil {
		return err
	}
	record.UpdatedAt = s.clock.Now().UTC()
	return s.store.Save(ctx, record)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
