package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tbill-market/internal/audit"
	"tbill-market/internal/auth"
	billevents "tbill-market/internal/bills/application/events"
	bills "tbill-market/internal/bills/domain"
	"tbill-market/internal/eventing"
	"tbill-market/internal/fixedpoint"
	"tbill-market/internal/observability/metrics"
	"tbill-market/internal/uow"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service is the bill ledger: a per-series fungible balance sheet with
// mint and burn restricted to an operator set. It trusts the identity the
// caller presents; authorization middleware and the calling engines are
// responsible for establishing it.
type Service struct {
	balances  bills.BalanceRepository
	operators bills.OperatorRepository
	runner    uow.Runner
	auditor   audit.Logger
	clock     Clock
}

// ServiceOption customizes the ledger service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithAuditor assigns an audit logger for operator-set changes.
func WithAuditor(auditor audit.Logger) ServiceOption {
	return func(s *Service) {
		s.auditor = auditor
	}
}

// NewService constructs a bill ledger service.
func NewService(balances bills.BalanceRepository, operators bills.OperatorRepository, runner uow.Runner, opts ...ServiceOption) (*Service, error) {
	if balances == nil || operators == nil {
		return nil, errors.New("bills: nil repository")
	}
	if runner == nil {
		return nil, errors.New("bills: nil unit-of-work runner")
	}
	service := &Service{
		balances:  balances,
		operators: operators,
		runner:    runner,
		clock:     systemClock{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// AddOperator adds a party to the mint/burn permission set. Admin only.
func (s *Service) AddOperator(ctx context.Context, operator auth.Party) error {
	if s == nil {
		return errors.New("bills: nil service")
	}
	if !operator.Valid() {
		return bills.ErrInvalidParty
	}
	if auth.RoleFromContext(ctx) != auth.RoleAdmin {
		return auth.ErrUnauthorized
	}
	err := s.runner.Do(ctx, func(ctx context.Context) error {
		return s.operators.Add(ctx, operator)
	})
	if err != nil {
		return err
	}
	s.auditOperatorChange(ctx, "ledger.operator.add", operator)
	return nil
}

// RemoveOperator removes a party from the permission set. Admin only.
func (s *Service) RemoveOperator(ctx context.Context, operator auth.Party) error {
	if s == nil {
		return errors.New("bills: nil service")
	}
	if !operator.Valid() {
		return bills.ErrInvalidParty
	}
	if auth.RoleFromContext(ctx) != auth.RoleAdmin {
		return auth.ErrUnauthorized
	}
	err := s.runner.Do(ctx, func(ctx context.Context) error {
		return s.operators.Remove(ctx, operator)
	})
	if err != nil {
		return err
	}
	s.auditOperatorChange(ctx, "ledger.operator.remove", operator)
	return nil
}

// Mint credits freshly issued bills to a holder. Operator only.
func (s *Service) Mint(ctx context.Context, caller auth.Party, seriesID string, to auth.Party, amount int64) error {
	if s == nil {
		return errors.New("bills: nil service")
	}
	if seriesID == "" {
		return bills.ErrEmptySeriesID
	}
	if !to.Valid() {
		return bills.ErrInvalidParty
	}
	if amount <= 0 {
		return bills.ErrInvalidAmount
	}
	now := s.clock.Now().UTC()

	err := s.runner.Do(ctx, func(ctx context.Context) error {
		if err := s.requireOperator(ctx, caller); err != nil {
			return err
		}
		balance, err := s.balances.Get(ctx, seriesID, to)
		if err != nil {
			return err
		}
		credited, err := fixedpoint.Add(balance, amount)
		if err != nil {
			return bills.ErrInvalidAmount
		}
		if err := s.balances.Set(ctx, seriesID, to, credited); err != nil {
			return err
		}
		eventing.Record(ctx, billevents.BillsMinted{
			SeriesID:   seriesID,
			To:         string(to),
			Amount:     amount,
			OccurredAt: now,
		})
		return nil
	})
	metrics.ObserveLedgerOp("mint", err)
	return err
}

// Burn debits bills from a holder, deleting the record at zero. Operator only.
func (s *Service) Burn(ctx context.Context, caller auth.Party, seriesID string, from auth.Party, amount int64) error {
	if s == nil {
		return errors.New("bills: nil service")
	}
	if seriesID == "" {
		return bills.ErrEmptySeriesID
	}
	if !from.Valid() {
		return bills.ErrInvalidParty
	}
	if amount <= 0 {
		return bills.ErrInvalidAmount
	}
	now := s.clock.Now().UTC()

	err := s.runner.Do(ctx, func(ctx context.Context) error {
		if err := s.requireOperator(ctx, caller); err != nil {
			return err
		}
		balance, err := s.balances.Get(ctx, seriesID, from)
		if err != nil {
			return err
		}
		if balance < amount {
			return bills.ErrInsufficientBalance
		}
		if err := s.balances.Set(ctx, seriesID, from, balance-amount); err != nil {
			return err
		}
		eventing.Record(ctx, billevents.BillsBurned{
			SeriesID:   seriesID,
			From:       string(from),
			Amount:     amount,
			OccurredAt: now,
		})
		return nil
	})
	metrics.ObserveLedgerOp("burn", err)
	return err
}

// Transfer moves bills between holders. The caller must be the source
// holder, or an operator moving balances as part of a protocol operation.
func (s *Service) Transfer(ctx context.Context, caller auth.Party, seriesID string, from, to auth.Party, amount int64) error {
	if s == nil {
		return errors.New("bills: nil service")
	}
	if seriesID == "" {
		return bills.ErrEmptySeriesID
	}
	if !from.Valid() || !to.Valid() {
		return bills.ErrInvalidParty
	}
	if amount <= 0 {
		return bills.ErrInvalidAmount
	}
	now := s.clock.Now().UTC()

	err := s.runner.Do(ctx, func(ctx context.Context) error {
		if caller != from {
			operator, err := s.operators.IsOperator(ctx, caller)
			if err != nil {
				return err
			}
			if !operator {
				return auth.ErrUnauthorized
			}
		}
		fromBalance, err := s.balances.Get(ctx, seriesID, from)
		if err != nil {
			return err
		}
		if fromBalance < amount {
			return bills.ErrInsufficientBalance
		}
		toBalance, err := s.balances.Get(ctx, seriesID, to)
		if err != nil {
			return err
		}
		credited, err := fixedpoint.Add(toBalance, amount)
		if err != nil {
			return bills.ErrInvalidAmount
		}
		if err := s.balances.Set(ctx, seriesID, from, fromBalance-amount); err != nil {
			return err
		}
		if err := s.balances.Set(ctx, seriesID, to, credited); err != nil {
			return err
		}
		eventing.Record(ctx, billevents.BillsTransferred{
			SeriesID:   seriesID,
			From:       string(from),
			To:         string(to),
			Amount:     amount,
			OccurredAt: now,
		})
		return nil
	})
	metrics.ObserveLedgerOp("transfer", err)
	return err
}

// BalanceOf returns a holder's balance, zero when no record exists.
func (s *Service) BalanceOf(ctx context.Context, seriesID string, holder auth.Party) (int64, error) {
	if s == nil {
		return 0, errors.New("bills: nil service")
	}
	if seriesID == "" {
		return 0, bills.ErrEmptySeriesID
	}
	if !holder.Valid() {
		return 0, bills.ErrInvalidParty
	}
	return s.balances.Get(ctx, seriesID, holder)
}

// TotalForSeries returns the sum of a series' outstanding balances.
func (s *Service) TotalForSeries(ctx context.Context, seriesID string) (int64, error) {
	if s == nil {
		return 0, errors.New("bills: nil service")
	}
	if seriesID == "" {
		return 0, bills.ErrEmptySeriesID
	}
	return s.balances.TotalForSeries(ctx, seriesID)
}

// IsOperator reports operator-set membership.
func (s *Service) IsOperator(ctx context.Context, party auth.Party) (bool, error) {
	if s == nil {
		return false, errors.New("bills: nil service")
	}
	if !party.Valid() {
		return false, bills.ErrInvalidParty
	}
	return s.operators.IsOperator(ctx, party)
}

// Operators lists the permission set.
func (s *Service) Operators(ctx context.Context) ([]auth.Party, error) {
	if s == nil {
		return nil, errors.New("bills: nil service")
	}
	return s.operators.List(ctx)
}

func (s *Service) requireOperator(ctx context.Context, caller auth.Party) error {
	if !caller.Valid() {
		return bills.ErrInvalidParty
	}
	operator, err := s.operators.IsOperator(ctx, caller)
	if err != nil {
		return err
	}
	if !operator {
		return bills.ErrNotOperator
	}
	return nil
}

func (s *Service) auditOperatorChange(ctx context.Context, action string, operator auth.Party) {
	if s.auditor == nil {
		return
	}
	metadata, _ := json.Marshal(map[string]string{"operator": string(operator)})
	_ = s.auditor.Log(ctx, audit.Entry{
		Actor:        string(auth.PartyFromContext(ctx)),
		Role:         string(auth.RoleFromContext(ctx)),
		Action:       action,
		ResourceType: "ledger_operator",
		ResourceID:   string(operator),
		Metadata:     metadata,
		CreatedAt:    s.clock.Now().UTC(),
	})
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
