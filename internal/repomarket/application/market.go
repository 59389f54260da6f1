package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"tbill-market/internal/audit"
	"tbill-market/internal/auth"
	"tbill-market/internal/eventing"
	"tbill-market/internal/observability/metrics"
	"tbill-market/internal/payments"
	repoevents "tbill-market/internal/repomarket/application/events"
	repomarket "tbill-market/internal/repomarket/domain"
	series "tbill-market/internal/series/domain"
	"tbill-market/internal/uow"
)

// SeriesSource resolves collateral series for mark pricing and maturity
// checks. Pricing is computed from the record against the market's own
// single time read, so price and deadline gates agree within one call.
type SeriesSource interface {
	GetSeries(ctx context.Context, id string) (*series.Series, error)
}

// Ledger is the bill ledger surface collateral moves through. The market
// calls it under its own operator identity.
type Ledger interface {
	Transfer(ctx context.Context, caller auth.Party, seriesID string, from, to auth.Party, amount int64) error
}

// Accounting receives the aggregate effects of loan lifecycle changes.
type Accounting interface {
	RecordLoanOpened(ctx context.Context, cashDisbursed int64) error
	RecordLoanClosed(ctx context.Context, principal, margin int64) error
	RecordDefault(ctx context.Context, principal int64) error
}

// Clock provides time, read exactly once per public operation.
type Clock interface {
	Now() time.Time
}

// Market opens, closes, and defaults collateralized cash loans against
// bill holdings.
type Market struct {
	positions  repomarket.Repository
	source     SeriesSource
	ledger     Ledger
	rail       payments.Rail
	accounting Accounting
	runner     uow.Runner
	auditor    audit.Logger
	clock      Clock

	haircutBps int64
	spreadBps  int64

	// party is the market's custody and ledger-operator identity; treasury
	// disburses loan cash and receives repayments and claimed collateral.
	party    auth.Party
	treasury auth.Party
}

// MarketOption customizes the market.
type MarketOption func(*Market)

// WithClock assigns a clock.
func WithClock(clock Clock) MarketOption {
	return func(m *Market) {
		m.clock = clock
	}
}

// WithAuditor assigns an audit logger for default claims.
func WithAuditor(auditor audit.Logger) MarketOption {
	return func(m *Market) {
		m.auditor = auditor
	}
}

// NewMarket constructs a repo market.
func NewMarket(positions repomarket.Repository, source SeriesSource, ledger Ledger, rail payments.Rail, accounting Accounting, runner uow.Runner, haircutBps, spreadBps int64, party, treasury auth.Party, opts ...MarketOption) (*Market, error) {
	if positions == nil {
		return nil, errors.New("repomarket: nil repository")
	}
	if source == nil {
		return nil, errors.New("repomarket: nil series source")
	}
	if ledger == nil {
		return nil, errors.New("repomarket: nil ledger")
	}
	if rail == nil {
		return nil, errors.New("repomarket: nil payment rail")
	}
	if accounting == nil {
		return nil, errors.New("repomarket: nil accounting")
	}
	if runner == nil {
		return nil, errors.New("repomarket: nil unit-of-work runner")
	}
	if !repomarket.ValidBps(haircutBps) || !repomarket.ValidBps(spreadBps) {
		return nil, repomarket.ErrInvalidBasisPoints
	}
	if !party.Valid() || !treasury.Valid() {
		return nil, errors.New("repomarket: empty market or treasury party")
	}
	market := &Market{
		positions:  positions,
		source:     source,
		ledger:     ledger,
		rail:       rail,
		accounting: accounting,
		runner:     runner,
		clock:      systemClock{},
		haircutBps: haircutBps,
		spreadBps:  spreadBps,
		party:      party,
		treasury:   treasury,
	}
	for _, opt := range opts {
		opt(market)
	}
	return market, nil
}

// OpenRepo locks a borrower's bills as collateral and disburses cash up to
// the haircut-adjusted collateral value. Returns the new position id.
func (m *Market) OpenRepo(ctx context.Context, seriesID string, collateralPar, desiredCash int64, deadline time.Time) (uint64, error) {
	if m == nil {
		return 0, errors.New("repomarket: nil market")
	}
	start := time.Now()
	now := m.clock.Now().UTC()

	var positionID uint64
	err := func() error {
		borrower := auth.PartyFromContext(ctx)
		if !borrower.Valid() {
			return auth.ErrUnauthorized
		}
		if seriesID == "" {
			return series.ErrEmptySeriesID
		}
		if collateralPar <= 0 || desiredCash <= 0 {
			return repomarket.ErrInvalidAmount
		}
		if deadline.IsZero() {
			return repomarket.ErrInvalidDeadline
		}
		return m.runner.Do(ctx, func(ctx context.Context) error {
			s, err := m.source.GetSeries(ctx, seriesID)
			if err != nil {
				return err
			}
			if deadline.After(s.MaturityTime) {
				return repomarket.ErrInvalidDeadline
			}

			markPrice, err := s.PriceAt(now)
			if err != nil {
				return err
			}
			maxCash, err := repomarket.MaxCash(collateralPar, markPrice, m.haircutBps)
			if err != nil {
				return err
			}
			if desiredCash > maxCash {
				return repomarket.ErrExceedsMaxCash
			}
			repurchase, err := repomarket.RepurchaseAmount(desiredCash, m.spreadBps)
			if err != nil {
				return err
			}

			if err := m.ledger.Transfer(ctx, m.party, seriesID, borrower, m.party, collateralPar); err != nil {
				return err
			}
			if err := m.rail.Transfer(ctx, m.treasury, borrower, desiredCash); err != nil {
				return err
			}

			id, err := m.positions.NextID(ctx)
			if err != nil {
				return err
			}
			position := &repomarket.Position{
				ID:               id,
				Borrower:         borrower,
				SeriesID:         seriesID,
				CollateralPar:    collateralPar,
				CashDisbursed:    desiredCash,
				RepurchaseAmount: repurchase,
				OpenedAt:         now,
				Deadline:         deadline.UTC(),
				Status:           repomarket.StatusOpen,
				UpdatedAt:        now,
			}
			if err := m.positions.Create(ctx, position); err != nil {
				return err
			}
			if err := m.accounting.RecordLoanOpened(ctx, desiredCash); err != nil {
				return err
			}

			eventing.Record(ctx, repoevents.RepoOpened{
				PositionID:       id,
				Borrower:         string(borrower),
				SeriesID:         seriesID,
				CollateralPar:    collateralPar,
				CashDisbursed:    desiredCash,
				RepurchaseAmount: repurchase,
				Deadline:         position.Deadline,
				OccurredAt:       now,
			})
			positionID = id
			return nil
		})
	}()
	metrics.ObserveRepoOp("open", err, time.Since(start))
	if err != nil {
		return 0, err
	}
	return positionID, nil
}

// CloseRepo repays the repurchase amount and returns the collateral. Only
// the position's borrower may close, and only up to the deadline.
func (m *Market) CloseRepo(ctx context.Context, positionID uint64) error {
	if m == nil {
		return errors.New("repomarket: nil market")
	}
	start := time.Now()
	now := m.clock.Now().UTC()

	err := func() error {
		borrower := auth.PartyFromContext(ctx)
		if !borrower.Valid() {
			return auth.ErrUnauthorized
		}
		return m.runner.Do(ctx, func(ctx context.Context) error {
			position, err := m.positions.Get(ctx, positionID)
			if err != nil {
				return err
			}
			if position.Borrower != borrower {
				return auth.ErrUnauthorized
			}
			if position.Status != repomarket.StatusOpen {
				return repomarket.ErrInvalidStatus
			}
			if now.After(position.Deadline) {
				return repomarket.ErrDeadlinePassed
			}

			if err := m.rail.Transfer(ctx, borrower, m.treasury, position.RepurchaseAmount); err != nil {
				return err
			}
			if err := m.ledger.Transfer(ctx, m.party, position.SeriesID, m.party, borrower, position.CollateralPar); err != nil {
				return err
			}

			position.Status = repomarket.StatusClosed
			position.UpdatedAt = now
			if err := m.positions.Update(ctx, position); err != nil {
				return err
			}
			margin := position.RepurchaseAmount - position.CashDisbursed
			if err := m.accounting.RecordLoanClosed(ctx, position.CashDisbursed, margin); err != nil {
				return err
			}

			eventing.Record(ctx, repoevents.RepoClosed{
				PositionID:       positionID,
				Borrower:         string(borrower),
				SeriesID:         position.SeriesID,
				RepurchaseAmount: position.RepurchaseAmount,
				OccurredAt:       now,
			})
			return nil
		})
	}()
	metrics.ObserveRepoOp("close", err, time.Since(start))
	return err
}

// ClaimDefault moves the collateral of an overdue open position to the
// treasury. Treasury only, and only after the deadline has passed.
func (m *Market) ClaimDefault(ctx context.Context, positionID uint64) error {
	if m == nil {
		return errors.New("repomarket: nil market")
	}
	start := time.Now()
	now := m.clock.Now().UTC()

	err := func() error {
		if !auth.RoleSatisfies(auth.RoleFromContext(ctx), auth.RoleTreasury) {
			return auth.ErrUnauthorized
		}
		return m.runner.Do(ctx, func(ctx context.Context) error {
			position, err := m.positions.Get(ctx, positionID)
			if err != nil {
				return err
			}
			if position.Status != repomarket.StatusOpen {
				return repomarket.ErrInvalidStatus
			}
			if !now.After(position.Deadline) {
				return repomarket.ErrDeadlineNotPassed
			}

			if err := m.ledger.Transfer(ctx, m.party, position.SeriesID, m.party, m.treasury, position.CollateralPar); err != nil {
				return err
			}

			position.Status = repomarket.StatusDefaulted
			position.UpdatedAt = now
			if err := m.positions.Update(ctx, position); err != nil {
				return err
			}
			if err := m.accounting.RecordDefault(ctx, position.CashDisbursed); err != nil {
				return err
			}

			eventing.Record(ctx, repoevents.RepoDefaulted{
				PositionID:    positionID,
				Borrower:      string(position.Borrower),
				SeriesID:      position.SeriesID,
				CollateralPar: position.CollateralPar,
				OccurredAt:    now,
			})
			return nil
		})
	}()
	metrics.ObserveRepoOp("default", err, time.Since(start))
	if err == nil && m.auditor != nil {
		_ = m.auditor.Log(ctx, audit.Entry{
			Actor:        string(auth.PartyFromContext(ctx)),
			Role:         string(auth.RoleFromContext(ctx)),
			Action:       "repo.default_claim",
			ResourceType: "repo_position",
			ResourceID:   strconv.FormatUint(positionID, 10),
			CreatedAt:    now,
		})
	}
	return err
}

// GetPosition returns a position by id.
func (m *Market) GetPosition(ctx context.Context, positionID uint64) (*repomarket.Position, error) {
	if m == nil {
		return nil, errors.New("repomarket: nil market")
	}
	return m.positions.Get(ctx, positionID)
}

// ListPositions returns a borrower's positions.
func (m *Market) ListPositions(ctx context.Context, borrower auth.Party) ([]*repomarket.Position, error) {
	if m == nil {
		return nil, errors.New("repomarket: nil market")
	}
	return m.positions.ListByBorrower(ctx, borrower)
}

// Haircut returns the configured haircut in basis points.
func (m *Market) Haircut() int64 { return m.haircutBps }

// Spread returns the configured spread in basis points.
func (m *Market) Spread() int64 { return m.spreadBps }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
