package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tbill-market/internal/audit"
	"tbill-market/internal/auth"
	"tbill-market/internal/eventing"
	"tbill-market/internal/fixedpoint"
	"tbill-market/internal/observability/metrics"
	"tbill-market/internal/payments"
	seriesevents "tbill-market/internal/series/application/events"
	series "tbill-market/internal/series/domain"
	"tbill-market/internal/uow"
)

// Ledger is the bill ledger surface the engine mints and burns through.
// The engine calls it under its own operator identity.
type Ledger interface {
	Mint(ctx context.Context, caller auth.Party, seriesID string, to auth.Party, amount int64) error
	Burn(ctx context.Context, caller auth.Party, seriesID string, from auth.Party, amount int64) error
}

// Accounting receives the aggregate effects of subscriptions.
type Accounting interface {
	RecordSubscription(ctx context.Context, cashCollected, liabilityMinted int64) error
}

// Clock provides time. Each public operation reads it exactly once and
// uses that instant throughout, so price and gate checks agree.
type Clock interface {
	Now() time.Time
}

// Engine owns the series lifecycle and drives subscription and redemption
// against the pricing rules, the bill ledger, the payment rail, and
// protocol accounting.
type Engine struct {
	store      series.Repository
	subs       series.SubscriptionRepository
	ledger     Ledger
	rail       payments.Rail
	accounting Accounting
	runner     uow.Runner
	auditor    audit.Logger
	clock      Clock

	// party is the engine's own ledger-operator identity; treasury is the
	// protocol treasury the rail settles against.
	party    auth.Party
	treasury auth.Party
}

// EngineOption customizes the engine.
type EngineOption func(*Engine)

// WithClock assigns a clock.
func WithClock(clock Clock) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithAuditor assigns an audit logger for issuer operations.
func WithAuditor(auditor audit.Logger) EngineOption {
	return func(e *Engine) {
		e.auditor = auditor
	}
}

// NewEngine constructs a series engine.
func NewEngine(store series.Repository, subs series.SubscriptionRepository, ledger Ledger, rail payments.Rail, accounting Accounting, runner uow.Runner, party, treasury auth.Party, opts ...EngineOption) (*Engine, error) {
	if store == nil || subs == nil {
		return nil, errors.New("series: nil repository")
	}
	if ledger == nil {
		return nil, errors.New("series: nil ledger")
	}
	if rail == nil {
		return nil, errors.New("series: nil payment rail")
	}
	if accounting == nil {
		return nil, errors.New("series: nil accounting")
	}
	if runner == nil {
		return nil, errors.New("series: nil unit-of-work runner")
	}
	if !party.Valid() || !treasury.Valid() {
		return nil, errors.New("series: empty engine or treasury party")
	}
	engine := &Engine{
		store:      store,
		subs:       subs,
		ledger:     ledger,
		rail:       rail,
		accounting: accounting,
		runner:     runner,
		clock:      systemClock{},
		party:      party,
		treasury:   treasury,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// CreateSeriesParams are the issuer-supplied series parameters.
type CreateSeriesParams struct {
	ID           string
	IssueTime    time.Time
	MaturityTime time.Time
	IssuePrice   int64
	Cap          int64
	UserCap      int64
}

// CreateSeries inserts a new series in Upcoming status. Issuer only.
func (e *Engine) CreateSeries(ctx context.Context, params CreateSeriesParams) (*series.Series, error) {
	if e == nil {
		return nil, errors.New("series: nil engine")
	}
	start := time.Now()
	now := e.clock.Now().UTC()

	var created *series.Series
	err := func() error {
		if !auth.RoleSatisfies(auth.RoleFromContext(ctx), auth.RoleIssuer) {
			return auth.ErrUnauthorized
		}
		s := &series.Series{
			ID:           params.ID,
			IssueTime:    params.IssueTime.UTC(),
			MaturityTime: params.MaturityTime.UTC(),
			IssuePrice:   params.IssuePrice,
			Cap:          params.Cap,
			UserCap:      params.UserCap,
			Status:       series.StatusUpcoming,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.Validate(); err != nil {
			return err
		}
		return e.runner.Do(ctx, func(ctx context.Context) error {
			if err := e.store.Create(ctx, s); err != nil {
				return err
			}
			eventing.Record(ctx, seriesevents.SeriesCreated{
				SeriesID:     s.ID,
				IssueTime:    s.IssueTime,
				MaturityTime: s.MaturityTime,
				IssuePrice:   s.IssuePrice,
				Cap:          s.Cap,
				UserCap:      s.UserCap,
				OccurredAt:   now,
			})
			created = s
			return nil
		})
	}()
	metrics.ObserveSeriesOp("create", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	e.auditSeries(ctx, "series.create", created.ID, map[string]any{
		"issue_price": created.IssuePrice,
		"cap":         created.Cap,
		"user_cap":    created.UserCap,
	})
	return created, nil
}

// ActivateSeries transitions Upcoming to Active. Issuer only.
func (e *Engine) ActivateSeries(ctx context.Context, id string) error {
	if e == nil {
		return errors.New("series: nil engine")
	}
	start := time.Now()
	now := e.clock.Now().UTC()

	err := func() error {
		if id == "" {
			return series.ErrEmptySeriesID
		}
		if !auth.RoleSatisfies(auth.RoleFromContext(ctx), auth.RoleIssuer) {
			return auth.ErrUnauthorized
		}
		return e.runner.Do(ctx, func(ctx context.Context) error {
			s, err := e.store.Get(ctx, id)
			if err != nil {
				return err
			}
			if s.Status != series.StatusUpcoming {
				return series.ErrInvalidStatus
			}
			s.Status = series.StatusActive
			s.UpdatedAt = now
			if err := e.store.Update(ctx, s); err != nil {
				return err
			}
			eventing.Record(ctx, seriesevents.SeriesActivated{SeriesID: id, OccurredAt: now})
			return nil
		})
	}()
	metrics.ObserveSeriesOp("activate", err, time.Since(start))
	if err == nil {
		e.auditSeries(ctx, "series.activate", id, nil)
	}
	return err
}

// SubscribeResult reports the outcome of a subscription.
type SubscribeResult struct {
	SeriesID  string
	Holder    auth.Party
	PayAmount int64
	Price     int64
	MintedPar int64
}

// Subscribe takes a holder's cash payment at the current accretion price
// and mints the corresponding bill par. Cash debit, mint, series counters,
// the subscription record, and accounting all move in one unit of work.
func (e *Engine) Subscribe(ctx context.Context, seriesID string, payAmount int64) (*SubscribeResult, error) {
	if e == nil {
		return nil, errors.New("series: nil engine")
	}
	start := time.Now()
	now := e.clock.Now().UTC()

	var result *SubscribeResult
	err := func() error {
		holder := auth.PartyFromContext(ctx)
		if !holder.Valid() {
			return auth.ErrUnauthorized
		}
		if seriesID == "" {
			return series.ErrEmptySeriesID
		}
		if payAmount <= 0 {
			return series.ErrInvalidAmount
		}
		return e.runner.Do(ctx, func(ctx context.Context) error {
			s, err := e.store.Get(ctx, seriesID)
			if err != nil {
				return err
			}
			if s.Status != series.StatusActive {
				return series.ErrSeriesNotActive
			}

			price, err := s.PriceAt(now)
			if err != nil {
				return err
			}
			minted, err := series.MintedPar(payAmount, price)
			if err != nil {
				return err
			}
			if minted <= 0 {
				return series.ErrInvalidAmount
			}

			newMinted, err := fixedpoint.Add(s.Minted, minted)
			if err != nil {
				return series.ErrInvalidAmount
			}
			if newMinted > s.Cap {
				return series.ErrExceedsSeriesCap
			}

			subscribed, err := e.subs.Get(ctx, seriesID, holder)
			if err != nil {
				return err
			}
			newSubscribed, err := fixedpoint.Add(subscribed, minted)
			if err != nil {
				return series.ErrInvalidAmount
			}
			if newSubscribed > s.UserCap {
				return series.ErrExceedsUserCap
			}

			newCollected, err := fixedpoint.Add(s.TotalCashCollected, payAmount)
			if err != nil {
				return series.ErrInvalidAmount
			}

			if err := e.rail.Transfer(ctx, holder, e.treasury, payAmount); err != nil {
				return err
			}
			if err := e.ledger.Mint(ctx, e.party, seriesID, holder, minted); err != nil {
				return err
			}

			s.Minted = newMinted
			s.TotalCashCollected = newCollected
			s.UpdatedAt = now
			if err := e.store.Update(ctx, s); err != nil {
				return err
			}
			if err := e.subs.Set(ctx, seriesID, holder, newSubscribed, now); err != nil {
				return err
			}
			if err := e.accounting.RecordSubscription(ctx, payAmount, minted); err != nil {
				return err
			}

			eventing.Record(ctx, seriesevents.Subscribed{
				SeriesID:   seriesID,
				Holder:     string(holder),
				PayAmount:  payAmount,
				Price:      price,
				MintedPar:  minted,
				OccurredAt: now,
			})
			result = &SubscribeResult{
				SeriesID:  seriesID,
				Holder:    holder,
				PayAmount: payAmount,
				Price:     price,
				MintedPar: minted,
			}
			return nil
		})
	}()
	metrics.ObserveSeriesOp("subscribe", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Redeem burns matured bills and pays the holder par, 1:1. Redemption is
// time-gated on maturity, not on the status transition having run.
func (e *Engine) Redeem(ctx context.Context, seriesID string, billAmount int64) error {
	if e == nil {
		return errors.New("series: nil engine")
	}
	start := time.Now()
	now := e.clock.Now().UTC()

	err := func() error {
		holder := auth.PartyFromContext(ctx)
		if !holder.Valid() {
			return auth.ErrUnauthorized
		}
		if seriesID == "" {
			return series.ErrEmptySeriesID
		}
		if billAmount <= 0 {
			return series.ErrInvalidAmount
		}
		return e.runner.Do(ctx, func(ctx context.Context) error {
			s, err := e.store.Get(ctx, seriesID)
			if err != nil {
				return err
			}
			if now.Before(s.MaturityTime) {
				return series.ErrSeriesNotMatured
			}
			if err := e.ledger.Burn(ctx, e.party, seriesID, holder, billAmount); err != nil {
				return err
			}
			if err := e.rail.Transfer(ctx, e.treasury, holder, billAmount); err != nil {
				return err
			}
			eventing.Record(ctx, seriesevents.Redeemed{
				SeriesID:   seriesID,
				Holder:     string(holder),
				BillAmount: billAmount,
				OccurredAt: now,
			})
			return nil
		})
	}()
	metrics.ObserveSeriesOp("redeem", err, time.Since(start))
	return err
}

// MatureSeries transitions Active to Matured once maturity has passed.
// Callable by anyone; calling it on an already-Matured series fails with
// ErrInvalidStatus and never double-applies.
func (e *Engine) MatureSeries(ctx context.Context, id string) error {
	if e == nil {
		return errors.New("series: nil engine")
	}
	start := time.Now()
	now := e.clock.Now().UTC()

	err := func() error {
		if id == "" {
			return series.ErrEmptySeriesID
		}
		return e.runner.Do(ctx, func(ctx context.Context) error {
			s, err := e.store.Get(ctx, id)
			if err != nil {
				return err
			}
			if now.Before(s.MaturityTime) {
				return series.ErrSeriesNotMatured
			}
			if s.Status != series.StatusActive {
				return series.ErrInvalidStatus
			}
			s.Status = series.StatusMatured
			s.UpdatedAt = now
			if err := e.store.Update(ctx, s); err != nil {
				return err
			}
			eventing.Record(ctx, seriesevents.SeriesMatured{SeriesID: id, OccurredAt: now})
			return nil
		})
	}()
	metrics.ObserveSeriesOp("mature", err, time.Since(start))
	return err
}

// CurrentPrice returns the accretion price at the current time.
func (e *Engine) CurrentPrice(ctx context.Context, id string) (int64, error) {
	if e == nil {
		return 0, errors.New("series: nil engine")
	}
	if id == "" {
		return 0, series.ErrEmptySeriesID
	}
	now := e.clock.Now().UTC()
	s, err := e.store.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.PriceAt(now)
}

// GetSeries returns a series by id.
func (e *Engine) GetSeries(ctx context.Context, id string) (*series.Series, error) {
	if e == nil {
		return nil, errors.New("series: nil engine")
	}
	if id == "" {
		return nil, series.ErrEmptySeriesID
	}
	return e.store.Get(ctx, id)
}

// ListSeries returns all series.
func (e *Engine) ListSeries(ctx context.Context) ([]*series.Series, error) {
	if e == nil {
		return nil, errors.New("series: nil engine")
	}
	return e.store.List(ctx)
}

// GetSubscription returns a holder's cumulative subscribed quantity, zero
// when no record exists.
func (e *Engine) GetSubscription(ctx context.Context, seriesID string, holder auth.Party) (int64, error) {
	if e == nil {
		return 0, errors.New("series: nil engine")
	}
	if seriesID == "" {
		return 0, series.ErrEmptySeriesID
	}
	return e.subs.Get(ctx, seriesID, holder)
}

// MarkPrice exposes the current price for collateral valuation.
func (e *Engine) MarkPrice(ctx context.Context, id string) (int64, error) {
	return e.CurrentPrice(ctx, id)
}

func (e *Engine) auditSeries(ctx context.Context, action, seriesID string, details map[string]any) {
	if e.auditor == nil {
		return
	}
	var metadata []byte
	if details != nil {
		metadata, _ = json.Marshal(details)
	}
	_ = e.auditor.Log(ctx, audit.Entry{
		Actor:        string(auth.PartyFromContext(ctx)),
		Role:         string(auth.RoleFromContext(ctx)),
		Action:       action,
		ResourceType: "series",
		ResourceID:   seriesID,
		Metadata:     metadata,
		CreatedAt:    e.clock.Now().UTC(),
	})
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
