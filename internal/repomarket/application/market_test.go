package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"tbill-market/internal/auth"
	billsapp "tbill-market/internal/bills/application"
	bills "tbill-market/internal/bills/domain"
	billsmem "tbill-market/internal/bills/infrastructure/memory"
	"tbill-market/internal/fixedpoint"
	paymem "tbill-market/internal/payments/memory"
	repomarket "tbill-market/internal/repomarket/domain"
	repomem "tbill-market/internal/repomarket/infrastructure/memory"
	seriesapp "tbill-market/internal/series/application"
	seriesmem "tbill-market/internal/series/infrastructure/memory"
	"tbill-market/internal/uow"
)

const (
	engineParty   = auth.Party("series-engine")
	marketParty   = auth.Party("repo-market")
	treasuryParty = auth.Party("treasury")
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type recordingAccounting struct {
	cash      int64
	liability int64
	lent      int64
	revenue   int64
	defaults  int64
}

func (a *recordingAccounting) RecordSubscription(ctx context.Context, cashCollected, liabilityMinted int64) error {
	_ = ctx
	a.cash += cashCollected
	a.liability += liabilityMinted
	return nil
}

func (a *recordingAccounting) RecordLoanOpened(ctx context.Context, cashDisbursed int64) error {
	_ = ctx
	a.lent += cashDisbursed
	return nil
}

func (a *recordingAccounting) RecordLoanClosed(ctx context.Context, principal, margin int64) error {
	_ = ctx
	a.lent -= principal
	a.revenue += margin
	return nil
}

func (a *recordingAccounting) RecordDefault(ctx context.Context, principal int64) error {
	_ = ctx
	a.lent -= principal
	a.defaults++
	return nil
}

type marketHarness struct {
	market     *Market
	ledger     *billsapp.Service
	rail       *paymem.Rail
	accounting *recordingAccounting
	clock      *fixedClock
}

// newMarketHarness wires the full lending path: a series at par price with
// alice holding 10,000 units of bills, a 300 bps haircut, and a 500 bps
// spread.
func newMarketHarness(t *testing.T) *marketHarness {
	t.Helper()

	balances := billsmem.NewBalanceRepository()
	operators := billsmem.NewOperatorRepository()
	seriesRepo := seriesmem.NewSeriesRepository()
	subsRepo := seriesmem.NewSubscriptionRepository()
	positions := repomem.NewPositionRepository()
	rail := paymem.NewRail()
	runner := uow.NewMemoryRunner(nil, nil, balances, operators, seriesRepo, subsRepo, positions, rail)

	ledger, err := billsapp.NewService(balances, operators, runner)
	if err != nil {
		t.Fatalf("bills service: %v", err)
	}
	adminCtx := auth.WithIdentity(context.Background(), "admin-1", auth.RoleAdmin)
	for _, operator := range []auth.Party{engineParty, marketParty} {
		if err := ledger.AddOperator(adminCtx, operator); err != nil {
			t.Fatalf("register operator %s: %v", operator, err)
		}
	}

	clock := &fixedClock{now: time.Unix(1500, 0).UTC()}
	accounting := &recordingAccounting{}
	engine, err := seriesapp.NewEngine(seriesRepo, subsRepo, ledger, rail, accounting, runner, engineParty, treasuryParty, seriesapp.WithClock(clock))
	if err != nil {
		t.Fatalf("series engine: %v", err)
	}
	market, err := NewMarket(positions, engine, ledger, rail, accounting, runner, 300, 500, marketParty, treasuryParty, WithClock(clock))
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}

	issuerCtx := auth.WithIdentity(context.Background(), "issuer-1", auth.RoleIssuer)
	if _, err := engine.CreateSeries(issuerCtx, seriesapp.CreateSeriesParams{
		ID:           "s1",
		IssueTime:    time.Unix(1000, 0).UTC(),
		MaturityTime: time.Unix(2000, 0).UTC(),
		IssuePrice:   fixedpoint.ParUnit,
		Cap:          1_000_000,
		UserCap:      1_000_000,
	}); err != nil {
		t.Fatalf("create series: %v", err)
	}
	if err := engine.ActivateSeries(issuerCtx, "s1"); err != nil {
		t.Fatalf("activate series: %v", err)
	}

	rail.Deposit("alice", 10_000)
	if _, err := engine.Subscribe(borrowerCtx("alice"), "s1", 10_000); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	return &marketHarness{
		market:     market,
		ledger:     ledger,
		rail:       rail,
		accounting: accounting,
		clock:      clock,
	}
}

func borrowerCtx(party auth.Party) context.Context {
	return auth.WithIdentity(context.Background(), party, auth.RoleMember)
}

func treasuryCtx() context.Context {
	return auth.WithIdentity(context.Background(), "treasury-1", auth.RoleTreasury)
}

func TestOpenRepoEnforcesMaxCash(t *testing.T) {
	h := newMarketHarness(t)
	deadline := time.Unix(2000, 0).UTC()

	// 10,000 collateral at par with a 300 bps haircut caps the loan at 9,700.
	if _, err := h.market.OpenRepo(borrowerCtx("alice"), "s1", 10_000, 9_701, deadline); !errors.Is(err, repomarket.ErrExceedsMaxCash) {
		t.Fatalf("expected ErrExceedsMaxCash, got %v", err)
	}

	id, err := h.market.OpenRepo(borrowerCtx("alice"), "s1", 10_000, 9_700, deadline)
	if err != nil {
		t.Fatalf("OpenRepo: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first position id 1, got %d", id)
	}

	position, err := h.market.GetPosition(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if position.Status != repomarket.StatusOpen {
		t.Fatalf("expected open status, got %s", position.Status)
	}
	// 9700 * 1.05 = 10185.
	if position.RepurchaseAmount != 10_185 {
		t.Fatalf("expected repurchase 10185, got %d", position.RepurchaseAmount)
	}

	custody, _ := h.ledger.BalanceOf(context.Background(), "s1", marketParty)
	if custody != 10_000 {
		t.Fatalf("expected collateral in custody, got %d", custody)
	}
	if got := h.rail.BalanceOf("alice"); got != 9_700 {
		t.Fatalf("expected alice disbursed 9700, got %d", got)
	}
	if h.accounting.lent != 9_700 {
		t.Fatalf("expected total lent 9700, got %d", h.accounting.lent)
	}
}

func TestOpenRepoDeadlineMustNotOutliveSeries(t *testing.T) {
	h := newMarketHarness(t)

	_, err := h.market.OpenRepo(borrowerCtx("alice"), "s1", 10_000, 9_000, time.Unix(2001, 0).UTC())
	if !errors.Is(err, repomarket.ErrInvalidDeadline) {
		t.Fatalf("expected ErrInvalidDeadline, got %v", err)
	}
}

func TestOpenRepoInsufficientCollateralRollsBack(t *testing.T) {
	h := newMarketHarness(t)

	_, err := h.market.OpenRepo(borrowerCtx("alice"), "s1", 20_000, 100, time.Unix(2000, 0).UTC())
	if !errors.Is(err, bills.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, _ := h.ledger.BalanceOf(context.Background(), "s1", "alice")
	if balance != 10_000 {
		t.Fatalf("collateral moved on failed open: %d", balance)
	}
	if h.accounting.lent != 0 {
		t.Fatalf("accounting recorded on failed open: %d", h.accounting.lent)
	}
}

func TestCloseRepoReturnsCollateral(t *testing.T) {
	h := newMarketHarness(t)
	deadline := time.Unix(2000, 0).UTC()
	id, err := h.market.OpenRepo(borrowerCtx("alice"), "s1", 10_000, 9_700, deadline)
	if err != nil {
		t.Fatalf("OpenRepo: %v", err)
	}
	// Cover the 485 spread on top of the disbursed 9,700.
	h.rail.Deposit("alice", 1_000)

	if err := h.market.CloseRepo(borrowerCtx("bob"), id); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("stranger close: expected ErrUnauthorized, got %v", err)
	}

	h.clock.now = time.Unix(1999, 0).UTC()
	if err := h.market.CloseRepo(borrowerCtx("alice"), id); err != nil {
		t.Fatalf("CloseRepo: %v", err)
	}

	position, _ := h.market.GetPosition(context.Background(), id)
	if position.Status != repomarket.StatusClosed {
		t.Fatalf("expected closed status, got %s", position.Status)
	}
	balance, _ := h.ledger.BalanceOf(context.Background(), "s1", "alice")
	if balance != 10_000 {
		t.Fatalf("expected collateral returned, got %d", balance)
	}
	custody, _ := h.ledger.BalanceOf(context.Background(), "s1", marketParty)
	if custody != 0 {
		t.Fatalf("expected empty custody, got %d", custody)
	}
	// 9700 * 500 bps = 485 margin; principal netted back out of lent.
	if h.accounting.lent != 0 || h.accounting.revenue != 485 {
		t.Fatalf("unexpected accounting: lent=%d revenue=%d", h.accounting.lent, h.accounting.revenue)
	}

	if err := h.market.CloseRepo(borrowerCtx("alice"), id); !errors.Is(err, repomarket.ErrInvalidStatus) {
		t.Fatalf("double close: expected ErrInvalidStatus, got %v", err)
	}
}

func TestCloseRepoAfterDeadlineFails(t *testing.T) {
	h := newMarketHarness(t)
	id, err := h.market.OpenRepo(borrowerCtx("alice"), "s1", 10_000, 9_700, time.Unix(2000, 0).UTC())
	if err != nil {
		t.Fatalf("OpenRepo: %v", err)
	}
	h.rail.Deposit("alice", 1_000)

	h.clock.now = time.Unix(2001, 0).UTC()
	if err := h.market.CloseRepo(borrowerCtx("alice"), id); !errors.Is(err, repomarket.ErrDeadlinePassed) {
		t.Fatalf("expected ErrDeadlinePassed, got %v", err)
	}
}

func TestClaimDefaultTimingAndAuth(t *testing.T) {
	h := newMarketHarness(t)
	id, err := h.market.OpenRepo(borrowerCtx("alice"), "s1", 10_000, 9_700, time.Unix(2000, 0).UTC())
	if err != nil {
		t.Fatalf("OpenRepo: %v", err)
	}

	if err := h.market.ClaimDefault(borrowerCtx("alice"), id); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("member claim: expected ErrUnauthorized, got %v", err)
	}

	h.clock.now = time.Unix(1999, 0).UTC()
	if err := h.market.ClaimDefault(treasuryCtx(), id); !errors.Is(err, repomarket.ErrDeadlineNotPassed) {
		t.Fatalf("early claim: expected ErrDeadlineNotPassed, got %v", err)
	}

	h.clock.now = time.Unix(2001, 0).UTC()
	if err := h.market.ClaimDefault(treasuryCtx(), id); err != nil {
		t.Fatalf("ClaimDefault: %v", err)
	}

	position, _ := h.market.GetPosition(context.Background(), id)
	if position.Status != repomarket.StatusDefaulted {
		t.Fatalf("expected defaulted status, got %s", position.Status)
	}
	claimed, _ := h.ledger.BalanceOf(context.Background(), "s1", treasuryParty)
	if claimed != 10_000 {
		t.Fatalf("expected collateral claimed by treasury, got %d", claimed)
	}
	if h.accounting.defaults != 1 || h.accounting.lent != 0 {
		t.Fatalf("unexpected accounting: defaults=%d lent=%d", h.accounting.defaults, h.accounting.lent)
	}

	if err := h.market.ClaimDefault(treasuryCtx(), id); !errors.Is(err, repomarket.ErrInvalidStatus) {
		t.Fatalf("double claim: expected ErrInvalidStatus, got %v", err)
	}
}

func TestPositionIDsAreSequential(t *testing.T) {
	h := newMarketHarness(t)
	deadline := time.Unix(2000, 0).UTC()

	first, err := h.market.OpenRepo(borrowerCtx("alice"), "s1", 4_000, 1_000, deadline)
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	second, err := h.market.OpenRepo(borrowerCtx("alice"), "s1", 4_000, 1_000, deadline)
	if err != nil {
		t.Fatalf("open second: %v", err)
	}
	if first != 1 || second != 2 {
		t.Fatalf("expected sequential ids 1,2; got %d,%d", first, second)
	}

	mine, err := h.market.ListPositions(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(mine))
	}
}
