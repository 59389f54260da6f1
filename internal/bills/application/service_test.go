package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tbill-market/internal/auth"
	billevents "tbill-market/internal/bills/application/events"
	bills "tbill-market/internal/bills/domain"
	"tbill-market/internal/bills/infrastructure/memory"
	"tbill-market/internal/uow"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPublisher) Publish(ctx context.Context, event any) error {
	_ = ctx
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func newTestService(t *testing.T) (*Service, *memory.BalanceRepository, *recordingPublisher) {
	t.Helper()
	balances := memory.NewBalanceRepository()
	operators := memory.NewOperatorRepository()
	publisher := &recordingPublisher{}
	runner := uow.NewMemoryRunner(publisher, nil, balances, operators)
	service, err := NewService(balances, operators, runner)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service, balances, publisher
}

func adminCtx() context.Context {
	return auth.WithIdentity(context.Background(), "admin-1", auth.RoleAdmin)
}

func TestAddOperatorRequiresAdmin(t *testing.T) {
	service, _, _ := newTestService(t)

	memberCtx := auth.WithIdentity(context.Background(), "alice", auth.RoleMember)
	if err := service.AddOperator(memberCtx, "engine"); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := service.AddOperator(adminCtx(), "engine"); err != nil {
		t.Fatalf("admin add operator: %v", err)
	}
	operator, err := service.IsOperator(context.Background(), "engine")
	if err != nil {
		t.Fatalf("IsOperator: %v", err)
	}
	if !operator {
		t.Fatalf("expected engine to be an operator")
	}
}

func TestMintRequiresOperator(t *testing.T) {
	service, _, _ := newTestService(t)

	err := service.Mint(context.Background(), "stranger", "s1", "alice", 100)
	if !errors.Is(err, bills.ErrNotOperator) {
		t.Fatalf("expected ErrNotOperator, got %v", err)
	}
	balance, err := service.BalanceOf(context.Background(), "s1", "alice")
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero balance after failed mint, got %d", balance)
	}
}

func TestMintBurnConservation(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()
	if err := service.AddOperator(adminCtx(), "engine"); err != nil {
		t.Fatalf("add operator: %v", err)
	}

	if err := service.Mint(ctx, "engine", "s1", "alice", 700); err != nil {
		t.Fatalf("mint alice: %v", err)
	}
	if err := service.Mint(ctx, "engine", "s1", "bob", 300); err != nil {
		t.Fatalf("mint bob: %v", err)
	}
	if err := service.Burn(ctx, "engine", "s1", "alice", 200); err != nil {
		t.Fatalf("burn alice: %v", err)
	}

	total, err := service.TotalForSeries(ctx, "s1")
	if err != nil {
		t.Fatalf("TotalForSeries: %v", err)
	}
	if total != 800 {
		t.Fatalf("expected total 800 (minted 1000 minus burned 200), got %d", total)
	}
}

func TestBurnInsufficientBalance(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()
	if err := service.AddOperator(adminCtx(), "engine"); err != nil {
		t.Fatalf("add operator: %v", err)
	}
	if err := service.Mint(ctx, "engine", "s1", "alice", 100); err != nil {
		t.Fatalf("mint: %v", err)
	}

	err := service.Burn(ctx, "engine", "s1", "alice", 101)
	if !errors.Is(err, bills.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	balance, _ := service.BalanceOf(ctx, "s1", "alice")
	if balance != 100 {
		t.Fatalf("expected balance unchanged at 100, got %d", balance)
	}
}

func TestBurnToZeroRemovesRecord(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()
	if err := service.AddOperator(adminCtx(), "engine"); err != nil {
		t.Fatalf("add operator: %v", err)
	}
	if err := service.Mint(ctx, "engine", "s1", "alice", 50); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := service.Burn(ctx, "engine", "s1", "alice", 50); err != nil {
		t.Fatalf("burn: %v", err)
	}

	balance, err := service.BalanceOf(ctx, "s1", "alice")
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero balance, got %d", balance)
	}
	total, _ := service.TotalForSeries(ctx, "s1")
	if total != 0 {
		t.Fatalf("expected zero total, got %d", total)
	}
}

func TestTransferAuthorization(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()
	if err := service.AddOperator(adminCtx(), "engine"); err != nil {
		t.Fatalf("add operator: %v", err)
	}
	if err := service.Mint(ctx, "engine", "s1", "alice", 500); err != nil {
		t.Fatalf("mint: %v", err)
	}

	// A third party that is neither the source holder nor an operator.
	err := service.Transfer(ctx, "mallory", "s1", "alice", "bob", 100)
	if !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := service.Transfer(ctx, "alice", "s1", "alice", "bob", 100); err != nil {
		t.Fatalf("holder transfer: %v", err)
	}
	// Operators move balances on behalf of holders during protocol flows.
	if err := service.Transfer(ctx, "engine", "s1", "alice", "custody", 100); err != nil {
		t.Fatalf("operator transfer: %v", err)
	}

	aliceBalance, _ := service.BalanceOf(ctx, "s1", "alice")
	bobBalance, _ := service.BalanceOf(ctx, "s1", "bob")
	custodyBalance, _ := service.BalanceOf(ctx, "s1", "custody")
	if aliceBalance != 300 || bobBalance != 100 || custodyBalance != 100 {
		t.Fatalf("unexpected balances: alice=%d bob=%d custody=%d", aliceBalance, bobBalance, custodyBalance)
	}
}

func TestInvalidAmounts(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()
	if err := service.AddOperator(adminCtx(), "engine"); err != nil {
		t.Fatalf("add operator: %v", err)
	}

	if err := service.Mint(ctx, "engine", "s1", "alice", 0); !errors.Is(err, bills.ErrInvalidAmount) {
		t.Fatalf("mint zero: expected ErrInvalidAmount, got %v", err)
	}
	if err := service.Burn(ctx, "engine", "s1", "alice", -1); !errors.Is(err, bills.ErrInvalidAmount) {
		t.Fatalf("burn negative: expected ErrInvalidAmount, got %v", err)
	}
	if err := service.Transfer(ctx, "alice", "s1", "alice", "bob", 0); !errors.Is(err, bills.ErrInvalidAmount) {
		t.Fatalf("transfer zero: expected ErrInvalidAmount, got %v", err)
	}
}

func TestEventsPublishedOnCommitOnly(t *testing.T) {
	service, _, publisher := newTestService(t)
	ctx := context.Background()
	if err := service.AddOperator(adminCtx(), "engine"); err != nil {
		t.Fatalf("add operator: %v", err)
	}

	if err := service.Mint(ctx, "engine", "s1", "alice", 100); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := service.Burn(ctx, "engine", "s1", "alice", 200); err == nil {
		t.Fatalf("expected burn failure")
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if len(publisher.events) != 1 {
		t.Fatalf("expected exactly one published event, got %d", len(publisher.events))
	}
	minted, ok := publisher.events[0].(billevents.BillsMinted)
	if !ok {
		t.Fatalf("expected BillsMinted event, got %T", publisher.events[0])
	}
	if minted.SeriesID != "s1" || minted.To != "alice" || minted.Amount != 100 {
		t.Fatalf("unexpected event payload: %+v", minted)
	}
}
