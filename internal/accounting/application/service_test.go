package application

import (
	"context"
	"errors"
	"testing"

	accounting "tbill-market/internal/accounting/domain"
	"tbill-market/internal/accounting/infrastructure/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(memory.NewAccountingStore())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func TestRecordSubscriptionAccumulates(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if err := service.RecordSubscription(ctx, 9_800_000, 10_000_000); err != nil {
		t.Fatalf("RecordSubscription: %v", err)
	}
	if err := service.RecordSubscription(ctx, 4_900_000, 5_000_000); err != nil {
		t.Fatalf("RecordSubscription: %v", err)
	}

	record, err := service.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if record.TotalCashCollected != 14_700_000 {
		t.Fatalf("expected cash 14700000, got %d", record.TotalCashCollected)
	}
	if record.TotalLiabilityMinted != 15_000_000 {
		t.Fatalf("expected liability 15000000, got %d", record.TotalLiabilityMinted)
	}
}

func TestProfitMayGoNegative(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	// Discount issuance: collected cash sits below minted liability until
	// maturity.
	if err := service.RecordSubscription(ctx, 9_800_000, 10_000_000); err != nil {
		t.Fatalf("RecordSubscription: %v", err)
	}

	record, err := service.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	profit, err := record.Profit()
	if err != nil {
		t.Fatalf("Profit: %v", err)
	}
	if profit != -200_000 {
		t.Fatalf("expected profit -200000, got %d", profit)
	}
}

func TestLoanLifecycleAccounting(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if err := service.RecordSubscription(ctx, 10_000, 10_000); err != nil {
		t.Fatalf("RecordSubscription: %v", err)
	}
	if err := service.RecordLoanOpened(ctx, 9_700); err != nil {
		t.Fatalf("RecordLoanOpened: %v", err)
	}

	record, _ := service.Snapshot(ctx)
	available, err := record.AvailableForLending()
	if err != nil {
		t.Fatalf("AvailableForLending: %v", err)
	}
	if available != 300 {
		t.Fatalf("expected available 300 while loan open, got %d", available)
	}

	if err := service.RecordLoanClosed(ctx, 9_700, 485); err != nil {
		t.Fatalf("RecordLoanClosed: %v", err)
	}
	record, _ = service.Snapshot(ctx)
	if record.TotalLent != 0 || record.TotalRepoRevenue != 485 {
		t.Fatalf("unexpected totals after close: lent=%d revenue=%d", record.TotalLent, record.TotalRepoRevenue)
	}
	available, _ = record.AvailableForLending()
	if available != 10_485 {
		t.Fatalf("expected available 10485 after close, got %d", available)
	}
}

func TestRecordDefaultWritesOffPrincipal(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if err := service.RecordLoanOpened(ctx, 5_000); err != nil {
		t.Fatalf("RecordLoanOpened: %v", err)
	}
	if err := service.RecordDefault(ctx, 5_000); err != nil {
		t.Fatalf("RecordDefault: %v", err)
	}

	record, _ := service.Snapshot(ctx)
	if record.TotalLent != 0 {
		t.Fatalf("expected lent 0 after default, got %d", record.TotalLent)
	}
	if record.TotalDefaults != 1 {
		t.Fatalf("expected 1 default, got %d", record.TotalDefaults)
	}
}

func TestAvailableForLendingFloorsAtZero(t *testing.T) {
	record := &accounting.ProtocolAccounting{
		TotalCashCollected: 100,
		TotalLent:          500,
	}
	available, err := record.AvailableForLending()
	if err != nil {
		t.Fatalf("AvailableForLending: %v", err)
	}
	if available != 0 {
		t.Fatalf("expected floor at zero, got %d", available)
	}
}

func TestRecordRejectsNonPositiveAmounts(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if err := service.RecordSubscription(ctx, 0, 100); !errors.Is(err, accounting.ErrInvalidAmount) {
		t.Fatalf("zero cash: expected ErrInvalidAmount, got %v", err)
	}
	if err := service.RecordLoanOpened(ctx, -5); !errors.Is(err, accounting.ErrInvalidAmount) {
		t.Fatalf("negative principal: expected ErrInvalidAmount, got %v", err)
	}
	if err := service.RecordLoanClosed(ctx, 100, -1); !errors.Is(err, accounting.ErrInvalidAmount) {
		t.Fatalf("negative margin: expected ErrInvalidAmount, got %v", err)
	}
	if err := service.RecordDefault(ctx, 0); !errors.Is(err, accounting.ErrInvalidAmount) {
		t.Fatalf("zero default principal: expected ErrInvalidAmount, got %v", err)
	}
}
