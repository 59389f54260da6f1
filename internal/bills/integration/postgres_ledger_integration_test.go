package integration_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"tbill-market/internal/auth"
	billsapp "tbill-market/internal/bills/application"
	billspg "tbill-market/internal/bills/infrastructure/postgres"
	"tbill-market/internal/uow"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestLedgerRoundTrip_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "bill_balances") || !tableExists(db, "ledger_operators") {
		t.Skip("missing tables; run migrations")
	}

	ctx := context.Background()
	seriesID := fmt.Sprintf("itest-%d", time.Now().UnixNano())
	operator := auth.Party(fmt.Sprintf("itest-op-%d", time.Now().UnixNano()))
	alice := auth.Party("itest-alice")
	bob := auth.Party("itest-bob")
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, "DELETE FROM bill_balances WHERE series_id = $1", seriesID)
		_, _ = db.ExecContext(ctx, "DELETE FROM ledger_operators WHERE party = $1", string(operator))
	})

	runner, err := uow.NewPostgresRunner(db, nil, nil)
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	service, err := billsapp.NewService(billspg.NewBalanceRepository(db), billspg.NewOperatorRepository(db), runner)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	adminCtx := auth.WithIdentity(ctx, "itest-admin", auth.RoleAdmin)
	if err := service.AddOperator(adminCtx, operator); err != nil {
		t.Fatalf("AddOperator: %v", err)
	}

	if err := service.Mint(ctx, operator, seriesID, alice, 1_000); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := service.Transfer(ctx, alice, seriesID, alice, bob, 400); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := service.Burn(ctx, operator, seriesID, bob, 150); err != nil {
		t.Fatalf("Burn: %v", err)
	}

	if got, err := service.BalanceOf(ctx, seriesID, alice); err != nil || got != 600 {
		t.Fatalf("alice balance: got %d err %v", got, err)
	}
	if got, err := service.BalanceOf(ctx, seriesID, bob); err != nil || got != 250 {
		t.Fatalf("bob balance: got %d err %v", got, err)
	}
	if total, err := service.TotalForSeries(ctx, seriesID); err != nil || total != 850 {
		t.Fatalf("series total: got %d err %v", total, err)
	}

	// Burn past the balance must roll the whole unit back.
	if err := service.Burn(ctx, operator, seriesID, bob, 500); err == nil {
		t.Fatal("expected over-burn to fail")
	}
	if total, _ := service.TotalForSeries(ctx, seriesID); total != 850 {
		t.Fatalf("series total changed after failed burn: %d", total)
	}
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
