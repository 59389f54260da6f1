package repomarket

import (
	"errors"
	"testing"

	"tbill-market/internal/fixedpoint"
)

func TestMaxCashAppliesHaircut(t *testing.T) {
	// 10,000 units of collateral at par with a 300 bps haircut lends at
	// most 9,700 units.
	collateral := int64(10_000) * fixedpoint.ParUnit
	maxCash, err := MaxCash(collateral, fixedpoint.ParUnit, 300)
	if err != nil {
		t.Fatalf("MaxCash: %v", err)
	}
	if want := int64(9_700) * fixedpoint.ParUnit; maxCash != want {
		t.Fatalf("expected %d, got %d", want, maxCash)
	}
}

func TestMaxCashUsesMarkPrice(t *testing.T) {
	// Collateral marked below par is worth less before the haircut.
	maxCash, err := MaxCash(10_000, 9_900_000, 300)
	if err != nil {
		t.Fatalf("MaxCash: %v", err)
	}
	// 10000 * 0.99 = 9900, then * 0.97 = 9603.
	if maxCash != 9_603 {
		t.Fatalf("expected 9603, got %d", maxCash)
	}
}

func TestMaxCashRejectsBadInputs(t *testing.T) {
	if _, err := MaxCash(0, fixedpoint.ParUnit, 300); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero collateral: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := MaxCash(100, 0, 300); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero price: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := MaxCash(100, fixedpoint.ParUnit, -1); !errors.Is(err, ErrInvalidBasisPoints) {
		t.Fatalf("negative haircut: expected ErrInvalidBasisPoints, got %v", err)
	}
	if _, err := MaxCash(100, fixedpoint.ParUnit, fixedpoint.BasisPoints+1); !errors.Is(err, ErrInvalidBasisPoints) {
		t.Fatalf("haircut above 10000: expected ErrInvalidBasisPoints, got %v", err)
	}
}

func TestRepurchaseAmountAppliesSpread(t *testing.T) {
	repurchase, err := RepurchaseAmount(1_000, 500)
	if err != nil {
		t.Fatalf("RepurchaseAmount: %v", err)
	}
	if repurchase != 1_050 {
		t.Fatalf("expected 1050, got %d", repurchase)
	}

	// Zero spread repays exactly the principal.
	repurchase, err = RepurchaseAmount(1_000, 0)
	if err != nil {
		t.Fatalf("RepurchaseAmount: %v", err)
	}
	if repurchase != 1_000 {
		t.Fatalf("expected 1000, got %d", repurchase)
	}
}

func TestRepurchaseAmountRejectsBadInputs(t *testing.T) {
	if _, err := RepurchaseAmount(0, 500); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero cash: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := RepurchaseAmount(1_000, fixedpoint.BasisPoints+1); !errors.Is(err, ErrInvalidBasisPoints) {
		t.Fatalf("spread above 10000: expected ErrInvalidBasisPoints, got %v", err)
	}
}
