package fixedpoint

import (
	"errors"
	"math"
	"testing"
)

func TestAdd(t *testing.T) {
	sum, err := Add(2*Scale, 3*Scale)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum != 5*Scale {
		t.Fatalf("expected %d, got %d", 5*Scale, sum)
	}
}

func TestAdd_Overflow(t *testing.T) {
	if _, err := Add(math.MaxInt64, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := Add(math.MinInt64, -1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestSub_Overflow(t *testing.T) {
	if _, err := Sub(math.MinInt64, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestMulDiv_Truncates(t *testing.T) {
	got, err := MulDiv(7, 3, 2)
	if err != nil {
		t.Fatalf("muldiv: %v", err)
	}
	if got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}

	got, err = MulDiv(-7, 3, 2)
	if err != nil {
		t.Fatalf("muldiv: %v", err)
	}
	if got != -10 {
		t.Fatalf("expected -10 (truncation toward zero), got %d", got)
	}
}

func TestMulDiv_LargeIntermediate(t *testing.T) {
	// 1,000,000 units of par times par unit overflows int64 before dividing.
	amount := 1_000_000 * Scale
	got, err := MulDiv(amount, ParUnit, ParUnit)
	if err != nil {
		t.Fatalf("muldiv: %v", err)
	}
	if got != amount {
		t.Fatalf("expected %d, got %d", amount, got)
	}
}

func TestMulDiv_DivideByZero(t *testing.T) {
	if _, err := MulDiv(1, 1, 0); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected divide by zero, got %v", err)
	}
}

func TestMulDiv_QuotientOverflow(t *testing.T) {
	if _, err := MulDiv(math.MaxInt64, 2, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}
