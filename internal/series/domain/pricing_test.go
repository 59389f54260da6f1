package series

import (
	"errors"
	"testing"
	"time"

	"tbill-market/internal/fixedpoint"
)

func testSeries(issueUnix, maturityUnix, issuePrice int64) *Series {
	return &Series{
		ID:           "s1",
		IssueTime:    time.Unix(issueUnix, 0).UTC(),
		MaturityTime: time.Unix(maturityUnix, 0).UTC(),
		IssuePrice:   issuePrice,
		Cap:          100 * fixedpoint.ParUnit,
		UserCap:      100 * fixedpoint.ParUnit,
		Status:       StatusActive,
	}
}

func TestPriceLinearAccretion(t *testing.T) {
	// issue price 0.98, par 1.0, window [1000, 2000]: halfway is 0.99.
	s := testSeries(1000, 2000, 9_800_000)

	price, err := s.PriceAt(time.Unix(1500, 0))
	if err != nil {
		t.Fatalf("PriceAt: %v", err)
	}
	if price != 9_900_000 {
		t.Fatalf("expected price 9900000 at midpoint, got %d", price)
	}
}

func TestPriceBounds(t *testing.T) {
	s := testSeries(1000, 2000, 9_800_000)

	cases := []struct {
		name string
		at   int64
		want int64
	}{
		{"before issue", 500, 9_800_000},
		{"at issue", 1000, 9_800_000},
		{"at maturity", 2000, fixedpoint.ParUnit},
		{"after maturity", 5000, fixedpoint.ParUnit},
	}
	for _, tc := range cases {
		price, err := s.PriceAt(time.Unix(tc.at, 0))
		if err != nil {
			t.Fatalf("%s: PriceAt: %v", tc.name, err)
		}
		if price != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, price)
		}
	}
}

func TestPriceMonotoneNonDecreasing(t *testing.T) {
	s := testSeries(1000, 2000, 9_123_456)

	previous := int64(0)
	for at := int64(900); at <= 2100; at += 7 {
		price, err := s.PriceAt(time.Unix(at, 0))
		if err != nil {
			t.Fatalf("PriceAt(%d): %v", at, err)
		}
		if price < previous {
			t.Fatalf("price decreased at t=%d: %d < %d", at, price, previous)
		}
		if price < s.IssuePrice || price > fixedpoint.ParUnit {
			t.Fatalf("price out of bounds at t=%d: %d", at, price)
		}
		previous = price
	}
}

func TestMintedParAtDiscount(t *testing.T) {
	// Paying 0.95 cash at price 0.95 mints exactly 1.0 par.
	minted, err := MintedPar(9_500_000, 9_500_000)
	if err != nil {
		t.Fatalf("MintedPar: %v", err)
	}
	if minted != 10_000_000 {
		t.Fatalf("expected 10000000, got %d", minted)
	}
}

func TestMintedParTruncates(t *testing.T) {
	minted, err := MintedPar(100, 9_999_999)
	if err != nil {
		t.Fatalf("MintedPar: %v", err)
	}
	// 100 * 10000000 / 9999999 = 100.0000100..., truncated to 100.
	if minted != 100 {
		t.Fatalf("expected 100, got %d", minted)
	}
}

func TestMintedParRejectsBadInputs(t *testing.T) {
	if _, err := MintedPar(0, 9_500_000); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero pay: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := MintedPar(100, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero price: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := MintedPar(100, -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative price: expected ErrInvalidAmount, got %v", err)
	}
}

func TestSeriesValidate(t *testing.T) {
	base := func() *Series { return testSeries(1000, 2000, 9_800_000) }

	if err := base().Validate(); err != nil {
		t.Fatalf("valid series rejected: %v", err)
	}

	s := base()
	s.MaturityTime = s.IssueTime
	if err := s.Validate(); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("maturity == issue: expected ErrInvalidTimestamp, got %v", err)
	}

	s = base()
	s.IssuePrice = 0
	if err := s.Validate(); !errors.Is(err, ErrInvalidIssuePrice) {
		t.Fatalf("zero price: expected ErrInvalidIssuePrice, got %v", err)
	}

	s = base()
	s.IssuePrice = fixedpoint.ParUnit + 1
	if err := s.Validate(); !errors.Is(err, ErrInvalidIssuePrice) {
		t.Fatalf("price above par: expected ErrInvalidIssuePrice, got %v", err)
	}

	s = base()
	s.UserCap = s.Cap + 1
	if err := s.Validate(); !errors.Is(err, ErrInvalidCapAmounts) {
		t.Fatalf("user cap above cap: expected ErrInvalidCapAmounts, got %v", err)
	}

	s = base()
	s.Cap = 0
	s.UserCap = 0
	if err := s.Validate(); !errors.Is(err, ErrInvalidCapAmounts) {
		t.Fatalf("zero caps: expected ErrInvalidCapAmounts, got %v", err)
	}
}
