package series

import (
	"time"

	"tbill-market/internal/fixedpoint"
)

// PriceAt returns the series' price at time t under linear accretion:
// the issue price before issue, par at or after maturity, and in between
// issue_price + (par - issue_price) * elapsed / total with integer
// division truncating toward zero. Price is non-decreasing in t.
func (s *Series) PriceAt(t time.Time) (int64, error) {
	if s == nil {
		return 0, ErrNilSeries
	}
	issue := s.IssueTime.Unix()
	maturity := s.MaturityTime.Unix()
	now := t.Unix()

	if now <= issue {
		return s.IssuePrice, nil
	}
	if now >= maturity {
		return fixedpoint.ParUnit, nil
	}

	accretion, err := fixedpoint.MulDiv(fixedpoint.ParUnit-s.IssuePrice, now-issue, maturity-issue)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	price, err := fixedpoint.Add(s.IssuePrice, accretion)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return price, nil
}

// MintedPar converts a cash payment into bill par quantity at the given
// price: pay * par / price, integer division. A non-positive price or an
// overflowing intermediate yields ErrInvalidAmount.
func MintedPar(payAmount, price int64) (int64, error) {
	if payAmount <= 0 || price <= 0 {
		return 0, ErrInvalidAmount
	}
	minted, err := fixedpoint.MulDiv(payAmount, fixedpoint.ParUnit, price)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return minted, nil
}
