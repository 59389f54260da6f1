package repomarket

import "tbill-market/internal/fixedpoint"

// ValidBps reports whether a haircut or spread lies in [0, 10000].
func ValidBps(bps int64) bool {
	return bps >= 0 && bps <= fixedpoint.BasisPoints
}

// MaxCash returns the most cash lendable against collateral: the
// collateral's mark value discounted by the haircut,
// collateral * price / par * (10000 - haircut) / 10000, truncating.
func MaxCash(collateralPar, markPrice, haircutBps int64) (int64, error) {
	if collateralPar <= 0 || markPrice <= 0 {
		return 0, ErrInvalidAmount
	}
	if !ValidBps(haircutBps) {
		return 0, ErrInvalidBasisPoints
	}
	value, err := fixedpoint.MulDiv(collateralPar, markPrice, fixedpoint.ParUnit)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	maxCash, err := fixedpoint.MulDiv(value, fixedpoint.BasisPoints-haircutBps, fixedpoint.BasisPoints)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return maxCash, nil
}

// RepurchaseAmount returns the cash owed at close: the disbursed amount
// marked up by the spread, cash * (10000 + spread) / 10000, truncating.
func RepurchaseAmount(cashDisbursed, spreadBps int64) (int64, error) {
	if cashDisbursed <= 0 {
		return 0, ErrInvalidAmount
	}
	if !ValidBps(spreadBps) {
		return 0, ErrInvalidBasisPoints
	}
	repurchase, err := fixedpoint.MulDiv(cashDisbursed, fixedpoint.BasisPoints+spreadBps, fixedpoint.BasisPoints)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return repurchase, nil
}
