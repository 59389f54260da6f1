package repomarket

import "errors"

var (
	// ErrPositionNotFound is returned when a position id is unknown.
	ErrPositionNotFound = errors.New("repomarket: position not found")
	// ErrInvalidStatus is returned for an operation against a position in
	// the wrong lifecycle state.
	ErrInvalidStatus = errors.New("repomarket: invalid status")
	// ErrInvalidAmount is returned for non-positive or overflowing amounts.
	ErrInvalidAmount = errors.New("repomarket: invalid amount")
	// ErrExceedsMaxCash is returned when the requested cash exceeds the
	// haircut-adjusted collateral value.
	ErrExceedsMaxCash = errors.New("repomarket: exceeds max cash")
	// ErrInvalidDeadline is returned when the deadline falls after the
	// collateral series' maturity.
	ErrInvalidDeadline = errors.New("repomarket: invalid deadline")
	// ErrDeadlinePassed is returned when closing after the deadline.
	ErrDeadlinePassed = errors.New("repomarket: deadline passed")
	// ErrDeadlineNotPassed is returned when claiming default before the
	// deadline has passed.
	ErrDeadlineNotPassed = errors.New("repomarket: deadline not passed")
	// ErrInvalidBasisPoints is returned when a haircut or spread falls
	// outside [0, 10000].
	ErrInvalidBasisPoints = errors.New("repomarket: invalid basis points")
	// ErrNilPosition is returned when persisting a nil position.
	ErrNilPosition = errors.New("repomarket: nil position")
)
