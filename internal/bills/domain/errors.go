package bills

import "errors"

var (
	// ErrInvalidAmount is returned for non-positive or overflowing amounts.
	ErrInvalidAmount = errors.New("bills: invalid amount")
	// ErrInsufficientBalance is returned when a burn or transfer exceeds the
	// holder's balance.
	ErrInsufficientBalance = errors.New("bills: insufficient balance")
	// ErrNotOperator is returned when a caller outside the operator set
	// attempts to mint or burn.
	ErrNotOperator = errors.New("bills: caller is not an operator")
	// ErrInvalidParty is returned when a party identifier is empty.
	ErrInvalidParty = errors.New("bills: invalid party")
	// ErrEmptySeriesID is returned when the series id is empty.
	ErrEmptySeriesID = errors.New("bills: empty series id")
)
