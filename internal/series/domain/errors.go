package series

import "errors"

var (
	// ErrSeriesNotFound is returned when a series id is unknown.
	ErrSeriesNotFound = errors.New("series: not found")
	// ErrSeriesExists is returned when creating a series whose id is taken.
	ErrSeriesExists = errors.New("series: already exists")
	// ErrEmptySeriesID is returned when the series id is empty.
	ErrEmptySeriesID = errors.New("series: empty series id")
	// ErrInvalidTimestamp is returned when maturity does not follow issue.
	ErrInvalidTimestamp = errors.New("series: invalid timestamps")
	// ErrInvalidIssuePrice is returned when the issue price is outside
	// (0, par].
	ErrInvalidIssuePrice = errors.New("series: invalid issue price")
	// ErrInvalidCapAmounts is returned when a cap is non-positive or the
	// per-holder cap exceeds the series cap.
	ErrInvalidCapAmounts = errors.New("series: invalid cap amounts")
	// ErrInvalidAmount is returned for non-positive or overflowing amounts.
	ErrInvalidAmount = errors.New("series: invalid amount")
	// ErrSeriesNotActive is returned when subscribing outside Active status.
	ErrSeriesNotActive = errors.New("series: not active")
	// ErrSeriesNotMatured is returned when a time-gated operation runs
	// before maturity.
	ErrSeriesNotMatured = errors.New("series: not matured")
	// ErrInvalidStatus is returned for a lifecycle transition from the
	// wrong status.
	ErrInvalidStatus = errors.New("series: invalid status")
	// ErrExceedsSeriesCap is returned when a subscription would push minted
	// past the series cap.
	ErrExceedsSeriesCap = errors.New("series: exceeds series cap")
	// ErrExceedsUserCap is returned when a holder's cumulative subscription
	// would exceed the per-holder cap.
	ErrExceedsUserCap = errors.New("series: exceeds user cap")
	// ErrNilSeries is returned when persisting a nil series.
	ErrNilSeries = errors.New("series: nil series")
)
