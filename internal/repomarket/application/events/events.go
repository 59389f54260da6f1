package events

import "time"

// RepoOpened is emitted when a collateralized loan is opened.
type RepoOpened struct {
	PositionID       uint64    `json:"position_id"`
	Borrower         string    `json:"borrower"`
	SeriesID         string    `json:"series_id"`
	CollateralPar    int64     `json:"collateral_par"`
	CashDisbursed    int64     `json:"cash_disbursed"`
	RepurchaseAmount int64     `json:"repurchase_amount"`
	Deadline         time.Time `json:"deadline"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// RepoClosed is emitted when a borrower repurchases their collateral.
type RepoClosed struct {
	PositionID       uint64    `json:"position_id"`
	Borrower         string    `json:"borrower"`
	SeriesID         string    `json:"series_id"`
	RepurchaseAmount int64     `json:"repurchase_amount"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// RepoDefaulted is emitted when the treasury claims collateral after the
// deadline.
type RepoDefaulted struct {
	PositionID    uint64    `json:"position_id"`
	Borrower      string    `json:"borrower"`
	SeriesID      string    `json:"series_id"`
	CollateralPar int64     `json:"collateral_par"`
	OccurredAt    time.Time `json:"occurred_at"`
}
