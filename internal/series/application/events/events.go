package events

import "time"

// SeriesCreated is emitted when an issuer creates a series.
type SeriesCreated struct {
	SeriesID     string    `json:"series_id"`
	IssueTime    time.Time `json:"issue_time"`
	MaturityTime time.Time `json:"maturity_time"`
	IssuePrice   int64     `json:"issue_price"`
	Cap          int64     `json:"cap"`
	UserCap      int64     `json:"user_cap"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// SeriesActivated is emitted when a series starts accepting subscriptions.
type SeriesActivated struct {
	SeriesID   string    `json:"series_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SeriesMatured is emitted when a series transitions to matured.
type SeriesMatured struct {
	SeriesID   string    `json:"series_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Subscribed is emitted when a holder subscribes to a series.
type Subscribed struct {
	SeriesID   string    `json:"series_id"`
	Holder     string    `json:"holder"`
	PayAmount  int64     `json:"pay_amount"`
	Price      int64     `json:"price"`
	MintedPar  int64     `json:"minted_par"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Redeemed is emitted when a holder redeems matured bills at par.
type Redeemed struct {
	SeriesID   string    `json:"series_id"`
	Holder     string    `json:"holder"`
	BillAmount int64     `json:"bill_amount"`
	OccurredAt time.Time `json:"occurred_at"`
}
