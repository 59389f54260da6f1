package events

import "time"

// BillsMinted is emitted when bills are minted to a holder.
type BillsMinted struct {
	SeriesID   string    `json:"series_id"`
	To         string    `json:"to"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BillsBurned is emitted when bills are burned from a holder.
type BillsBurned struct {
	SeriesID   string    `json:"series_id"`
	From       string    `json:"from"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BillsTransferred is emitted when bills move between holders.
type BillsTransferred struct {
	SeriesID   string    `json:"series_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}
