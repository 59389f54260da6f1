// Package payments abstracts the settlement-currency rail the protocol
// moves cash over. The core never holds cash itself; it instructs the rail
// to move value between parties (holders, treasury, borrowers).
package payments

import (
	"context"
	"errors"

	"tbill-market/internal/auth"
)

// Rail moves settlement currency between parties.
type Rail interface {
	Transfer(ctx context.Context, from, to auth.Party, amount int64) error
}

var (
	// ErrInvalidAmount is returned for non-positive transfer amounts.
	ErrInvalidAmount = errors.New("payments: invalid amount")
	// ErrInsufficientFunds is returned when the source party cannot cover
	// the transfer.
	ErrInsufficientFunds = errors.New("payments: insufficient funds")
)
