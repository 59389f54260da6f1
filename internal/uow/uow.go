// Package uow runs protocol operations as atomic units of work. Every
// public state-changing operation executes inside exactly one unit: nested
// calls between components join the outer unit, a failure anywhere unwinds
// all of the unit's state changes, and domain events recorded during the
// unit are published only after it commits.
package uow

import (
	"context"
	"log"

	"tbill-market/internal/eventing"
)

// Runner executes fn as one atomic unit of work.
type Runner interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher publishes committed domain events.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

type contextKey string

const contextKeyInFlight contextKey = "uow.in_flight"

func markInFlight(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKeyInFlight, true)
}

// InFlight reports whether a unit of work is already running on this
// context.
func InFlight(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	flag, _ := ctx.Value(contextKeyInFlight).(bool)
	return flag
}

func publishBuffered(ctx context.Context, publisher Publisher, buf *eventing.Buffer, logger *log.Logger) {
	if publisher == nil {
		return
	}
	for _, event := range buf.Drain() {
		if err := publisher.Publish(ctx, event); err != nil && logger != nil {
			logger.Printf("uow: publish event: %v", err)
		}
	}
}
