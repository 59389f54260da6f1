package eventing

import (
	"context"
	"sync"
)

type contextKey string

const (
	contextKeyBuffer contextKey = "eventing.buffer"
	contextKeyCorr   contextKey = "eventing.correlation_id"
)

// Buffer collects events raised inside an atomic unit of work. The unit of
// work publishes the buffered events only when the outermost unit commits.
type Buffer struct {
	mu     sync.Mutex
	events []any
}

// Record appends an event to the buffer.
func (b *Buffer) Record(event any) {
	if b == nil || event == nil {
		return
	}
	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()
}

// Drain returns and clears the buffered events.
func (b *Buffer) Drain() []any {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	events := b.events
	b.events = nil
	b.mu.Unlock()
	return events
}

// WithBuffer attaches an event buffer to the context.
func WithBuffer(ctx context.Context, buf *Buffer) context.Context {
	return context.WithValue(ctx, contextKeyBuffer, buf)
}

// BufferFromContext returns the attached buffer, if any.
func BufferFromContext(ctx context.Context) *Buffer {
	if ctx == nil {
		return nil
	}
	buf, _ := ctx.Value(contextKeyBuffer).(*Buffer)
	return buf
}

// Record buffers the event when a unit of work is in flight. Events recorded
// outside a unit of work are dropped; every state-changing operation runs
// inside one.
func Record(ctx context.Context, event any) {
	BufferFromContext(ctx).Record(event)
}

// WithCorrelationID sets the correlation id in context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, contextKeyCorr, correlationID)
}

// MetaFromContext builds envelope metadata from context.
func MetaFromContext(ctx context.Context) Meta {
	meta := Meta{}
	if ctx == nil {
		return meta
	}
	if corr, ok := ctx.Value(contextKeyCorr).(string); ok {
		meta.CorrelationID = corr
	}
	return meta
}
