package eventing

import "context"

// OutboxWriter inserts outbox records.
type OutboxWriter interface {
	Insert(ctx context.Context, env Envelope) (string, error)
}

// Publisher writes events to the outbox and dispatches them on the bus.
type Publisher struct {
	outbox OutboxWriter
	bus    EventBus
}

// NewPublisher constructs a publisher. The outbox is optional; the bus is
// not.
func NewPublisher(outbox OutboxWriter, bus EventBus) *Publisher {
	return &Publisher{outbox: outbox, bus: bus}
}

// Publish envelopes the event, persists it to the outbox when one is
// configured, and dispatches it to bus subscribers.
func (p *Publisher) Publish(ctx context.Context, event any) error {
	if p == nil || p.bus == nil {
		return nil
	}
	meta := MetaFromContext(ctx)
	env, err := BuildEnvelope(event, meta)
	if err != nil {
		return err
	}
	if p.outbox != nil {
		if _, err := p.outbox.Insert(ctx, env); err != nil {
			return err
		}
	}
	return p.bus.Publish(ctx, event)
}

// Subscribe registers a handler on the underlying bus.
func (p *Publisher) Subscribe(eventType string, handler EventHandler) {
	if p == nil || p.bus == nil {
		return
	}
	p.bus.Subscribe(eventType, handler)
}
