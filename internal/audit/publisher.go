package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher accepts events from domain logic and appends them to a Store.
// By default emission is synchronous; WithAsyncBuffer switches to a buffered
// channel drained by a background worker, with drain-on-close semantics.
// When the async buffer is full the event is dropped and logged rather than
// blocking the verification flow.
type Publisher struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	inbox chan Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan Event, size)
		}
	}
}

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithClock overrides the timestamp source. Tests use this for determinism.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records one event. In async mode a full buffer drops the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.Warn("audit buffer full, dropping event",
			"action", event.Action,
			"device", event.DeviceKey,
		)
		return nil
	}
}

// List returns the audit trail for a device.
func (p *Publisher) List(ctx context.Context, deviceKey string) ([]Event, error) {
	return p.store.ListByDevice(ctx, deviceKey)
}

// Close stops the background worker after draining buffered events.
// Safe to call more than once.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed",
				"action", event.Action,
				"error", err.Error(),
			)
		}
	}
}
