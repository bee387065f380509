package location

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	dErrors "punchgate/pkg/domain-errors"
)

// State is the probe lifecycle visible to callers.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Probe performs a single-shot location read. One probe serves one attempt;
// rerunning the check means constructing a new probe. Permission-denied,
// timeout, and no-fix all surface as the same location_unavailable domain
// error because the state machine treats them identically.
type Probe struct {
	locator Locator
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	state  State
	sample Sample
	err    error
}

type ProbeOption func(*Probe)

func WithTimeout(timeout time.Duration) ProbeOption {
	return func(p *Probe) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) ProbeOption {
	return func(p *Probe) {
		p.logger = logger
	}
}

func WithClock(now func() time.Time) ProbeOption {
	return func(p *Probe) {
		p.now = now
	}
}

func NewProbe(locator Locator, opts ...ProbeOption) *Probe {
	p := &Probe{
		locator: locator,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
		now:     time.Now,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Request runs the probe: idle -> loading -> success | error. A second call
// on the same probe is an invalid-state error; the one-shot contract is part
// of the session semantics, not a convenience.
func (p *Probe) Request(ctx context.Context) (Sample, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return Sample{}, dErrors.New(dErrors.CodeInvalidState, "location probe already used")
	}
	p.state = StateLoading
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	sample, err := p.locator.Locate(ctx, Request{HighAccuracy: true, MaxAge: 0})
	if err != nil {
		derr := p.classify(err)
		p.mu.Lock()
		p.state = StateError
		p.err = derr
		p.mu.Unlock()
		p.logger.Warn("location probe failed", "error", err.Error())
		return Sample{}, derr
	}

	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = p.now()
	}

	p.mu.Lock()
	p.state = StateSuccess
	p.sample = sample
	p.mu.Unlock()
	return sample, nil
}

// classify maps locator failures onto the single location_unavailable code
// while keeping the specific cause in the message for user-visible reasons.
func (p *Probe) classify(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return dErrors.Wrap(err, dErrors.CodeLocationUnavailable, "location permission denied")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeLocationUnavailable, "location request timed out")
	case errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeLocationUnavailable, "location request cancelled")
	default:
		return dErrors.Wrap(err, dErrors.CodeLocationUnavailable, "position unavailable")
	}
}

// State returns the probe's current lifecycle state.
func (p *Probe) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Sample returns the fix when the probe succeeded.
func (p *Probe) Sample() (Sample, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sample, p.state == StateSuccess
}

// Err returns the classified failure when the probe errored.
func (p *Probe) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
