package clock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"punchgate/internal/audit"
	"punchgate/internal/capture"
	"punchgate/internal/consent"
	"punchgate/internal/location"
	"punchgate/internal/platform/metrics"
	"punchgate/internal/zones"
	"punchgate/pkg/domain"
	dErrors "punchgate/pkg/domain-errors"
)

// Service is the clock state machine. It owns the attendance status, opens
// at most one verification session at a time, and is the only place a
// ClockEvent can be produced. Status changes happen exclusively on a fully
// verified confirm; every other path leaves it untouched.
type Service struct {
	consent   *consent.Service
	zones     zones.Provider
	device    capture.Device
	locator   location.Locator
	submitter Submitter

	publisher    *audit.Publisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	tracer       trace.Tracer
	now          func() time.Time
	probeTimeout time.Duration

	mu      sync.Mutex
	status  domain.AttendanceStatus
	session *Session
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithProbeTimeout overrides the per-probe location budget.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.probeTimeout = timeout
		}
	}
}

func New(
	consentSvc *consent.Service,
	provider zones.Provider,
	device capture.Device,
	locator location.Locator,
	submitter Submitter,
	opts ...Option,
) (*Service, error) {
	if consentSvc == nil {
		return nil, fmt.Errorf("consent service is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("zone provider is required")
	}
	if device == nil {
		return nil, fmt.Errorf("capture device is required")
	}
	if locator == nil {
		return nil, fmt.Errorf("locator is required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}

	svc := &Service{
		consent:      consentSvc,
		zones:        provider,
		device:       device,
		locator:      locator,
		submitter:    submitter,
		logger:       slog.Default(),
		tracer:       otel.Tracer("punchgate/clock"),
		now:          time.Now,
		probeTimeout: location.DefaultTimeout,
		status:       domain.StatusNotClockedIn,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Status returns the current attendance status.
func (s *Service) Status() domain.AttendanceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Session returns the active verification session, if one is open.
func (s *Service) Session() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.Done() {
		return nil, false
	}
	return s.session, true
}

// Request begins the verification protocol for an attendance transition.
// Order matters: the transition guard rejects first (no session, no
// capability touched), then the single-flight check, then the consent gate.
// Only after all three does a session open and start its capability tasks.
func (s *Service) Request(ctx context.Context, action domain.Action, deviceKey string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "clock.request",
		trace.WithAttributes(attribute.String("action", action.String())))
	defer span.End()

	if !action.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid action")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	want := transitions[action]
	if s.status != want.from {
		return nil, dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("cannot %s while %s", action, s.status))
	}

	if s.session != nil && !s.session.Done() {
		return nil, dErrors.New(dErrors.CodeConflict, "a verification session is already active")
	}

	if _, err := s.consent.Read(ctx, deviceKey); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			s.metrics.IncrementConsentDenials()
			return nil, dErrors.Wrap(err, dErrors.CodeConsentRequired,
				"camera and location consent must be granted first")
		}
		return nil, err
	}

	zoneList, err := s.zones.Zones(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load zone list")
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	session := &Session{
		id:           domain.NewSessionID(),
		action:       action,
		deviceKey:    deviceKey,
		ctx:          sessionCtx,
		cancelCtx:    cancel,
		ready:        make(chan struct{}),
		device:       s.device,
		locator:      s.locator,
		zones:        zoneList,
		probeTimeout: s.probeTimeout,
		now:          s.now,
		logger:       s.logger,
		metrics:      s.metrics,
		publisher:    s.publisher,
	}
	s.session = session
	session.start()

	s.metrics.IncrementSessionsOpened()
	s.emit(ctx, audit.Event{
		DeviceKey: deviceKey,
		SessionID: session.id,
		Action:    audit.EventSessionOpened,
		Outcome:   action.String(),
	})
	s.logger.InfoContext(ctx, "verification session opened",
		"session_id", session.id,
		"action", action,
		"device", deviceKey,
	)
	return session, nil
}

// Confirm commits the active session: the status transition, the one
// ClockEvent, the audit record, and the handoff to the submitter. Submission
// failures are logged and audited but do not roll back the committed state;
// durable delivery is the collaborator's concern.
func (s *Service) Confirm(ctx context.Context) (*Event, error) {
	ctx, span := s.tracer.Start(ctx, "clock.confirm")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no active verification session")
	}
	session := s.session

	event, err := session.confirm(domain.NewEventID)
	if err != nil {
		return nil, err
	}

	s.status = transitions[session.action].to
	s.session = nil

	s.metrics.IncrementEventsCommitted(event.Action.String())
	s.emit(ctx, audit.Event{
		DeviceKey: session.deviceKey,
		SessionID: session.id,
		Action:    audit.EventClockCommitted,
		Outcome:   event.Action.String(),
	})
	s.logger.InfoContext(ctx, "clock event committed",
		"session_id", session.id,
		"event_id", event.ID,
		"action", event.Action,
		"status", s.status,
	)

	if err := s.submitter.Submit(ctx, *event); err != nil {
		s.logger.ErrorContext(ctx, "event submission failed",
			"event_id", event.ID,
			"error", err.Error(),
		)
	}
	return event, nil
}

// Cancel aborts the active session, releasing every acquired resource and
// leaving the attendance status untouched. A no-op when nothing is active.
func (s *Service) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	session := s.session
	s.session = nil

	if session.cancel() {
		s.metrics.IncrementSessionsCancelled()
		s.emit(ctx, audit.Event{
			DeviceKey: session.deviceKey,
			SessionID: session.id,
			Action:    audit.EventSessionCancelled,
			Outcome:   session.action.String(),
		})
		s.logger.InfoContext(ctx, "verification session cancelled",
			"session_id", session.id,
			"action", session.action,
		)
	}
	return nil
}

// Capture delegates a frame grab to the active session.
func (s *Service) Capture(ctx context.Context) (*capture.Frame, error) {
	session, err := s.activeSession()
	if err != nil {
		return nil, err
	}
	return session.Capture(ctx)
}

// Retake delegates a frame discard to the active session.
func (s *Service) Retake(ctx context.Context) error {
	session, err := s.activeSession()
	if err != nil {
		return err
	}
	return session.Retake()
}

// RerunProbe re-runs the location check on the active session.
func (s *Service) RerunProbe(ctx context.Context) error {
	session, err := s.activeSession()
	if err != nil {
		return err
	}
	return session.RerunProbe(ctx)
}

// Snapshot returns the active session's gating state.
func (s *Service) Snapshot() (Snapshot, error) {
	session, err := s.activeSession()
	if err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

func (s *Service) activeSession() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.Done() {
		return nil, dErrors.New(dErrors.CodeNotFound, "no active verification session")
	}
	return s.session, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err.Error())
	}
}
