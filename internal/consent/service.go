package consent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"punchgate/internal/audit"
	dErrors "punchgate/pkg/domain-errors"
	"punchgate/pkg/platform/sentinel"
)

// Service owns the consent gate. Reads happen synchronously before every
// gated action; a grant is only accepted when both capability flags arrive
// true together. There is no silent default and no partial grant.
type Service struct {
	store     Store
	publisher *audit.Publisher
	logger    *slog.Logger
	now       func() time.Time
	retention int
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

// WithClock overrides the timestamp source for grants.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRetentionDays overrides the retention policy recorded on new grants.
func WithRetentionDays(days int) Option {
	return func(s *Service) {
		s.retention = days
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("consent store is required")
	}

	svc := &Service{
		store:     store,
		logger:    slog.Default(),
		now:       time.Now,
		retention: DefaultRetentionDays,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Read returns the device's consent record, or CodeNotFound when no grant is
// on record. An incomplete record in storage is treated as absent rather
// than honored.
func (s *Service) Read(ctx context.Context, deviceKey string) (*Record, error) {
	record, err := s.store.Read(ctx, deviceKey)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "no consent on record")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read consent")
	}
	if !record.Complete() {
		return nil, dErrors.New(dErrors.CodeNotFound, "no consent on record")
	}
	return record, nil
}

// Grant validates and persists a dual-flag consent decision. A partial grant
// is rejected with a validation error and writes nothing.
func (s *Service) Grant(ctx context.Context, deviceKey string, camera, location bool) (*Record, error) {
	if !camera || !location {
		s.emit(ctx, audit.Event{
			DeviceKey: deviceKey,
			Action:    audit.EventConsentRejected,
			Outcome:   "rejected",
			Reason:    "partial grant",
		})
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			"both camera and location consent are required")
	}

	record := Record{
		Camera:        true,
		Location:      true,
		AcceptedAt:    s.now(),
		RetentionDays: s.retention,
	}
	if err := s.store.Save(ctx, deviceKey, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist consent")
	}

	s.logger.InfoContext(ctx, "consent granted", "device", deviceKey)
	s.emit(ctx, audit.Event{
		DeviceKey: deviceKey,
		Action:    audit.EventConsentGranted,
		Outcome:   "granted",
	})
	return &record, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err.Error())
	}
}
