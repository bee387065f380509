package clock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"punchgate/internal/audit"
	"punchgate/internal/capture"
	"punchgate/internal/geofence"
	"punchgate/internal/location"
	"punchgate/internal/platform/metrics"
	"punchgate/pkg/domain"
	dErrors "punchgate/pkg/domain-errors"
)

// Session is one verification attempt for one attendance transition. It owns
// a capture session and a location probe, started concurrently; their
// outputs combine only at the gating points below. Cancelling the session
// cancels any in-flight capability request via the session context, so a
// closed dialog never leaves dangling callbacks.
type Session struct {
	id        domain.SessionID
	action    domain.Action
	deviceKey string

	ctx       context.Context
	cancelCtx context.CancelFunc
	ready     chan struct{}

	device       capture.Device
	locator      location.Locator
	zones        []geofence.Zone
	probeTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics
	publisher    *audit.Publisher

	mu        sync.Mutex
	capture   *capture.Session
	probe     *location.Probe
	sample    *location.Sample
	proximity *geofence.ProximityResult
	done      bool
}

// Snapshot is the session state exposed to the UI layer. Every blocking
// condition carries a specific reason rather than a catch-all message.
type Snapshot struct {
	ID             domain.SessionID   `json:"id"`
	Action         domain.Action      `json:"action"`
	LocationState  location.State     `json:"location_state"`
	LocationError  string             `json:"location_error,omitempty"`
	Proximity      *ProximitySnapshot `json:"proximity,omitempty"`
	CaptureState   capture.State      `json:"capture_state"`
	CaptureError   string             `json:"capture_error,omitempty"`
	HasFrame       bool               `json:"has_frame"`
	CaptureEnabled bool               `json:"capture_enabled"`
	ConfirmEnabled bool               `json:"confirm_enabled"`
	Reason         string             `json:"reason"`
}

// ProximitySnapshot summarizes the last geofence evaluation.
type ProximitySnapshot struct {
	InsideAny       bool    `json:"inside_any"`
	NearestZoneID   string  `json:"nearest_zone_id,omitempty"`
	NearestZoneName string  `json:"nearest_zone_name,omitempty"`
	DistanceMeters  float64 `json:"distance_meters,omitempty"`
	OutsideByMeters float64 `json:"outside_by_meters,omitempty"`
}

// start launches the camera acquisition and the location probe concurrently.
// Neither depends on the other; gating happens in the snapshot logic.
func (s *Session) start() {
	go func() {
		g := new(errgroup.Group)
		g.Go(func() error {
			cap := capture.Open(s.ctx, s.device,
				capture.WithClock(s.now),
				capture.WithLogger(s.logger),
			)
			s.mu.Lock()
			if s.done {
				// Cancelled while acquiring; release the track immediately.
				s.mu.Unlock()
				cap.Close()
				return nil
			}
			s.capture = cap
			s.mu.Unlock()
			return nil
		})
		g.Go(func() error {
			s.runProbe(s.ctx)
			return nil
		})
		_ = g.Wait()
		close(s.ready)
	}()
}

// runProbe performs one location read and feeds the result through the
// geofence engine. Failures stay inside session state.
func (s *Session) runProbe(ctx context.Context) {
	probe := location.NewProbe(s.locator,
		location.WithTimeout(s.probeTimeout),
		location.WithLogger(s.logger),
		location.WithClock(s.now),
	)
	s.mu.Lock()
	s.probe = probe
	s.sample = nil
	s.proximity = nil
	s.mu.Unlock()

	sample, err := probe.Request(ctx)
	if err != nil {
		s.metrics.IncrementProbeFailures()
		return
	}

	result := geofence.Evaluate(
		geofence.Point{Latitude: sample.Latitude, Longitude: sample.Longitude},
		s.zones,
	)
	if !result.InsideAny {
		s.metrics.IncrementGeofenceViolations()
		s.emitViolation(ctx, result)
	}

	s.mu.Lock()
	s.sample = &sample
	s.proximity = &result
	s.mu.Unlock()
}

// emitViolation records an outside-geofence fix on the audit trail.
func (s *Session) emitViolation(ctx context.Context, result geofence.ProximityResult) {
	if s.publisher == nil {
		return
	}
	event := audit.Event{
		DeviceKey: s.deviceKey,
		SessionID: s.id,
		Action:    audit.EventGeofenceViolation,
		Outcome:   s.action.String(),
	}
	if nearest, ok := result.Nearest(); ok {
		event.ZoneID = nearest.Zone.ID
		event.Reason = fmt.Sprintf("%.0f m beyond nearest zone boundary",
			nearest.DistanceMeters-nearest.Zone.RadiusMeters)
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err.Error())
	}
}

// Wait blocks until the camera and the first probe have both settled, or the
// given context is cancelled. Snapshot is valid before readiness; Wait only
// spares pollers.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ID returns the session identifier.
func (s *Session) ID() domain.SessionID {
	return s.id
}

// Action returns the transition this session is verifying.
func (s *Session) Action() domain.Action {
	return s.action
}

// Done reports whether the session has been confirmed or cancelled.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// locationVerified: a successful fresh fix inside at least one zone.
// Callers must hold s.mu.
func (s *Session) locationVerified() bool {
	return s.sample != nil && s.proximity != nil && s.proximity.InsideAny
}

// Snapshot returns the current gating state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:            s.id,
		Action:        s.action,
		LocationState: location.StateIdle,
		CaptureState:  capture.StateLive,
	}

	if s.probe != nil {
		snap.LocationState = s.probe.State()
		if err := s.probe.Err(); err != nil {
			snap.LocationError = dErrors.MessageOf(err)
		}
	}
	if s.proximity != nil {
		p := &ProximitySnapshot{InsideAny: s.proximity.InsideAny}
		if nearest, ok := s.proximity.Nearest(); ok {
			p.NearestZoneID = nearest.Zone.ID
			p.NearestZoneName = nearest.Zone.Name
			p.DistanceMeters = nearest.DistanceMeters
			if !nearest.Inside() {
				p.OutsideByMeters = nearest.DistanceMeters - nearest.Zone.RadiusMeters
			}
		}
		snap.Proximity = p
	}

	if s.capture == nil {
		// Acquisition still in flight.
		snap.CaptureState = ""
	} else {
		snap.CaptureState = s.capture.State()
		if err := s.capture.Err(); err != nil {
			snap.CaptureError = dErrors.MessageOf(err)
		}
		snap.HasFrame = s.capture.Frame() != nil
	}

	verified := s.locationVerified()
	snap.CaptureEnabled = verified && s.capture != nil && s.capture.State() == capture.StateLive
	snap.ConfirmEnabled = verified && snap.HasFrame && !s.done
	snap.Reason = s.reason(snap, verified)
	return snap
}

// reason names the condition currently blocking progress, or what the user
// can do next. Callers must hold s.mu.
func (s *Session) reason(snap Snapshot, verified bool) string {
	switch {
	case s.done:
		return "session closed"
	case snap.CaptureError != "":
		return "camera unavailable: " + snap.CaptureError
	case snap.LocationState == location.StateLoading || snap.LocationState == location.StateIdle:
		return "waiting for location fix"
	case snap.LocationError != "":
		return "location unavailable: " + snap.LocationError
	case snap.Proximity != nil && !snap.Proximity.InsideAny:
		if snap.Proximity.NearestZoneID == "" {
			return "no allowed zones are configured"
		}
		return fmt.Sprintf("outside all allowed zones; nearest is %s, %.0f m beyond its boundary",
			snap.Proximity.NearestZoneName, snap.Proximity.OutsideByMeters)
	case snap.CaptureState == "":
		return "acquiring camera"
	case verified && !snap.HasFrame:
		return "ready to capture"
	case snap.ConfirmEnabled:
		return "ready to confirm"
	default:
		return "verification in progress"
	}
}

// Capture grabs and stamps a frame. Gated on verified location: the capture
// control never enables while the fix is missing or outside every zone.
func (s *Session) Capture(ctx context.Context) (*capture.Frame, error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeInvalidState, "session closed")
	}
	if s.capture == nil {
		s.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeInvalidState, "camera still acquiring")
	}
	if err := s.capture.Err(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !s.locationVerified() {
		err := s.blockingLocationError()
		s.mu.Unlock()
		return nil, err
	}
	cap := s.capture
	s.mu.Unlock()

	return cap.Capture(ctx)
}

// Retake discards the held frame and resumes live view. Allowed only while
// location verification has already succeeded; no fresh consent check.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return dErrors.New(dErrors.CodeInvalidState, "session closed")
	}
	if s.capture == nil {
		return dErrors.New(dErrors.CodeInvalidState, "camera still acquiring")
	}
	if !s.locationVerified() {
		return s.blockingLocationError()
	}
	return s.capture.Retake()
}

// RerunProbe re-runs the location check inside the open session, for the
// geofence-outside case where the user physically moves. Runs synchronously;
// the fixed probe timeout still applies.
func (s *Session) RerunProbe(ctx context.Context) error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "session closed")
	}
	if s.probe != nil && s.probe.State() == location.StateLoading {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "location probe already running")
	}
	s.mu.Unlock()

	s.runProbe(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.probe.Err(); err != nil {
		return err
	}
	return nil
}

// blockingLocationError translates the current location gate into the
// specific domain error. Callers must hold s.mu.
func (s *Session) blockingLocationError() error {
	if s.probe == nil || s.probe.State() == location.StateLoading || s.probe.State() == location.StateIdle {
		return dErrors.New(dErrors.CodeInvalidState, "location fix not yet available")
	}
	if err := s.probe.Err(); err != nil {
		return err
	}
	if s.proximity != nil && !s.proximity.InsideAny {
		return dErrors.New(dErrors.CodeOutsideGeofence, "outside all allowed zones")
	}
	return dErrors.New(dErrors.CodeInvalidState, "location not verified")
}

// confirm builds the event and tears the session down. The event can only be
// constructed here, from a held frame plus a verified sample belonging to
// this session, which enforces the ordering guarantee structurally.
func (s *Session) confirm(newEventID func() domain.EventID) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil, dErrors.New(dErrors.CodeInvalidState, "session closed")
	}
	if !s.locationVerified() {
		return nil, s.blockingLocationError()
	}
	var frame *capture.Frame
	if s.capture != nil {
		frame = s.capture.Frame()
	}
	if frame == nil {
		return nil, dErrors.New(dErrors.CodeInvalidState, "no frame captured")
	}

	event := &Event{
		ID:          newEventID(),
		Action:      s.action,
		Frame:       *frame,
		Sample:      *s.sample,
		CommittedAt: s.now().UTC(),
	}

	s.done = true
	s.teardownLocked()
	return event, nil
}

// cancel aborts the session before confirm: synchronous, total, no partial
// state. Safe to call on an already-closed session.
func (s *Session) cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return false
	}
	s.done = true
	s.teardownLocked()
	return true
}

// teardownLocked cancels in-flight capability requests and releases the
// camera track. Callers must hold s.mu.
func (s *Session) teardownLocked() {
	s.cancelCtx()
	if s.capture != nil {
		s.capture.Close()
	}
}
