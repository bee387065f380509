package clock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"punchgate/internal/audit"
	"punchgate/internal/capture"
	"punchgate/internal/consent"
	"punchgate/internal/geofence"
	"punchgate/internal/location"
	"punchgate/internal/zones"
	"punchgate/pkg/domain"
	dErrors "punchgate/pkg/domain-errors"
)

const testDeviceKey = "linux/firefox"

var hqZone = geofence.Zone{
	ID:           "hq",
	Name:         "Head Office",
	Latitude:     14.2486,
	Longitude:    121.1258,
	RadiusMeters: 100,
}

// slowDevice delays camera acquisition so tests can exercise the window
// where the probe has settled but the stream is not yet held.
type slowDevice struct {
	*capture.SyntheticDevice
	delay time.Duration
}

func (d *slowDevice) Open(ctx context.Context) (capture.Stream, error) {
	select {
	case <-time.After(d.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return d.SyntheticDevice.Open(ctx)
}

// recordingSubmitter captures every committed event for assertions.
type recordingSubmitter struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingSubmitter) Submit(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSubmitter) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

type ServiceSuite struct {
	suite.Suite

	device     *capture.SyntheticDevice
	locator    *location.FixedLocator
	submitter  *recordingSubmitter
	consent    *consent.Service
	auditStore *audit.InMemoryStore
	svc        *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.device = capture.NewSyntheticDevice(64, 48)
	s.locator = location.NewFixedLocator(hqZone.Latitude, hqZone.Longitude)
	s.submitter = &recordingSubmitter{}
	s.auditStore = audit.NewInMemoryStore()
	publisher := audit.NewPublisher(s.auditStore)

	var err error
	s.consent, err = consent.New(consent.NewInMemoryStore())
	s.Require().NoError(err)

	s.svc, err = New(
		s.consent,
		zones.NewStatic([]geofence.Zone{hqZone}),
		s.device,
		s.locator,
		s.submitter,
		WithProbeTimeout(time.Second),
		WithAuditPublisher(publisher),
	)
	s.Require().NoError(err)
}

// auditActions returns the audit trail action names for the test device.
func (s *ServiceSuite) auditActions() []string {
	events, err := s.auditStore.ListByDevice(context.Background(), testDeviceKey)
	s.Require().NoError(err)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}

func (s *ServiceSuite) grantConsent() {
	_, err := s.consent.Grant(context.Background(), testDeviceKey, true, true)
	s.Require().NoError(err)
}

// openReady requests the given action and waits for both capability tasks.
func (s *ServiceSuite) openReady(action domain.Action) *Session {
	sess, err := s.svc.Request(context.Background(), action, testDeviceKey)
	s.Require().NoError(err)
	s.Require().NoError(sess.Wait(context.Background()))
	return sess
}

func (s *ServiceSuite) TestNew_RequiresCollaborators() {
	provider := zones.NewStatic(nil)

	_, err := New(nil, provider, s.device, s.locator, s.submitter)
	s.Error(err)

	_, err = New(s.consent, nil, s.device, s.locator, s.submitter)
	s.Error(err)

	_, err = New(s.consent, provider, nil, s.locator, s.submitter)
	s.Error(err)

	_, err = New(s.consent, provider, s.device, nil, s.submitter)
	s.Error(err)

	_, err = New(s.consent, provider, s.device, s.locator, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestRequest_TransitionGuards() {
	s.grantConsent()

	// From not_clocked_in only clock_in may open a session.
	for _, action := range []domain.Action{
		domain.ActionBreakStart,
		domain.ActionBreakEnd,
		domain.ActionClockOut,
	} {
		s.Run(action.String(), func() {
			_, err := s.svc.Request(context.Background(), action, testDeviceKey)
			s.True(dErrors.Is(err, dErrors.CodeInvalidState))
			s.Equal(domain.StatusNotClockedIn, s.svc.Status())
			s.Zero(s.device.ActiveTracks())
		})
	}
}

func (s *ServiceSuite) TestRequest_InvalidAction() {
	s.grantConsent()
	_, err := s.svc.Request(context.Background(), domain.Action("lunch"), testDeviceKey)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestRequest_ConsentMissing() {
	_, err := s.svc.Request(context.Background(), domain.ActionClockIn, testDeviceKey)
	s.True(dErrors.Is(err, dErrors.CodeConsentRequired))
	s.Zero(s.device.ActiveTracks())

	_, ok := s.svc.Session()
	s.False(ok)
}

func (s *ServiceSuite) TestRequest_PartialConsentStaysMissing() {
	_, err := s.consent.Grant(context.Background(), testDeviceKey, true, false)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))

	_, err = s.svc.Request(context.Background(), domain.ActionClockIn, testDeviceKey)
	s.True(dErrors.Is(err, dErrors.CodeConsentRequired))
}

func (s *ServiceSuite) TestRequest_SingleFlight() {
	s.grantConsent()
	s.openReady(domain.ActionClockIn)

	_, err := s.svc.Request(context.Background(), domain.ActionClockIn, testDeviceKey)
	s.True(dErrors.Is(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestClockIn_HappyPath() {
	s.grantConsent()
	sess := s.openReady(domain.ActionClockIn)

	snap := sess.Snapshot()
	s.Equal(location.StateSuccess, snap.LocationState)
	s.Require().NotNil(snap.Proximity)
	s.True(snap.Proximity.InsideAny)
	s.True(snap.CaptureEnabled)
	s.False(snap.ConfirmEnabled)

	frame, err := s.svc.Capture(context.Background())
	s.Require().NoError(err)
	s.NotEmpty(frame.ImageBytes)

	snap = sess.Snapshot()
	s.True(snap.ConfirmEnabled)

	event, err := s.svc.Confirm(context.Background())
	s.Require().NoError(err)
	s.Equal(domain.ActionClockIn, event.Action)
	s.False(event.ID.IsNil())
	s.Equal(domain.StatusClockedIn, s.svc.Status())

	// Exactly one event reached the submitter, and the track is released.
	events := s.submitter.Events()
	s.Require().Len(events, 1)
	s.Equal(domain.ActionClockIn, events[0].Action)
	s.Zero(s.device.ActiveTracks())

	_, ok := s.svc.Session()
	s.False(ok)

	s.Equal([]string{audit.EventSessionOpened, audit.EventClockCommitted}, s.auditActions())
}

func (s *ServiceSuite) TestCapture_BlockedUntilLocationVerified() {
	s.grantConsent()
	s.locator.SetDelay(200 * time.Millisecond)

	sess, err := s.svc.Request(context.Background(), domain.ActionClockIn, testDeviceKey)
	s.Require().NoError(err)

	// The probe is still in flight; the capture gate must name that.
	_, err = s.svc.Capture(context.Background())
	if err != nil {
		s.True(dErrors.Is(err, dErrors.CodeInvalidState))
	}

	s.Require().NoError(sess.Wait(context.Background()))
	_, err = s.svc.Capture(context.Background())
	s.NoError(err)

	s.Require().NoError(s.svc.Cancel(context.Background()))
}

func (s *ServiceSuite) TestLocationDenied_CaptureDisabledCancelKeepsState() {
	s.grantConsent()
	s.locator.Fail(location.ErrPermissionDenied)

	sess := s.openReady(domain.ActionClockIn)

	snap := sess.Snapshot()
	s.Equal(location.StateError, snap.LocationState)
	s.NotEmpty(snap.LocationError)
	s.False(snap.CaptureEnabled)
	s.False(snap.ConfirmEnabled)

	_, err := s.svc.Capture(context.Background())
	s.True(dErrors.Is(err, dErrors.CodeLocationUnavailable))

	_, err = s.svc.Confirm(context.Background())
	s.Error(err)
	s.Equal(domain.StatusNotClockedIn, s.svc.Status())

	s.Require().NoError(s.svc.Cancel(context.Background()))
	s.Equal(domain.StatusNotClockedIn, s.svc.Status())
	s.Zero(s.device.ActiveTracks())
}

func (s *ServiceSuite) TestOutsideZone_RerunProbeAfterMoving() {
	s.grantConsent()
	// Roughly 167 m north of the zone center.
	s.locator.MoveTo(hqZone.Latitude+0.0015, hqZone.Longitude)

	sess := s.openReady(domain.ActionClockIn)

	snap := sess.Snapshot()
	s.Require().NotNil(snap.Proximity)
	s.False(snap.Proximity.InsideAny)
	s.Equal("hq", snap.Proximity.NearestZoneID)
	s.Greater(snap.Proximity.OutsideByMeters, 0.0)
	s.Contains(snap.Reason, "outside all allowed zones")
	s.False(snap.CaptureEnabled)

	_, err := s.svc.Capture(context.Background())
	s.True(dErrors.Is(err, dErrors.CodeOutsideGeofence))

	s.locator.MoveTo(hqZone.Latitude, hqZone.Longitude)
	s.Require().NoError(s.svc.RerunProbe(context.Background()))

	snap = sess.Snapshot()
	s.True(snap.Proximity.InsideAny)
	s.True(snap.CaptureEnabled)

	_, err = s.svc.Capture(context.Background())
	s.Require().NoError(err)
	_, err = s.svc.Confirm(context.Background())
	s.Require().NoError(err)
	s.Equal(domain.StatusClockedIn, s.svc.Status())

	s.Contains(s.auditActions(), audit.EventGeofenceViolation)
}

func (s *ServiceSuite) TestRetake_DiscardsFrameBeforeConfirm() {
	s.grantConsent()
	sess := s.openReady(domain.ActionClockIn)

	_, err := s.svc.Capture(context.Background())
	s.Require().NoError(err)

	// A second grab requires an explicit retake first.
	_, err = s.svc.Capture(context.Background())
	s.True(dErrors.Is(err, dErrors.CodeInvalidState))

	s.Require().NoError(s.svc.Retake(context.Background()))
	snap := sess.Snapshot()
	s.False(snap.HasFrame)
	s.False(snap.ConfirmEnabled)

	_, err = s.svc.Confirm(context.Background())
	s.True(dErrors.Is(err, dErrors.CodeInvalidState))

	_, err = s.svc.Capture(context.Background())
	s.Require().NoError(err)
	_, err = s.svc.Confirm(context.Background())
	s.NoError(err)
}

func (s *ServiceSuite) TestRetakeAndCapture_BeforeCameraAcquired() {
	s.grantConsent()

	device := &slowDevice{
		SyntheticDevice: capture.NewSyntheticDevice(64, 48),
		delay:           400 * time.Millisecond,
	}
	svc, err := New(
		s.consent,
		zones.NewStatic([]geofence.Zone{hqZone}),
		device,
		s.locator,
		s.submitter,
		WithProbeTimeout(time.Second),
	)
	s.Require().NoError(err)

	sess, err := svc.Request(context.Background(), domain.ActionClockIn, testDeviceKey)
	s.Require().NoError(err)

	// The instant locator verifies location while acquisition is still in
	// flight; both controls must reject cleanly instead of dereferencing a
	// missing capture session.
	time.Sleep(150 * time.Millisecond)

	err = svc.Retake(context.Background())
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidState))

	_, err = svc.Capture(context.Background())
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidState))

	s.Require().NoError(svc.Cancel(context.Background()))
	s.Require().NoError(sess.Wait(context.Background()))
	s.Zero(device.ActiveTracks())
}

func (s *ServiceSuite) TestConfirm_WithoutSession() {
	_, err := s.svc.Confirm(context.Background())
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestConfirm_WithoutFrame() {
	s.grantConsent()
	s.openReady(domain.ActionClockIn)

	_, err := s.svc.Confirm(context.Background())
	s.True(dErrors.Is(err, dErrors.CodeInvalidState))
	s.Equal(domain.StatusNotClockedIn, s.svc.Status())

	s.Require().NoError(s.svc.Cancel(context.Background()))
}

func (s *ServiceSuite) TestCancel_Idempotent() {
	s.grantConsent()
	s.openReady(domain.ActionClockIn)

	s.Require().NoError(s.svc.Cancel(context.Background()))
	s.Require().NoError(s.svc.Cancel(context.Background()))
	s.Equal(domain.StatusNotClockedIn, s.svc.Status())
	s.Zero(s.device.ActiveTracks())
	s.Empty(s.submitter.Events())
	s.Equal([]string{audit.EventSessionOpened, audit.EventSessionCancelled}, s.auditActions())
}

func (s *ServiceSuite) TestCancel_DuringAcquisitionReleasesTrack() {
	s.grantConsent()
	s.locator.SetDelay(150 * time.Millisecond)

	sess, err := s.svc.Request(context.Background(), domain.ActionClockIn, testDeviceKey)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Cancel(context.Background()))

	s.Require().NoError(sess.Wait(context.Background()))
	s.Zero(s.device.ActiveTracks())
}

func (s *ServiceSuite) TestSubmitFailure_DoesNotRollBackStatus() {
	s.grantConsent()
	s.submitter.err = context.DeadlineExceeded

	s.openReady(domain.ActionClockIn)
	_, err := s.svc.Capture(context.Background())
	s.Require().NoError(err)

	event, err := s.svc.Confirm(context.Background())
	s.Require().NoError(err)
	s.NotNil(event)
	s.Equal(domain.StatusClockedIn, s.svc.Status())
}

func (s *ServiceSuite) TestFullShift() {
	s.grantConsent()

	run := func(action domain.Action, want domain.AttendanceStatus) {
		s.openReady(action)
		_, err := s.svc.Capture(context.Background())
		s.Require().NoError(err)
		event, err := s.svc.Confirm(context.Background())
		s.Require().NoError(err)
		s.Equal(action, event.Action)
		s.Equal(want, s.svc.Status())
	}

	run(domain.ActionClockIn, domain.StatusClockedIn)
	run(domain.ActionBreakStart, domain.StatusOnBreak)
	run(domain.ActionBreakEnd, domain.StatusClockedIn)
	run(domain.ActionClockOut, domain.StatusNotClockedIn)

	events := s.submitter.Events()
	s.Require().Len(events, 4)
	for i := 1; i < len(events); i++ {
		s.False(events[i].CommittedAt.Before(events[i-1].CommittedAt))
	}
	s.Zero(s.device.ActiveTracks())
}
