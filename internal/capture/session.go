package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	dErrors "punchgate/pkg/domain-errors"
)

// OverlayTimeFormat is the layout baked into captured frames.
const OverlayTimeFormat = "2006-01-02 15:04:05 UTC"

// Frame is a captured, overlay-stamped camera frame. Immutable once built.
type Frame struct {
	ImageBytes       []byte
	OverlayTimestamp string
	CapturedAt       time.Time
}

// State describes where a session is in its lifecycle.
type State string

const (
	// StateLive: stream acquired, no frame held; Capture is callable.
	StateLive State = "live"
	// StateCaptured: a frame is held; Retake returns to live.
	StateCaptured State = "captured"
	// StateFailed: acquisition failed. Terminal; Capture is never callable.
	StateFailed State = "failed"
	// StateClosed: stream released. Terminal.
	StateClosed State = "closed"
)

// Session scopes one camera acquisition. Open always returns a session: on
// acquisition failure it is born in StateFailed with the cause retrievable
// via Err, which keeps the failure inside session state rather than forcing
// callers to track a separate error channel.
type Session struct {
	mu     sync.Mutex
	stream Stream
	state  State
	frame  *Frame
	err    error

	now    func() time.Time
	logger *slog.Logger
}

type SessionOption func(*Session)

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// Open acquires a stream from the device. Permission-denied and unsupported
// both land the session in the terminal failed state; this is session-fatal,
// not retryable in place.
func Open(ctx context.Context, device Device, opts ...SessionOption) *Session {
	s := &Session{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	stream, err := device.Open(ctx)
	if err != nil {
		s.state = StateFailed
		s.err = dErrors.Wrap(err, dErrors.CodeCaptureUnavailable, "camera acquisition failed")
		s.logger.Warn("camera acquisition failed", "error", err.Error())
		return s
	}
	s.stream = stream
	s.state = StateLive
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the acquisition failure, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Frame returns the held frame, or nil before capture / after retake.
func (s *Session) Frame() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Capture grabs the current live frame, bakes the timestamp overlay into the
// pixels, and holds the result. Only callable from the live state.
func (s *Session) Capture(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateFailed:
		return nil, s.err
	case StateClosed:
		return nil, dErrors.New(dErrors.CodeInvalidState, "capture session is closed")
	case StateCaptured:
		return nil, dErrors.New(dErrors.CodeInvalidState, "frame already captured; retake first")
	}

	img, err := s.stream.Grab(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCaptureUnavailable, "frame grab failed")
	}

	capturedAt := s.now().UTC()
	stamp := capturedAt.Format(OverlayTimeFormat)
	encoded, err := bakeOverlay(img, stamp)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "overlay composition failed")
	}

	s.frame = &Frame{
		ImageBytes:       encoded,
		OverlayTimestamp: stamp,
		CapturedAt:       capturedAt,
	}
	s.state = StateCaptured
	return s.frame, nil
}

// Retake discards the held frame and resumes the live view. The caller is
// responsible for the location-verified precondition; no consent re-check
// happens here.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCaptured {
		return dErrors.New(dErrors.CodeInvalidState, "no frame to retake")
	}
	s.frame = nil
	s.state = StateLive
	return nil
}

// Close releases the stream. Idempotent; called on confirm, cancel, error,
// and session replacement alike so no track survives the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed || s.state == StateFailed {
		s.state = StateClosed
		return
	}
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			s.logger.Warn("stream close failed", "error", err.Error())
		}
		s.stream = nil
	}
	s.frame = nil
	s.state = StateClosed
}
