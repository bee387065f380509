// Package capture owns the camera side of a verification session: scoped
// acquisition of a capture device, frame grabs with a timestamp baked into
// the pixels, and guaranteed release of the device track on every exit path.
package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
)

// Capability failures reported by device adapters. The session maps both to
// a session-fatal capture_unavailable domain error.
var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrUnsupported      = errors.New("camera capability unsupported")
)

// Stream is one acquired camera track. Close must stop the track; a closed
// stream grabs nothing.
type Stream interface {
	Grab(ctx context.Context) (image.Image, error)
	Close() error
}

// Device hands out camera streams. At most one session holds a stream at a
// time; that single-flight invariant is enforced by the clock service, not
// here.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// SyntheticDevice renders deterministic test-pattern frames in place of real
// camera hardware. It counts active tracks so tests and health checks can
// assert that no track leaks across confirm/cancel/error paths.
type SyntheticDevice struct {
	width  int
	height int

	active atomic.Int32
	grabs  atomic.Int64
}

func NewSyntheticDevice(width, height int) *SyntheticDevice {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	return &SyntheticDevice{width: width, height: height}
}

func (d *SyntheticDevice) Open(_ context.Context) (Stream, error) {
	d.active.Add(1)
	return &syntheticStream{device: d}, nil
}

// ActiveTracks reports how many streams are currently open.
func (d *SyntheticDevice) ActiveTracks() int {
	return int(d.active.Load())
}

type syntheticStream struct {
	device *SyntheticDevice

	mu     sync.Mutex
	closed bool
}

func (s *syntheticStream) Grab(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("capture: grab on closed stream")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seq := uint8(s.device.grabs.Add(1))
	img := image.NewRGBA(image.Rect(0, 0, s.device.width, s.device.height))
	for y := 0; y < s.device.height; y++ {
		for x := 0; x < s.device.width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x) + seq,
				G: uint8(y),
				B: uint8(x+y) - seq,
				A: 255,
			})
		}
	}
	return img, nil
}

func (s *syntheticStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.device.active.Add(-1)
	return nil
}
