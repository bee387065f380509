// Package location performs the one-shot device location read that feeds the
// geofence check. The probe requests a fresh high-accuracy fix, enforces a
// fixed timeout, and never retries on its own; retries are user-initiated.
package location

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds a single probe. Matches the portal's fixed 10 s
// geolocation budget.
const DefaultTimeout = 10 * time.Second

// Sample is one immutable location fix.
type Sample struct {
	Latitude   float64
	Longitude  float64
	CapturedAt time.Time
}

// Request is the capability contract handed to a Locator. MaxAge zero means
// cached fixes are disallowed.
type Request struct {
	HighAccuracy bool
	MaxAge       time.Duration
}

// Typed capability failures reported by locator adapters.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
)

// Locator is the device geolocation port. Implementations must honor context
// cancellation so closing a verification session cancels an in-flight read.
type Locator interface {
	Locate(ctx context.Context, req Request) (Sample, error)
}
