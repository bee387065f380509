package location

import (
	"context"
	"sync"
	"time"
)

// FixedLocator reports a configurable coordinate after an optional delay.
// It stands in for device geolocation in deployments without hardware and in
// tests; the coordinate can be moved between probes to simulate the worker
// walking in or out of a zone.
type FixedLocator struct {
	mu        sync.Mutex
	latitude  float64
	longitude float64
	delay     time.Duration
	fail      error
}

func NewFixedLocator(latitude, longitude float64) *FixedLocator {
	return &FixedLocator{latitude: latitude, longitude: longitude}
}

// MoveTo changes the coordinate reported by subsequent probes.
func (l *FixedLocator) MoveTo(latitude, longitude float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.latitude = latitude
	l.longitude = longitude
}

// SetDelay makes subsequent probes take at least d before answering.
func (l *FixedLocator) SetDelay(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.delay = d
}

// Fail makes subsequent probes return err instead of a fix.
func (l *FixedLocator) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = err
}

func (l *FixedLocator) Locate(ctx context.Context, _ Request) (Sample, error) {
	l.mu.Lock()
	lat, lon := l.latitude, l.longitude
	delay := l.delay
	fail := l.fail
	l.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Sample{}, ctx.Err()
		}
	}
	if fail != nil {
		return Sample{}, fail
	}
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	return Sample{Latitude: lat, Longitude: lon, CapturedAt: time.Now()}, nil
}
