package audit

import (
	"time"

	"punchgate/pkg/domain"
)

// Event is emitted from domain logic to capture key verification actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	DeviceKey string
	SessionID domain.SessionID
	Action    string
	Outcome   string
	Reason    string
	ZoneID    string
}

// Audit action names.
const (
	EventConsentGranted    = "consent_granted"
	EventConsentRejected   = "consent_rejected"
	EventSessionOpened     = "session_opened"
	EventSessionCancelled  = "session_cancelled"
	EventGeofenceViolation = "geofence_violation"
	EventClockCommitted    = "clock_committed"
)
