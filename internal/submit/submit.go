// Package submit carries committed attendance events over the external
// submission boundary. The core hands each event over exactly once and does
// not retry; durable delivery beyond the chosen transport is the receiving
// system's concern.
package submit

import (
	"time"

	"punchgate/internal/clock"
)

// payload is the wire shape shared by the HTTP and Kafka submitters. The
// frame bytes ride along base64-encoded by the JSON codec.
type payload struct {
	EventID            string    `json:"event_id"`
	Action             string    `json:"action"`
	CommittedAt        time.Time `json:"committed_at"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	LocationCapturedAt time.Time `json:"location_captured_at"`
	FrameCapturedAt    time.Time `json:"frame_captured_at"`
	OverlayTimestamp   string    `json:"overlay_timestamp"`
	ImagePNG           []byte    `json:"image_png"`
}

func toPayload(event clock.Event) payload {
	return payload{
		EventID:            event.ID.String(),
		Action:             event.Action.String(),
		CommittedAt:        event.CommittedAt,
		Latitude:           event.Sample.Latitude,
		Longitude:          event.Sample.Longitude,
		LocationCapturedAt: event.Sample.CapturedAt,
		FrameCapturedAt:    event.Frame.CapturedAt,
		OverlayTimestamp:   event.Frame.OverlayTimestamp,
		ImagePNG:           event.Frame.ImageBytes,
	}
}
