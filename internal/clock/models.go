package clock

import (
	"context"
	"time"

	"punchgate/internal/capture"
	"punchgate/internal/location"
	"punchgate/pkg/domain"
)

// Event is the verified, immutable record of a completed attendance
// transition. Created exactly once per successful confirm, handed to the
// Submitter, and discarded from core memory; durable persistence and hours
// accounting live behind the submission boundary.
type Event struct {
	ID          domain.EventID
	Action      domain.Action
	Frame       capture.Frame
	Sample      location.Sample
	CommittedAt time.Time
}

// Submitter is the external collaborator that receives committed events.
type Submitter interface {
	Submit(ctx context.Context, event Event) error
}

// transition pairs the required source state with the resulting state for
// each action. Requests from any other state are rejected outright.
type transition struct {
	from domain.AttendanceStatus
	to   domain.AttendanceStatus
}

var transitions = map[domain.Action]transition{
	domain.ActionClockIn:    {from: domain.StatusNotClockedIn, to: domain.StatusClockedIn},
	domain.ActionBreakStart: {from: domain.StatusClockedIn, to: domain.StatusOnBreak},
	domain.ActionBreakEnd:   {from: domain.StatusOnBreak, to: domain.StatusClockedIn},
	domain.ActionClockOut:   {from: domain.StatusClockedIn, to: domain.StatusNotClockedIn},
}
