package submit

import (
	"context"
	"log/slog"

	"punchgate/internal/clock"
)

// Noop logs committed events and discards them. The default in deployments
// that have not wired an attendance backend yet.
type Noop struct {
	logger *slog.Logger
}

func NewNoop(logger *slog.Logger) *Noop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Noop{logger: logger}
}

func (n *Noop) Submit(ctx context.Context, event clock.Event) error {
	n.logger.InfoContext(ctx, "event discarded by noop submitter",
		"event_id", event.ID,
		"action", event.Action,
	)
	return nil
}
