package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"punchgate/internal/platform/middleware"
	"punchgate/internal/transport/http/shared"
	"punchgate/pkg/domain"
)

type stateResponse struct {
	Status domain.AttendanceStatus `json:"status"`
}

type eventResponse struct {
	EventID     domain.EventID          `json:"event_id"`
	Action      domain.Action           `json:"action"`
	CommittedAt string                  `json:"committed_at"`
	Status      domain.AttendanceStatus `json:"status"`
}

func (h *Handler) handleAttendanceState(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, stateResponse{Status: h.clock.Status()})
}

// handleRequestAction opens a verification session for the named transition.
// The snapshot in the response usually shows the capability tasks still in
// flight; clients poll the session endpoint for settled state.
func (h *Handler) handleRequestAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device := middleware.GetDevice(ctx)

	action, err := domain.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	sess, err := h.clock.Request(ctx, action, device.Key)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusAccepted, sess.Snapshot())
}

// handleSessionSnapshot returns the active session's gating state. With
// ?wait=true it first blocks until the camera and the initial location probe
// have both settled.
func (h *Handler) handleSessionSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "true" {
		if sess, ok := h.clock.Session(); ok {
			if err := sess.Wait(r.Context()); err != nil {
				shared.WriteError(w, err)
				return
			}
		}
	}

	snap, err := h.clock.Snapshot()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	if err := h.clock.Cancel(r.Context()); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRerunProbe(w http.ResponseWriter, r *http.Request) {
	if err := h.clock.RerunProbe(r.Context()); err != nil {
		shared.WriteError(w, err)
		return
	}
	snap, err := h.clock.Snapshot()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleCapture(w http.ResponseWriter, r *http.Request) {
	if _, err := h.clock.Capture(r.Context()); err != nil {
		shared.WriteError(w, err)
		return
	}
	snap, err := h.clock.Snapshot()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleRetake(w http.ResponseWriter, r *http.Request) {
	if err := h.clock.Retake(r.Context()); err != nil {
		shared.WriteError(w, err)
		return
	}
	snap, err := h.clock.Snapshot()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	event, err := h.clock.Confirm(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, eventResponse{
		EventID:     event.ID,
		Action:      event.Action,
		CommittedAt: event.CommittedAt.Format(time.RFC3339),
		Status:      h.clock.Status(),
	})
}
