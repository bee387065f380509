package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"punchgate/internal/consent"
	"punchgate/internal/platform/middleware"
	"punchgate/internal/transport/http/shared"
	dErrors "punchgate/pkg/domain-errors"
)

type grantConsentRequest struct {
	Camera   bool `json:"camera"`
	Location bool `json:"location"`
}

type consentResponse struct {
	Camera        bool   `json:"camera"`
	Location      bool   `json:"location"`
	AcceptedAt    string `json:"accepted_at"`
	RetentionDays int    `json:"retention_days"`
}

func toConsentResponse(record *consent.Record) consentResponse {
	return consentResponse{
		Camera:        record.Camera,
		Location:      record.Location,
		AcceptedAt:    record.AcceptedAt.UTC().Format(time.RFC3339),
		RetentionDays: record.RetentionDays,
	}
}

// handleGrantConsent records a consent decision for the calling device. A
// partial grant is rejected; there is no way to store one.
func (h *Handler) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device := middleware.GetDevice(ctx)

	var req grantConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid consent request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.consent.Grant(ctx, device.Key, req.Camera, req.Location)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toConsentResponse(record))
}

// handleGetConsent returns the calling device's consent record, or 404 when
// nothing is on record.
func (h *Handler) handleGetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device := middleware.GetDevice(ctx)

	record, err := h.consent.Read(ctx, device.Key)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toConsentResponse(record))
}
