// Package httptransport is the thin HTTP layer over the attendance gate. It
// delegates to domain services without embedding business logic so transport
// concerns remain isolated.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"punchgate/internal/clock"
	"punchgate/internal/consent"
	"punchgate/internal/platform/middleware"
	"punchgate/internal/transport/http/shared"
	"punchgate/internal/zones"
)

const requestTimeout = 30 * time.Second

// Handler owns the public endpoints.
type Handler struct {
	logger  *slog.Logger
	consent *consent.Service
	clock   *clock.Service
	zones   zones.Provider
}

func NewHandler(
	consentSvc *consent.Service,
	clockSvc *clock.Service,
	provider zones.Provider,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		consent: consentSvc,
		clock:   clockSvc,
		zones:   provider,
	}
}

// Register wires the API routes onto the given router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(requestTimeout))
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.DeviceContext)

	api.Post("/consent", h.handleGrantConsent)
	api.Get("/consent", h.handleGetConsent)

	api.Get("/attendance/state", h.handleAttendanceState)
	api.Post("/attendance/{action}", h.handleRequestAction)
	api.Get("/attendance/session", h.handleSessionSnapshot)
	api.Delete("/attendance/session", h.handleCancelSession)
	api.Post("/attendance/session/probe", h.handleRerunProbe)
	api.Post("/attendance/session/capture", h.handleCapture)
	api.Post("/attendance/session/retake", h.handleRetake)
	api.Post("/attendance/session/confirm", h.handleConfirm)

	api.Get("/zones", h.handleListZones)

	r.Mount("/", api)
}

// RegisterHealth adds the liveness probe outside the API middleware stack.
func (h *Handler) RegisterHealth(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
