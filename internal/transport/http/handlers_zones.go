package httptransport

import (
	"net/http"

	"punchgate/internal/geofence"
	"punchgate/internal/transport/http/shared"
	dErrors "punchgate/pkg/domain-errors"
)

type zoneResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// handleListZones exposes the allowed-zone list so clients can render the
// geofence on a map.
func (h *Handler) handleListZones(w http.ResponseWriter, r *http.Request) {
	zoneList, err := h.zones.Zones(r.Context())
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load zone list"))
		return
	}

	out := make([]zoneResponse, 0, len(zoneList))
	for _, z := range zoneList {
		out = append(out, toZoneResponse(z))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func toZoneResponse(z geofence.Zone) zoneResponse {
	return zoneResponse{
		ID:           z.ID,
		Name:         z.Name,
		Latitude:     z.Latitude,
		Longitude:    z.Longitude,
		RadiusMeters: z.RadiusMeters,
	}
}
