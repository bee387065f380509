package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Device describes the client device a consent record is scoped to. The key
// is stable per platform+browser pair, which matches how the portal keys its
// local consent storage.
type Device struct {
	Key     string
	Name    string
	OS      string
	Mobile  bool
	RawUser string
}

const deviceKey contextKey = "device"

// fallbackDeviceKey is used when no User-Agent is supplied (CLI clients).
const fallbackDeviceKey = "unknown-device"

// DeviceContext parses the User-Agent header into a device descriptor and
// stores it in the request context.
func DeviceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), deviceKey, parseDevice(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDevice returns the device descriptor from the context. A zero request
// context yields the fallback descriptor rather than an empty key.
func GetDevice(ctx context.Context) Device {
	if d, ok := ctx.Value(deviceKey).(Device); ok {
		return d
	}
	return Device{Key: fallbackDeviceKey}
}

func parseDevice(rawUA string) Device {
	if strings.TrimSpace(rawUA) == "" {
		return Device{Key: fallbackDeviceKey}
	}

	ua := useragent.New(rawUA)
	name, _ := ua.Browser()
	osInfo := ua.OSInfo()

	device := Device{
		Name:    name,
		OS:      osInfo.Name,
		Mobile:  ua.Mobile(),
		RawUser: rawUA,
	}
	device.Key = deviceKeyFor(device)
	return device
}

func deviceKeyFor(d Device) string {
	parts := []string{}
	if d.OS != "" {
		parts = append(parts, strings.ToLower(strings.ReplaceAll(d.OS, " ", "-")))
	}
	if d.Name != "" {
		parts = append(parts, strings.ToLower(strings.ReplaceAll(d.Name, " ", "-")))
	}
	if len(parts) == 0 {
		return fallbackDeviceKey
	}
	return strings.Join(parts, "/")
}
