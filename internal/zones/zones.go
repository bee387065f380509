// Package zones supplies the geofence zone list. The list is owned by an
// external collaborator (config file or backend); this package only reads it.
package zones

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"punchgate/internal/geofence"
)

// Provider yields the current allowed-zone list.
type Provider interface {
	Zones(ctx context.Context) ([]geofence.Zone, error)
}

// Static serves a fixed zone list. Used for tests and single-site deployments.
type Static struct {
	zones []geofence.Zone
}

// NewStatic copies the given zones into a Static provider.
func NewStatic(zones []geofence.Zone) *Static {
	return &Static{zones: append([]geofence.Zone(nil), zones...)}
}

func (s *Static) Zones(_ context.Context) ([]geofence.Zone, error) {
	return append([]geofence.Zone(nil), s.zones...), nil
}

// zoneFile is the on-disk YAML shape.
type zoneFile struct {
	Zones []zoneEntry `yaml:"zones"`
}

type zoneEntry struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	RadiusMeters float64 `yaml:"radius_meters"`
}

// LoadFile reads a YAML zone list and returns a Static provider over it.
// The file is read once at startup; zone edits require a restart.
func LoadFile(path string) (*Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("zones: read %s: %w", path, err)
	}
	var file zoneFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("zones: parse %s: %w", path, err)
	}

	zones := make([]geofence.Zone, 0, len(file.Zones))
	for i, e := range file.Zones {
		if e.ID == "" {
			return nil, fmt.Errorf("zones: entry %d: id is required", i)
		}
		if e.RadiusMeters <= 0 {
			return nil, fmt.Errorf("zones: entry %q: radius_meters must be > 0", e.ID)
		}
		if e.Latitude < -90 || e.Latitude > 90 || e.Longitude < -180 || e.Longitude > 180 {
			return nil, fmt.Errorf("zones: entry %q: coordinates out of range", e.ID)
		}
		zones = append(zones, geofence.Zone{
			ID:           e.ID,
			Name:         e.Name,
			Latitude:     e.Latitude,
			Longitude:    e.Longitude,
			RadiusMeters: e.RadiusMeters,
		})
	}
	return NewStatic(zones), nil
}
