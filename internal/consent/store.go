package consent

import "context"

// Store persists the per-device consent record. Implementations return
// sentinel.ErrNotFound from Read when no grant is on record.
//
// There is deliberately no Revoke: the grant lifecycle is absent -> granted.
type Store interface {
	Read(ctx context.Context, deviceKey string) (*Record, error)
	Save(ctx context.Context, deviceKey string, record Record) error
}
