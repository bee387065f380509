package consent

import "time"

// DefaultRetentionDays is how long captured verification artifacts may be
// kept once handed off. Recorded alongside the grant so the retention policy
// in force at acceptance time travels with the record.
const DefaultRetentionDays = 7

// Record is the dual-flag consent decision for one device. It exists only
// after an explicit grant of both capabilities; there is no default-true
// state and no partial record. Revocation is intentionally absent from the
// store contract.
type Record struct {
	Camera        bool      `json:"camera"`
	Location      bool      `json:"location"`
	AcceptedAt    time.Time `json:"accepted_at"`
	RetentionDays int       `json:"retention_days"`
}

// Complete reports whether both capabilities are covered. A record read from
// storage should always be complete; the check guards against hand-edited
// stores.
func (r Record) Complete() bool {
	return r.Camera && r.Location
}
