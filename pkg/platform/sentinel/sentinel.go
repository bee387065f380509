package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// For validation and state errors, use pkg/domain-errors.
var (
	// ErrNotFound: record does not exist in store.
	ErrNotFound = errors.New("not found")
)
