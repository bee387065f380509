package consent

import (
	"context"
	"sync"

	"punchgate/pkg/platform/sentinel"
)

// InMemoryStore keeps consent records in process memory. Test double and
// fallback when no durable path is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Read(_ context.Context, deviceKey string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[deviceKey]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &record, nil
}

func (s *InMemoryStore) Save(_ context.Context, deviceKey string, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[deviceKey] = record
	return nil
}
