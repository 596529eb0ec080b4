package policy

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by unit tests.
type MemoryStore struct {
	mu       sync.RWMutex
	policies []RetentionPolicy
}

func NewMemoryStore(policies ...RetentionPolicy) *MemoryStore {
	return &MemoryStore{policies: policies}
}

func (s *MemoryStore) Add(p RetentionPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = append(s.policies, p)
}

func (s *MemoryStore) ListActive(ctx context.Context, organisationID string) ([]RetentionPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RetentionPolicy
	for _, p := range s.policies {
		if p.OrganisationID == organisationID && p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListByDataType(ctx context.Context, organisationID string, dataType DataType) ([]RetentionPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RetentionPolicy
	for _, p := range s.policies {
		if p.OrganisationID == organisationID && p.DataType == dataType {
			out = append(out, p)
		}
	}
	return out, nil
}
