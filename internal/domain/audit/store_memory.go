package audit

import (
	"context"
	"sort"
	"sync"

	"sentra/internal/domain/policy"
)

// MemoryStore is an in-memory Store used by unit tests.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots []RetentionComplianceAudit
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, snapshot *RetentionComplianceAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, *snapshot)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, organisationID string, limit int) ([]RetentionComplianceAudit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []RetentionComplianceAudit
	for _, snapshot := range s.snapshots {
		if snapshot.OrganisationID == organisationID {
			out = append(out, snapshot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AuditedAt.After(out[j].AuditedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Latest(ctx context.Context, organisationID string, dataType policy.DataType) (*RetentionComplianceAudit, error) {
	all, err := s.List(ctx, organisationID, 0)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].DataType == dataType {
			return &all[i], nil
		}
	}
	return nil, ErrAuditNotFound
}
