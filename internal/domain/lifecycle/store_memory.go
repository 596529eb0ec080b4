package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentra/internal/domain/policy"
)

// MemoryStore is an in-memory Store used by unit tests. It enforces the
// same transition rules as the Postgres store.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*DataLifecycleRecord
	byRes   map[string]string // resourceTable|resourceID -> id
	nowFunc func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*DataLifecycleRecord),
		byRes:   make(map[string]string),
		nowFunc: time.Now,
	}
}

func resourceKey(table, id string) string {
	return table + "|" + id
}

func (s *MemoryStore) Ensure(ctx context.Context, rec *DataLifecycleRecord) (bool, *DataLifecycleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := resourceKey(rec.ResourceTable, rec.ResourceID)
	if id, ok := s.byRes[key]; ok {
		clone := *s.byID[id]
		return false, &clone, nil
	}
	stored := *rec
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.nowFunc()
	stored.UpdatedAt = stored.CreatedAt
	s.byID[stored.ID] = &stored
	s.byRes[key] = stored.ID
	clone := stored
	return true, &clone, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*DataLifecycleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *MemoryStore) GetByResource(ctx context.Context, resourceTable, resourceID string) (*DataLifecycleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byRes[resourceKey(resourceTable, resourceID)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *MemoryStore) ListByStatus(ctx context.Context, organisationID string, status Status, limit int) ([]DataLifecycleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []DataLifecycleRecord
	for _, rec := range s.byID {
		if rec.OrganisationID == organisationID && rec.Status == status {
			out = append(out, *rec)
		}
	}
	sortRecords(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListSoftDeleteDue(ctx context.Context, organisationID string, dataType policy.DataType, asOf time.Time) ([]DataLifecycleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []DataLifecycleRecord
	for _, rec := range s.byID {
		if rec.OrganisationID != organisationID || rec.DataType != dataType {
			continue
		}
		if (rec.Status == StatusActive || rec.Status == StatusRetentionPending) && !rec.RetentionEligibleAt.After(asOf) {
			out = append(out, *rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) ListEraseDue(ctx context.Context, organisationID string, dataType policy.DataType, asOf time.Time) ([]DataLifecycleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []DataLifecycleRecord
	for _, rec := range s.byID {
		if rec.OrganisationID != organisationID || rec.DataType != dataType {
			continue
		}
		if rec.Status != StatusSoftDeleted && rec.Status != StatusDeletionScheduled {
			continue
		}
		if rec.SecureEraseScheduledAt != nil && !rec.SecureEraseScheduledAt.After(asOf) {
			out = append(out, *rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) MarkSoftDeleted(ctx context.Context, id string, at, eraseScheduledAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrRecordNotFound
	}
	switch rec.Status {
	case StatusActive, StatusRetentionPending, StatusDeletionScheduled:
	default:
		return ErrInvalidTransition
	}
	rec.Status = StatusSoftDeleted
	rec.SoftDeletedAt = &at
	rec.SecureEraseScheduledAt = &eraseScheduledAt
	rec.UpdatedAt = s.nowFunc()
	return nil
}

func (s *MemoryStore) MarkErased(ctx context.Context, id string, at time.Time, methodUsed, confirmation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrRecordNotFound
	}
	if rec.Status != StatusSoftDeleted && rec.Status != StatusDeletionScheduled {
		return ErrInvalidTransition
	}
	rec.Status = StatusSecurelyErased
	rec.SecureErasedAt = &at
	rec.EraseMethodUsed = methodUsed
	rec.DeletionConfirmation = confirmation
	rec.UpdatedAt = s.nowFunc()
	return nil
}

func (s *MemoryStore) MarkRestored(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrRecordNotFound
	}
	if rec.Status != StatusSoftDeleted {
		return ErrInvalidTransition
	}
	rec.Status = StatusRetentionPending
	rec.SoftDeletedAt = nil
	rec.SecureEraseScheduledAt = nil
	rec.RestoredAt = &at
	rec.UpdatedAt = s.nowFunc()
	return nil
}

func (s *MemoryStore) AttachCertificate(ctx context.Context, id, certificateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrRecordNotFound
	}
	rec.CertificateID = certificateID
	rec.UpdatedAt = s.nowFunc()
	return nil
}

func (s *MemoryStore) RecordFailure(ctx context.Context, id string, perr ProcessingError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrRecordNotFound
	}
	rec.ProcessingErrors = append(rec.ProcessingErrors, perr)
	rec.RetryCount++
	rec.UpdatedAt = s.nowFunc()
	return nil
}

func (s *MemoryStore) PendingCounts(ctx context.Context, organisationID string, asOf time.Time) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending, overdue int
	for _, rec := range s.byID {
		if rec.OrganisationID != organisationID {
			continue
		}
		if rec.Status != StatusSecurelyErased {
			pending++
		}
		if (rec.Status == StatusActive || rec.Status == StatusRetentionPending) && rec.RetentionEligibleAt.Before(asOf) {
			overdue++
		}
	}
	return pending, overdue, nil
}

func (s *MemoryStore) AuditCounts(ctx context.Context, organisationID string, dataType policy.DataType, asOf time.Time) (AuditCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts AuditCounts
	for _, rec := range s.byID {
		if rec.OrganisationID != organisationID || rec.DataType != dataType {
			continue
		}
		counts.Tracked++
		switch rec.Status {
		case StatusSecurelyErased:
			counts.Erased++
		case StatusSoftDeleted, StatusDeletionScheduled:
			counts.SoftDeleted++
		case StatusActive, StatusRetentionPending:
			if rec.RetentionEligibleAt.Before(asOf) {
				counts.Overdue++
			}
		}
		if rec.RetryCount > 0 && rec.Status != StatusSecurelyErased {
			counts.Errored++
		}
	}
	return counts, nil
}

func sortRecords(recs []DataLifecycleRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].RetentionEligibleAt.Equal(recs[j].RetentionEligibleAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].RetentionEligibleAt.Before(recs[j].RetentionEligibleAt)
	})
}
