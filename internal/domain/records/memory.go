package records

import (
	"context"
	"errors"
	"sync"
	"time"

	"sentra/internal/domain/policy"
)

// MemoryEntity tracks the observable state of one entity inside a
// MemorySource, including how many overwrite passes it received.
type MemoryEntity struct {
	Entity
	SoftDeleted     bool
	Deleted         bool
	Restored        bool
	OverwritePasses int
}

// MemorySource is an in-memory Source for unit tests. Failure injection
// fields make executor error paths reproducible.
type MemorySource struct {
	mu       sync.Mutex
	dataType policy.DataType
	table    string
	entities map[string]*MemoryEntity

	FailSoftDelete error
	FailOverwrite  error
	FailDelete     error
	FailRestore    error
}

func NewMemorySource(dataType policy.DataType, table string) *MemorySource {
	return &MemorySource{
		dataType: dataType,
		table:    table,
		entities: make(map[string]*MemoryEntity),
	}
}

func (s *MemorySource) DataType() policy.DataType { return s.dataType }
func (s *MemorySource) ResourceTable() string     { return s.table }

func (s *MemorySource) AddEntity(id, organisationID string, createdAt time.Time) Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := Entity{
		ResourceTable:  s.table,
		ResourceID:     id,
		OrganisationID: organisationID,
		CreatedAt:      createdAt,
	}
	s.entities[id] = &MemoryEntity{Entity: e}
	return e
}

func (s *MemorySource) Get(id string) *MemoryEntity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entities[id]
}

func (s *MemorySource) ListEligible(ctx context.Context, organisationID string, cutoff time.Time) ([]Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entity
	for _, e := range s.entities {
		if e.OrganisationID == organisationID && !e.SoftDeleted && !e.Deleted && e.CreatedAt.Before(cutoff) {
			out = append(out, e.Entity)
		}
	}
	return out, nil
}

func (s *MemorySource) Count(ctx context.Context, organisationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.entities {
		if e.OrganisationID == organisationID && !e.Deleted {
			count++
		}
	}
	return count, nil
}

func (s *MemorySource) SoftDelete(ctx context.Context, e Entity) error {
	if s.FailSoftDelete != nil {
		return s.FailSoftDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.entities[e.ResourceID]
	if !ok {
		return errors.New("entity not found")
	}
	ent.SoftDeleted = true
	return nil
}

func (s *MemorySource) Restore(ctx context.Context, e Entity) error {
	if s.FailRestore != nil {
		return s.FailRestore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.entities[e.ResourceID]
	if !ok {
		return errors.New("entity not found")
	}
	if ent.Deleted {
		return errors.New("entity already erased")
	}
	ent.SoftDeleted = false
	ent.Restored = true
	return nil
}

func (s *MemorySource) Overwrite(ctx context.Context, e Entity, pass int) error {
	if s.FailOverwrite != nil {
		return s.FailOverwrite
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.entities[e.ResourceID]
	if !ok {
		return errors.New("entity not found")
	}
	ent.OverwritePasses++
	return nil
}

func (s *MemorySource) Delete(ctx context.Context, e Entity) error {
	if s.FailDelete != nil {
		return s.FailDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.entities[e.ResourceID]
	if !ok {
		return errors.New("entity not found")
	}
	ent.Deleted = true
	return nil
}
