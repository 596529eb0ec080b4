package lifecycle

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentra/internal/platform/querier"
)

// ScanRun is the persisted history entry for one scan execution.
type ScanRun struct {
	ID             string      `json:"id"`
	OrganisationID string      `json:"organisationId"`
	StartedAt      time.Time   `json:"startedAt"`
	CompletedAt    time.Time   `json:"completedAt"`
	Processed      int         `json:"recordsProcessed"`
	SoftDeleted    int         `json:"recordsSoftDeleted"`
	SecurelyErased int         `json:"recordsSecurelyErased"`
	Errors         []ScanError `json:"errors,omitempty"`
}

type RunStore interface {
	Save(ctx context.Context, run *ScanRun) error
	List(ctx context.Context, organisationID string, limit int) ([]ScanRun, error)
}

type PostgresRunStore struct {
	DB querier.Querier
}

func NewPostgresRunStore(db querier.Querier) *PostgresRunStore {
	return &PostgresRunStore{DB: db}
}

func (s *PostgresRunStore) Save(ctx context.Context, run *ScanRun) error {
	errs, err := json.Marshal(run.Errors)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO scan_runs
      (id, organisation_id, started_at, completed_at,
       records_processed, records_soft_deleted, records_securely_erased, errors)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, run.ID, run.OrganisationID, run.StartedAt, run.CompletedAt,
		run.Processed, run.SoftDeleted, run.SecurelyErased, errs)
	return err
}

func (s *PostgresRunStore) List(ctx context.Context, organisationID string, limit int) ([]ScanRun, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, organisation_id, started_at, completed_at,
           records_processed, records_soft_deleted, records_securely_erased, errors
    FROM scan_runs
    WHERE organisation_id = $1
    ORDER BY started_at DESC
    LIMIT $2
  `, organisationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScanRun
	for rows.Next() {
		var run ScanRun
		var errs []byte
		if err := rows.Scan(&run.ID, &run.OrganisationID, &run.StartedAt, &run.CompletedAt,
			&run.Processed, &run.SoftDeleted, &run.SecurelyErased, &errs); err != nil {
			return nil, err
		}
		if len(errs) > 0 {
			if err := json.Unmarshal(errs, &run.Errors); err != nil {
				return nil, err
			}
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type MemoryRunStore struct {
	mu   sync.Mutex
	runs []ScanRun
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{}
}

func (s *MemoryRunStore) Save(ctx context.Context, run *ScanRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	s.runs = append(s.runs, *run)
	return nil
}

func (s *MemoryRunStore) List(ctx context.Context, organisationID string, limit int) ([]ScanRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ScanRun
	for _, run := range s.runs {
		if run.OrganisationID == organisationID {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
