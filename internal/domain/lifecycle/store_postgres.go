package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"sentra/internal/domain/policy"
	"sentra/internal/platform/querier"
)

type PostgresStore struct {
	DB querier.Querier
}

func NewPostgresStore(db querier.Querier) *PostgresStore {
	return &PostgresStore{DB: db}
}

const recordColumns = `
  id, organisation_id, resource_table, resource_id, COALESCE(user_id, ''), data_type,
  policy_id, policy_snapshot, status, data_created_at, retention_eligible_at,
  soft_deleted_at, secure_erase_scheduled_at, secure_erased_at, restored_at,
  COALESCE(deletion_reason, ''), COALESCE(deletion_confirmation, ''), COALESCE(erase_method_used, ''),
  COALESCE(certificate_id, ''), processing_errors, retry_count, created_at, updated_at`

func (s *PostgresStore) Ensure(ctx context.Context, rec *DataLifecycleRecord) (bool, *DataLifecycleRecord, error) {
	snapshot, err := json.Marshal(rec.Policy)
	if err != nil {
		return false, nil, err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO data_lifecycle_records
      (organisation_id, resource_table, resource_id, user_id, data_type, policy_id,
       policy_snapshot, status, data_created_at, retention_eligible_at, deletion_reason)
    VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10,$11)
    ON CONFLICT (resource_table, resource_id) DO NOTHING
    RETURNING id
  `, rec.OrganisationID, rec.ResourceTable, rec.ResourceID, rec.UserID, string(rec.DataType),
		rec.PolicyID, snapshot, string(rec.Status), rec.DataCreatedAt, rec.RetentionEligibleAt,
		rec.DeletionReason).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := s.GetByResource(ctx, rec.ResourceTable, rec.ResourceID)
		if err != nil {
			return false, nil, err
		}
		return false, existing, nil
	}
	if err != nil {
		return false, nil, err
	}
	stored, err := s.Get(ctx, id)
	if err != nil {
		return false, nil, err
	}
	return true, stored, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*DataLifecycleRecord, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM data_lifecycle_records
    WHERE id = $1
  `, id)
	return scanRecord(row)
}

func (s *PostgresStore) GetByResource(ctx context.Context, resourceTable, resourceID string) (*DataLifecycleRecord, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM data_lifecycle_records
    WHERE resource_table = $1 AND resource_id = $2
  `, resourceTable, resourceID)
	return scanRecord(row)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, organisationID string, status Status, limit int) ([]DataLifecycleRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM data_lifecycle_records
    WHERE organisation_id = $1 AND status = $2
    ORDER BY retention_eligible_at
    LIMIT $3
  `, organisationID, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) ListSoftDeleteDue(ctx context.Context, organisationID string, dataType policy.DataType, asOf time.Time) ([]DataLifecycleRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM data_lifecycle_records
    WHERE organisation_id = $1
      AND data_type = $2
      AND status IN ('active', 'retention_pending')
      AND retention_eligible_at <= $3
    ORDER BY retention_eligible_at
  `, organisationID, string(dataType), asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) ListEraseDue(ctx context.Context, organisationID string, dataType policy.DataType, asOf time.Time) ([]DataLifecycleRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM data_lifecycle_records
    WHERE organisation_id = $1
      AND data_type = $2
      AND status IN ('deletion_scheduled', 'soft_deleted')
      AND secure_erase_scheduled_at IS NOT NULL
      AND secure_erase_scheduled_at <= $3
    ORDER BY secure_erase_scheduled_at
  `, organisationID, string(dataType), asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) MarkSoftDeleted(ctx context.Context, id string, at, eraseScheduledAt time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE data_lifecycle_records
    SET status = 'soft_deleted',
        soft_deleted_at = $2,
        secure_erase_scheduled_at = $3,
        updated_at = now()
    WHERE id = $1 AND status IN ('active', 'retention_pending', 'deletion_scheduled')
  `, id, at, eraseScheduledAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *PostgresStore) MarkErased(ctx context.Context, id string, at time.Time, methodUsed, confirmation string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE data_lifecycle_records
    SET status = 'securely_erased',
        secure_erased_at = $2,
        erase_method_used = $3,
        deletion_confirmation = $4,
        updated_at = now()
    WHERE id = $1 AND status IN ('deletion_scheduled', 'soft_deleted')
  `, id, at, methodUsed, confirmation)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *PostgresStore) MarkRestored(ctx context.Context, id string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE data_lifecycle_records
    SET status = 'retention_pending',
        soft_deleted_at = NULL,
        secure_erase_scheduled_at = NULL,
        restored_at = $2,
        updated_at = now()
    WHERE id = $1 AND status = 'soft_deleted'
  `, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *PostgresStore) AttachCertificate(ctx context.Context, id, certificateID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE data_lifecycle_records
    SET certificate_id = $2, updated_at = now()
    WHERE id = $1
  `, id, certificateID)
	return err
}

func (s *PostgresStore) RecordFailure(ctx context.Context, id string, perr ProcessingError) error {
	payload, err := json.Marshal([]ProcessingError{perr})
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE data_lifecycle_records
    SET processing_errors = processing_errors || $2::jsonb,
        retry_count = retry_count + 1,
        updated_at = now()
    WHERE id = $1
  `, id, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *PostgresStore) PendingCounts(ctx context.Context, organisationID string, asOf time.Time) (int, int, error) {
	var pending, overdue int
	err := s.DB.QueryRow(ctx, `
    SELECT
      COUNT(1) FILTER (WHERE status <> 'securely_erased'),
      COUNT(1) FILTER (WHERE status IN ('active', 'retention_pending') AND retention_eligible_at < $2)
    FROM data_lifecycle_records
    WHERE organisation_id = $1
  `, organisationID, asOf).Scan(&pending, &overdue)
	return pending, overdue, err
}

func (s *PostgresStore) AuditCounts(ctx context.Context, organisationID string, dataType policy.DataType, asOf time.Time) (AuditCounts, error) {
	var counts AuditCounts
	err := s.DB.QueryRow(ctx, `
    SELECT
      COUNT(1),
      COUNT(1) FILTER (WHERE status IN ('active', 'retention_pending') AND retention_eligible_at < $3),
      COUNT(1) FILTER (WHERE status IN ('deletion_scheduled', 'soft_deleted')),
      COUNT(1) FILTER (WHERE status = 'securely_erased'),
      COUNT(1) FILTER (WHERE retry_count > 0 AND status <> 'securely_erased')
    FROM data_lifecycle_records
    WHERE organisation_id = $1 AND data_type = $2
  `, organisationID, string(dataType), asOf).Scan(
		&counts.Tracked, &counts.Overdue, &counts.SoftDeleted, &counts.Erased, &counts.Errored)
	return counts, err
}

func scanRecord(row pgx.Row) (*DataLifecycleRecord, error) {
	var rec DataLifecycleRecord
	var snapshot, processingErrors []byte
	err := row.Scan(
		&rec.ID, &rec.OrganisationID, &rec.ResourceTable, &rec.ResourceID, &rec.UserID, &rec.DataType,
		&rec.PolicyID, &snapshot, &rec.Status, &rec.DataCreatedAt, &rec.RetentionEligibleAt,
		&rec.SoftDeletedAt, &rec.SecureEraseScheduledAt, &rec.SecureErasedAt, &rec.RestoredAt,
		&rec.DeletionReason, &rec.DeletionConfirmation, &rec.EraseMethodUsed, &rec.CertificateID,
		&processingErrors, &rec.RetryCount, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &rec.Policy); err != nil {
			return nil, err
		}
	}
	if len(processingErrors) > 0 {
		if err := json.Unmarshal(processingErrors, &rec.ProcessingErrors); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func scanRecords(rows pgx.Rows) ([]DataLifecycleRecord, error) {
	var out []DataLifecycleRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
